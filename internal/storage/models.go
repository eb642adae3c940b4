package storage

import (
	"time"
)

// HistoryEntry records one completed lookup: what was asked and how it
// ended. Results themselves are never stored.
type HistoryEntry struct {
	ID    string    `json:"id"`
	Term  string    `json:"term"`
	Kind  string    `json:"kind"`
	Count int       `json:"count"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// Failed reports whether the lookup ended in an error.
func (e *HistoryEntry) Failed() bool {
	return e.Error != ""
}
