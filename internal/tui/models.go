package tui

import (
	"github.com/pders01/cntry/internal/lookup"
	"github.com/pders01/cntry/internal/storage"
)

type View int

const (
	ViewLookup View = iota
	ViewHistory
)

func (v View) String() string {
	switch v {
	case ViewLookup:
		return "lookup"
	case ViewHistory:
		return "history"
	default:
		return "unknown"
	}
}

// Messages emitted by the lookup bridge, in the order the cycle made the
// calls.
type containerClearedMsg struct{}

type containerInsertedMsg struct {
	markup string
}

type noticeMsg struct {
	notice lookup.Notice
}

type fieldResetMsg struct{}

type toastExpiredMsg struct {
	id int
}

type historyLoadedMsg struct {
	entries []*storage.HistoryEntry
}

type historyResultsMsg struct {
	query   string
	entries []*storage.HistoryEntry
}

type historyClearedMsg struct {
	count int
	err   error
}

type searchDebounceFireMsg struct {
	seq int
}

type errorMsg struct {
	err error
}
