package search

import "github.com/pders01/cntry/internal/storage"

// Searcher defines the minimal search API used by the TUI and CLI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// Indexer is notified about history changes so an external index can
// follow the store.
type Indexer interface {
	Index(entry *storage.HistoryEntry) error
	Delete(ids ...string) error
	Clear() error
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

// Index is what callers hold: a searchable, updatable history index.
type Index interface {
	Searcher
	Indexer
	DebugStatser
	Close() error
}
