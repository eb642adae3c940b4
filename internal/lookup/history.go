package lookup

import (
	"context"
	"fmt"

	"github.com/pders01/cntry/internal/storage"
)

// HistoryStore persists finished lookups.
type HistoryStore interface {
	RecordLookup(entry *storage.HistoryEntry) ([]string, error)
}

// HistoryIndex keeps a search index in step with the store.
type HistoryIndex interface {
	Index(entry *storage.HistoryEntry) error
	Delete(ids ...string) error
}

// HistoryRecorder writes each cycle to the store and, when set, the index.
type HistoryRecorder struct {
	store HistoryStore
	index HistoryIndex
}

func NewHistoryRecorder(store HistoryStore, index HistoryIndex) *HistoryRecorder {
	return &HistoryRecorder{store: store, index: index}
}

func (h *HistoryRecorder) Record(ctx context.Context, r Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := EntryFor(r)
	pruned, err := h.store.RecordLookup(entry)
	if err != nil {
		return err
	}

	if h.index == nil {
		return nil
	}
	if err := h.index.Index(entry); err != nil {
		return fmt.Errorf("indexing lookup: %w", err)
	}
	if err := h.index.Delete(pruned...); err != nil {
		return fmt.Errorf("removing pruned lookups from index: %w", err)
	}
	return nil
}

// EntryFor converts a cycle result into a history entry.
func EntryFor(r Result) *storage.HistoryEntry {
	entry := &storage.HistoryEntry{
		Term:  r.Term,
		Kind:  r.Kind.String(),
		Count: r.Count,
	}
	if r.Err != nil {
		entry.Error = r.Err.Error()
	}
	return entry
}
