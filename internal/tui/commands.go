package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/cntry/internal/storage"
)

// lookupNow runs one cycle off the update loop. The cycle reports back
// through the bridge, so the command itself yields no message.
func (a *App) lookupNow(term string) tea.Cmd {
	return func() tea.Msg {
		a.controller.Handle(term)
		return nil
	}
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := a.store.RecentLookups(historyLimit)
		if err != nil {
			return errorMsg{err: wrapErr("loading history", err)}
		}
		return historyLoadedMsg{entries: entries}
	}
}

func (a *App) performSearch(query string) tea.Cmd {
	if query == "" {
		return func() tea.Msg {
			entries, err := a.store.RecentLookups(historyLimit)
			if err != nil {
				return errorMsg{err: wrapErr("loading history", err)}
			}
			return historyResultsMsg{query: query, entries: entries}
		}
	}

	return func() tea.Msg {
		results, err := a.index.Search(query, historyLimit)
		if err != nil {
			return errorMsg{err: wrapErr("searching history", err)}
		}

		entries := make([]*storage.HistoryEntry, 0, len(results))
		for _, r := range results {
			entries = append(entries, r.Entry)
		}
		return historyResultsMsg{query: query, entries: entries}
	}
}

func (a *App) clearHistory() tea.Cmd {
	return func() tea.Msg {
		var count int
		err := retryOperation(func() error {
			n, err := a.store.ClearHistory()
			count = n
			return err
		})
		if err != nil {
			return historyClearedMsg{err: wrapErr("clearing history", err)}
		}
		if err := a.index.Clear(); err != nil {
			return historyClearedMsg{err: wrapErr("clearing search index", err)}
		}
		return historyClearedMsg{count: count}
	}
}

// retryOperation retries a database operation up to 3 times with exponential backoff
func retryOperation(operation func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := operation(); err != nil {
			lastErr = err
			if i < maxRetries-1 {
				delay := baseDelay * time.Duration(1<<i) // exponential backoff
				time.Sleep(delay)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
