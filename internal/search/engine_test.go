package search

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/cntry/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedHistory(t *testing.T, store *storage.Store) []*storage.HistoryEntry {
	t.Helper()
	entries := []*storage.HistoryEntry{
		{Term: "Spain", Kind: "single", Count: 1},
		{Term: "United", Kind: "multiple", Count: 4},
		{Term: "Xyzzy", Kind: "failed", Error: "Not Found"},
		{Term: "United Kingdom", Kind: "single", Count: 1},
	}
	for _, e := range entries {
		_, err := store.RecordLookup(e)
		require.NoError(t, err)
	}
	return entries
}

func TestNewEngine(t *testing.T) {
	store := &storage.Store{}
	engine := NewEngine(store)
	assert.NotNil(t, engine)
	assert.Equal(t, store, engine.store)
}

func TestSearchMinLength(t *testing.T) {
	store := &storage.Store{}
	engine := NewEngine(store)

	tests := []struct {
		name  string
		query string
	}{
		{
			name:  "Empty query",
			query: "",
		},
		{
			name:  "Single character query",
			query: "a",
		},
		{
			name:  "Whitespace only",
			query: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := engine.Search(tt.query, 10)
			assert.NoError(t, err)
			assert.NotNil(t, results)
			assert.Equal(t, 0, len(results), "short queries should return empty results")
		})
	}
}

func TestEngineSearchTerms(t *testing.T) {
	store := newTestStore(t)
	seedHistory(t, store)
	engine := NewEngine(store)

	results, err := engine.Search("united", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Contains(t, r.Entry.Term, "United")
		require.NotEmpty(t, r.Matches)
		assert.Equal(t, "term", r.Matches[0].Field)
	}

	// The exact single-word term outranks the longer one.
	assert.Equal(t, "United", results[0].Entry.Term)
}

func TestEngineSearchPrefix(t *testing.T) {
	store := newTestStore(t)
	seedHistory(t, store)

	results, err := NewEngine(store).Search("spa", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Spain", results[0].Entry.Term)
}

func TestEngineSearchErrorText(t *testing.T) {
	store := newTestStore(t)
	seedHistory(t, store)

	results, err := NewEngine(store).Search("not found", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Xyzzy", results[0].Entry.Term)
	assert.Equal(t, "error", results[0].Matches[0].Field)
}

func TestEngineSearchLimit(t *testing.T) {
	store := newTestStore(t)
	seedHistory(t, store)

	results, err := NewEngine(store).Search("united", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestEngineDocCount(t *testing.T) {
	store := newTestStore(t)
	seedHistory(t, store)

	n, err := NewEngine(store).DocCount()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "Spain", []string{"spain"}},
		{"punctuation", "Bosnia-Herzegovina", []string{"bosnia", "herzegovina"}},
		{"drops single chars", "a b cd", []string{"cd"}},
		{"unicode", "Côte d'Ivoire", []string{"côte", "ivoire"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
