package search

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/cntry/internal/debuglog"
	"github.com/pders01/cntry/internal/storage"
)

type bleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and brings it
// in line with the store when the document counts disagree.
func NewBleveEngine(store *storage.Store, indexPath string) (Index, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &bleveEngine{store: store, idx: idx}
	if err := be.syncWithStore(); err != nil {
		idx.Close()
		return nil, err
	}
	return be, nil
}

// Open returns the bleve index when indexPath is set and the scan engine
// otherwise, or when the index cannot be opened.
func Open(store *storage.Store, indexPath string) Index {
	if indexPath == "" {
		return NewEngine(store)
	}
	idx, err := NewBleveEngine(store, indexPath)
	if err != nil {
		debuglog.Warnf("History index unavailable, falling back to scan: %v", err)
		return NewEngine(store)
	}
	return idx
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	term := bleve.NewTextFieldMapping()
	term.Analyzer = standard.Name
	term.Store = true
	term.IncludeTermVectors = true

	errText := bleve.NewTextFieldMapping()
	errText.Analyzer = standard.Name
	errText.Store = true

	kind := bleve.NewTextFieldMapping()
	kind.Analyzer = keyword.Name
	kind.Store = true

	at := bleve.NewDateTimeFieldMapping()
	at.Store = true

	dm.AddFieldMappingsAt("term", term)
	dm.AddFieldMappingsAt("error", errText)
	dm.AddFieldMappingsAt("kind", kind)
	dm.AddFieldMappingsAt("at", at)

	im.DefaultMapping = dm
	return im
}

func document(entry *storage.HistoryEntry) map[string]any {
	return map[string]any{
		"term":  entry.Term,
		"error": entry.Error,
		"kind":  entry.Kind,
		"at":    entry.At,
	}
}

func (b *bleveEngine) syncWithStore() error {
	want, err := b.store.HistoryCount()
	if err != nil {
		return err
	}
	have, err := b.idx.DocCount()
	if err != nil {
		return err
	}
	if int(have) == want {
		return nil
	}

	debuglog.Infof("Reindexing history: index has %d docs, store has %d", have, want)
	if err := b.Clear(); err != nil {
		return err
	}
	return b.reindexAll()
}

func (b *bleveEngine) reindexAll() error {
	batch := b.idx.NewBatch()
	err := b.store.ForEachLookup(func(entry *storage.HistoryEntry) error {
		return batch.Index(entry.ID, document(entry))
	})
	if err != nil {
		return err
	}
	return b.idx.Batch(batch)
}

func (b *bleveEngine) Index(entry *storage.HistoryEntry) error {
	if entry == nil || entry.ID == "" {
		return errors.New("history entry has no id")
	}
	return b.idx.Index(entry.ID, document(entry))
}

func (b *bleveEngine) Delete(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := b.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return b.idx.Batch(batch)
}

// Clear removes every document, page by page.
func (b *bleveEngine) Clear() error {
	const size = 1000
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), size, 0, false)
		req.Fields = []string{}
		res, err := b.idx.Search(req)
		if err != nil {
			return err
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := b.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			return err
		}
	}
}

func (b *bleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	tokens := tokenize(query)
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("term")
		qt.SetBoost(3.0)
		qs = append(qs, qt)
		qtp := bleve.NewPrefixQuery(tok)
		qtp.SetField("term")
		qtp.SetBoost(2.5)
		qs = append(qs, qtp)

		qe := bleve.NewMatchQuery(tok)
		qe.SetField("error")
		qe.SetBoost(1.0)
		qs = append(qs, qe)

		qk := bleve.NewTermQuery(tok)
		qk.SetField("kind")
		qk.SetBoost(0.5)
		qs = append(qs, qk)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	srch := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	res, err := b.idx.Search(srch)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		entry, err := b.store.GetLookup(h.ID)
		if err != nil {
			// Pruned from the store but not yet from the index.
			continue
		}
		r := &Result{Entry: entry, Score: h.Score}
		if m := matchEntry(entry, tokens); m != nil {
			r.Matches = m.Matches
		}
		out = append(out, r)
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *bleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *bleveEngine) Close() error {
	return b.idx.Close()
}
