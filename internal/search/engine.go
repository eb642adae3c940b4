package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/cntry/internal/storage"
)

// Result is one history entry that matched a query.
type Result struct {
	Entry   *storage.HistoryEntry
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "term", "error", "kind"
	Text   string
	Weight float64
}

// Engine scans the store directly. It needs no index on disk and is used
// when no bleve index path is configured.
type Engine struct {
	store *storage.Store
}

func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store}
}

func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	var results []*Result
	err := e.store.ForEachLookup(func(entry *storage.HistoryEntry) error {
		if result := matchEntry(entry, terms); result != nil {
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Highest score first; ties go to the newer lookup.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Entry.At.After(results[j].Entry.At)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// The store is the source of truth, so there is nothing to maintain.
func (e *Engine) Index(*storage.HistoryEntry) error { return nil }
func (e *Engine) Delete(...string) error            { return nil }
func (e *Engine) Clear() error                      { return nil }
func (e *Engine) Close() error                      { return nil }

func (e *Engine) DocCount() (int, error) {
	return e.store.HistoryCount()
}

func matchEntry(entry *storage.HistoryEntry, terms []string) *Result {
	var matches []Match
	var totalScore float64

	if termScore := scoreField(entry.Term, terms, 3.0); termScore > 0 {
		matches = append(matches, Match{Field: "term", Text: entry.Term, Weight: termScore})
		totalScore += termScore
	}

	if errScore := scoreField(entry.Error, terms, 1.0); errScore > 0 {
		matches = append(matches, Match{Field: "error", Text: truncate(entry.Error, 100), Weight: errScore})
		totalScore += errScore
	}

	if kindScore := scoreField(entry.Kind, terms, 0.5); kindScore > 0 {
		matches = append(matches, Match{Field: "kind", Text: entry.Kind, Weight: kindScore})
		totalScore += kindScore
	}

	if totalScore == 0 {
		return nil
	}
	return &Result{Entry: entry, Score: totalScore, Matches: matches}
}

// scoreField calculates relevance score for a field
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, term):
				score += 0.5
				matchedTerms++
			}
		}
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= (1.0 + math.Log(1.0+tf))

	return score * weight
}

// tokenize breaks text into lower-cased terms, dropping single characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len([]rune(term)) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if term := current.String(); len([]rune(term)) > 1 {
		terms = append(terms, term)
	}

	return terms
}

func truncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-1]) + "…"
}
