// Package render turns classified lookup results into display markup.
package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pders01/cntry/internal/country"
)

// MarkdownRenderer emits plain Markdown. The terminal renderer styles the
// same document with glamour.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Card(card country.CardView) (string, error) {
	return cardMarkdown(card), nil
}

func (MarkdownRenderer) List(list country.ListView) (string, error) {
	var b strings.Builder
	for _, name := range list.Countries {
		b.WriteString(fmt.Sprintf("- %s\n", name))
	}
	return b.String(), nil
}

func cardMarkdown(card country.CardView) string {
	var content strings.Builder

	title := card.Name
	if card.Flag != "" && !isURL(card.Flag) {
		title = card.Flag + " " + title
	}
	content.WriteString(fmt.Sprintf("# %s\n\n", title))

	capital := card.Capital
	if capital == "" {
		capital = "n/a"
	}
	content.WriteString(fmt.Sprintf("**Capital:** %s\n\n", capital))
	content.WriteString(fmt.Sprintf("**Population:** %s\n\n", FormatPopulation(card.Population)))

	content.WriteString("**Languages:**\n\n")
	if len(card.Languages) == 0 {
		content.WriteString("- n/a\n")
	}
	for _, lang := range card.Languages {
		content.WriteString(fmt.Sprintf("- %s\n", lang))
	}

	if isURL(card.Flag) {
		content.WriteString(fmt.Sprintf("\n[Flag](%s)\n", card.Flag))
	}

	return content.String()
}

// FormatPopulation groups digits with commas.
func FormatPopulation(n int64) string {
	return humanize.Comma(n)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
