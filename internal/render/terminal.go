package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/pders01/cntry/internal/config"
	"github.com/pders01/cntry/internal/country"
)

// TerminalRenderer renders cards with glamour and lists with lipgloss.
// It is safe for concurrent use; lookups render off the UI goroutine.
type TerminalRenderer struct {
	mu            sync.Mutex
	cardCfg       config.CardConfig
	style         string
	width         int
	renderer      *glamour.TermRenderer
	rendererWidth int

	nameStyle  lipgloss.Style
	matchStyle lipgloss.Style
	bullet     string
}

type TerminalOption func(*TerminalRenderer)

// WithGlamourStyle pins a glamour standard style ("dark", "light",
// "notty"...) instead of detecting one from the terminal.
func WithGlamourStyle(style string) TerminalOption {
	return func(r *TerminalRenderer) { r.style = style }
}

func NewTerminalRenderer(ui config.UIConfig, opts ...TerminalOption) *TerminalRenderer {
	r := &TerminalRenderer{
		cardCfg: ui.Card,
		width:   80,
		nameStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ui.Colors.Text)),
		matchStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ui.Colors.Secondary)).
			Bold(true),
		bullet: lipgloss.NewStyle().
			Foreground(lipgloss.Color(ui.Colors.Accent)).
			Render("›"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetWidth records the available width; the glamour renderer is rebuilt
// lazily when the wrap width changes noticeably.
func (r *TerminalRenderer) SetWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = width
}

func (r *TerminalRenderer) wrapWidth() int {
	maxWidth := r.cardCfg.WordWrapMaxWidth
	if maxWidth <= 0 {
		maxWidth = 100
	}
	minWidth := r.cardCfg.WordWrapMinWidth
	if minWidth <= 0 {
		minWidth = 40
	}

	w := (r.width * 9) / 10
	if w > maxWidth {
		w = maxWidth
	}
	if w < minWidth {
		w = minWidth
	}
	if r.width < 50 {
		w = r.width - 4
		if w < 20 {
			w = 20
		}
	}
	return w
}

func (r *TerminalRenderer) glamourRenderer() (*glamour.TermRenderer, error) {
	w := r.wrapWidth()
	if r.renderer != nil && abs(r.rendererWidth-w) <= 10 {
		return r.renderer, nil
	}

	styleOpt := glamour.WithAutoStyle()
	if r.style != "" {
		styleOpt = glamour.WithStandardStyle(r.style)
	}
	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(w), glamour.WithEmoji())
	if err != nil {
		return nil, err
	}
	r.renderer = tr
	r.rendererWidth = w
	return tr, nil
}

func (r *TerminalRenderer) Card(card country.CardView) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tr, err := r.glamourRenderer()
	if err != nil {
		return "", wrapErr("initializing renderer", err)
	}
	out, err := tr.Render(cardMarkdown(card))
	if err != nil {
		return "", wrapErr("rendering card", err)
	}
	return out, nil
}

// List renders one name per line in service order, highlighting the
// characters that match the search term.
func (r *TerminalRenderer) List(list country.ListView) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make(map[int]map[int]bool, len(list.Countries))
	if list.Term != "" {
		for _, m := range fuzzy.Find(list.Term, list.Countries) {
			set := make(map[int]bool, len(m.MatchedIndexes))
			for _, idx := range m.MatchedIndexes {
				set[idx] = true
			}
			matched[m.Index] = set
		}
	}

	lines := make([]string, 0, len(list.Countries))
	for i, name := range list.Countries {
		lines = append(lines, r.bullet+" "+r.highlight(name, matched[i]))
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func (r *TerminalRenderer) highlight(name string, idx map[int]bool) string {
	if len(idx) == 0 {
		return r.nameStyle.Render(name)
	}

	var b strings.Builder
	var run strings.Builder
	runMatched := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runMatched {
			b.WriteString(r.matchStyle.Render(run.String()))
		} else {
			b.WriteString(r.nameStyle.Render(run.String()))
		}
		run.Reset()
	}

	for i, ch := range name {
		if idx[i] != runMatched {
			flush()
			runMatched = idx[i]
		}
		run.WriteRune(ch)
	}
	flush()
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
