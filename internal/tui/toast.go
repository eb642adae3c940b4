package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/cntry/internal/lookup"
)

// toast is the on-screen form of a lookup notice. It is dropped when the
// timer for its id fires; a newer toast replaces it earlier.
type toast struct {
	id     int
	notice lookup.Notice
}

func (t *toast) render() string {
	border := MutedColor
	icon := "ℹ"
	switch t.notice.Level {
	case lookup.LevelWarning:
		border = WarnColor
		icon = "!"
	case lookup.LevelError:
		border = ErrorColor
		icon = "✗"
	}

	style := ToastStyle.BorderForeground(border)
	if t.notice.Width > 0 {
		style = style.Width(t.notice.Width)
	}
	return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, icon+" ", t.notice.Text))
}
