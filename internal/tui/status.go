package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Canonical short status messages used across the app.
const (
	MsgClearingHistory = "Clearing history…"
	MsgHistoryDisabled = "History is disabled"
	MsgNoResults       = "No results"
)

func MsgResultsCount(n int) string {
	switch n {
	case 0:
		return MsgNoResults
	case 1:
		return "1 result"
	default:
		return fmt.Sprintf("%d results", n)
	}
}

func MsgHistoryCleared(n int) string {
	return fmt.Sprintf("Cleared %s %s from history", humanize.Comma(int64(n)), plural(n, "lookup", "lookups"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func statusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}
