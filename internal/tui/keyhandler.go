package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/cntry/internal/config"
	"github.com/pders01/cntry/internal/validation"
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string

	quitKey    string
	historyKey string
	clearKey   string
	backKey    string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	b := cfg.Keys.Bindings
	return &KeyHandler{
		app:         app,
		config:      cfg,
		modifierKey: modifierKey,
		quitKey:     modifierKey + b.Quit,
		historyKey:  modifierKey + b.History,
		clearKey:    modifierKey + b.Clear,
		backKey:     b.Back,
	}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewLookup:
		return true
	case ViewHistory:
		return kh.app.searchInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return kh.handleTextInputEnter()
	case "pgup", "pgdown":
		if kh.app.view == ViewLookup {
			return kh.delegateToCharm(msg)
		}
		return kh.delegateToTextInput(msg)
	case "tab", "down":
		if kh.app.view == ViewHistory {
			if len(kh.app.historyList.Items()) > 0 {
				kh.app.searchInput.Blur()
				kh.app.historyList.Select(0)
			}
			return kh.app, nil
		}
		return kh.delegateToTextInput(msg)
	default:
		return kh.delegateToTextInput(msg)
	}
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewLookup:
		// Look up right away instead of waiting out the debounce.
		value := kh.app.textInput.Value()
		if strings.TrimSpace(value) == "" {
			return kh.app, nil
		}
		kh.app.debouncer.Stop()
		return kh.app, kh.app.lookupNow(value)

	case ViewHistory:
		if items := kh.app.historyList.Items(); len(items) > 0 {
			if i, ok := items[0].(historyItem); ok {
				return kh.selectHistoryItem(i)
			}
		}
		return kh.app, nil

	default:
		return kh.app, nil
	}
}

// delegateToTextInput passes the key to the focused input and schedules the
// debounced follow-up when its value changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewLookup:
		prev := kh.app.textInput.Value()
		newTextInput, cmd := kh.app.textInput.Update(msg)
		kh.app.textInput = newTextInput

		if value := kh.app.textInput.Value(); value != prev {
			kh.app.debouncer.Call(value)
		}
		return kh.app, cmd

	case ViewHistory:
		prev := kh.app.pendingSearchQuery
		newSearchInput, cmd := kh.app.searchInput.Update(msg)
		kh.app.searchInput = newSearchInput

		newVal := validation.SanitizeTerm(kh.app.searchInput.Value())
		if newVal != prev {
			kh.app.pendingSearchQuery = newVal
			kh.app.searchSeq++
			seq := kh.app.searchSeq
			wait := time.Duration(kh.app.searchDebounceMillis) * time.Millisecond
			return kh.app, tea.Batch(cmd, tea.Tick(wait, func(time.Time) tea.Msg { return searchDebounceFireMsg{seq: seq} }))
		}
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case kh.quitKey:
		kh.app.Shutdown()
		return kh.app, tea.Quit, true
	case kh.backKey:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}

	switch kh.app.view {
	case ViewLookup:
		return kh.handleLookupCustomKeys(key)
	case ViewHistory:
		return kh.handleHistoryCustomKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleLookupCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case kh.historyKey:
		model, cmd := kh.enterHistoryMode()
		return model, cmd, true
	case kh.clearKey:
		kh.app.setContent("")
		kh.app.toast = nil
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleHistoryCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	if key == kh.clearKey {
		kh.app.setStatus(MsgClearingHistory, StatusInfo)
		return kh.app, kh.app.clearHistory(), true
	}
	return kh.app, nil, false
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewLookup:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	case ViewHistory:
		switch msg.String() {
		case "tab", "shift+tab", "/":
			kh.app.searchInput.Focus()
			return kh.app, nil
		case "up":
			if len(kh.app.historyList.Items()) > 0 && kh.app.historyList.Index() == 0 {
				kh.app.searchInput.Focus()
				return kh.app, nil
			}
		}

		kh.app.historyList, cmd = kh.app.historyList.Update(msg)
		if msg.String() == "enter" {
			if i, ok := kh.app.historyList.SelectedItem().(historyItem); ok {
				return kh.selectHistoryItem(i)
			}
		}
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// selectHistoryItem runs the stored term again in the lookup view.
func (kh *KeyHandler) selectHistoryItem(item historyItem) (tea.Model, tea.Cmd) {
	if item.entry == nil {
		return kh.app, nil
	}
	kh.leaveHistory()
	kh.app.textInput.SetValue(item.entry.Term)
	kh.app.textInput.CursorEnd()
	kh.app.debouncer.Stop()
	return kh.app, kh.app.lookupNow(item.entry.Term)
}

// navigateBack implements smart back navigation
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewHistory:
		kh.leaveHistory()
		return kh.app, nil

	case ViewLookup:
		if kh.app.textInput.Value() != "" {
			kh.app.debouncer.Stop()
			kh.app.textInput.Reset()
			return kh.app, nil
		}
		kh.app.Shutdown()
		return kh.app, tea.Quit

	default:
		kh.app.Shutdown()
		return kh.app, tea.Quit
	}
}

func (kh *KeyHandler) leaveHistory() {
	kh.app.view = ViewLookup
	kh.app.searchInput.Reset()
	kh.app.searchInput.Blur()
	kh.app.pendingSearchQuery = ""
	kh.app.historyList.SetItems([]list.Item{})
	kh.app.history = nil
	kh.app.status = ""
	kh.app.textInput.Focus()
}

// enterHistoryMode switches to the history view and loads recent lookups.
func (kh *KeyHandler) enterHistoryMode() (tea.Model, tea.Cmd) {
	if kh.app.store == nil {
		kh.app.setStatus(MsgHistoryDisabled, StatusWarn)
		return kh.app, nil
	}
	kh.app.view = ViewHistory
	kh.app.textInput.Blur()
	kh.app.searchInput.Reset()
	kh.app.searchInput.Focus()
	kh.app.pendingSearchQuery = ""
	kh.app.status = ""
	return kh.app, kh.app.loadHistory()
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	switch kh.app.view {
	case ViewLookup:
		help := []string{"enter: look up"}
		if kh.app.store != nil {
			help = append(help, kh.historyKey+": history")
		}
		return append(help, kh.clearKey+": clear", kh.quitKey+": quit")

	case ViewHistory:
		return []string{kh.clearKey + ": clear history", kh.backKey + ": back"}

	default:
		return []string{}
	}
}
