package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pders01/cntry/internal/config"
	"github.com/pders01/cntry/internal/debounce"
	"github.com/pders01/cntry/internal/lookup"
	"github.com/pders01/cntry/internal/render"
	"github.com/pders01/cntry/internal/search"
	"github.com/pders01/cntry/internal/storage"
)

const historyLimit = 50

type App struct {
	config     *config.Config
	store      *storage.Store
	index      search.Index
	renderer   *render.TerminalRenderer
	bridge     *bridge
	controller *lookup.Controller
	debouncer  *debounce.Debouncer[string]
	cancel     context.CancelFunc
	keyHandler *KeyHandler

	textInput   textinput.Model
	viewport    viewport.Model
	historyList list.Model
	searchInput textinput.Model

	view    View
	content string
	history []*storage.HistoryEntry

	toast   *toast
	toastID int

	searchSeq            int
	pendingSearchQuery   string
	searchDebounceMillis int

	status     string
	statusKind StatusKind
	err        error

	width  int
	height int
}

// NewApp wires the lookup pipeline to the terminal. store and index may be
// nil, which disables history.
func NewApp(cfg *config.Config, fetcher lookup.Fetcher, store *storage.Store, index search.Index) *App {
	ApplyTheme(cfg.UI.Colors)

	ti := textinput.New()
	ti.Placeholder = "Type a country name..."
	ti.Prompt = "› "
	ti.CharLimit = 256
	ti.Focus()

	si := textinput.New()
	si.Placeholder = "Search past lookups..."

	historyList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	historyList.SetShowTitle(false)
	historyList.SetShowStatusBar(false)
	historyList.SetShowHelp(false)
	historyList.SetFilteringEnabled(false)

	renderer := render.NewTerminalRenderer(cfg.UI)
	br := newBridge(64)
	ctx, cancel := context.WithCancel(context.Background())

	var recorder lookup.Recorder
	if store != nil {
		if index == nil {
			index = search.NewEngine(store)
		}
		recorder = lookup.NewHistoryRecorder(store, index)
	}

	controller := lookup.NewController(cfg.Lookup, lookup.Collaborators{
		Fetcher:   fetcher,
		Renderer:  renderer,
		Container: br,
		Notifier:  br,
		Field:     br,
		Recorder:  recorder,
	}, lookup.WithBaseContext(ctx))

	app := &App{
		config:               cfg,
		store:                store,
		index:                index,
		renderer:             renderer,
		bridge:               br,
		controller:           controller,
		debouncer:            debounce.New(cfg.Lookup.Debounce, controller.Handle),
		cancel:               cancel,
		textInput:            ti,
		viewport:             viewport.New(0, 0),
		historyList:          historyList,
		searchInput:          si,
		view:                 ViewLookup,
		searchDebounceMillis: 200,
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.bridge.listen(),
	)
}

// Shutdown stops the pending lookup, cancels in-flight fetches and waits
// for running cycles, so the history store can be closed afterwards.
func (a *App) Shutdown() {
	a.debouncer.Stop()
	a.cancel()
	a.bridge.close()
	a.controller.Close()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		inputWidth := msg.Width - 8
		if inputWidth < 20 {
			inputWidth = msg.Width
		}
		a.textInput.Width = inputWidth
		a.searchInput.Width = inputWidth

		a.viewport.Width = msg.Width
		a.viewport.Height = a.contentHeight()
		a.renderer.SetWidth(msg.Width)

		listHeight := msg.Height - 10
		if listHeight < 5 {
			listHeight = 5
		}
		a.historyList.SetSize(msg.Width, listHeight)

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case containerClearedMsg:
		a.setContent("")
		return a, a.bridge.listen()

	case containerInsertedMsg:
		a.setContent(msg.markup)
		return a, a.bridge.listen()

	case noticeMsg:
		return a, tea.Batch(a.showToast(msg.notice), a.bridge.listen())

	case fieldResetMsg:
		a.textInput.Reset()
		return a, a.bridge.listen()

	case toastExpiredMsg:
		if a.toast != nil && a.toast.id == msg.id {
			a.toast = nil
		}
		return a, nil

	case historyLoadedMsg:
		a.setHistory(msg.entries)
		return a, nil

	case historyResultsMsg:
		if a.view == ViewHistory && msg.query == a.pendingSearchQuery {
			a.setHistory(msg.entries)
			a.setStatus(MsgResultsCount(len(msg.entries)), StatusInfo)
		}
		return a, nil

	case historyClearedMsg:
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		a.setHistory(nil)
		a.setStatus(MsgHistoryCleared(msg.count), StatusSuccess)
		return a, nil

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq && a.view == ViewHistory {
			return a, a.performSearch(a.pendingSearchQuery)
		}
		return a, nil

	case errorMsg:
		a.err = msg.err
		return a, nil
	}

	switch a.view {
	case ViewLookup:
		switch msg.(type) {
		case tea.WindowSizeMsg, tea.MouseMsg:
			newViewport, cmd := a.viewport.Update(msg)
			a.viewport = newViewport
			cmds = append(cmds, cmd)
		}
		newTextInput, cmd := a.textInput.Update(msg)
		a.textInput = newTextInput
		cmds = append(cmds, cmd)
	case ViewHistory:
		newSearchInput, cmd := a.searchInput.Update(msg)
		a.searchInput = newSearchInput
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) setContent(markup string) {
	a.content = markup
	a.viewport.SetContent(markup)
	a.viewport.GotoTop()
}

func (a *App) setHistory(entries []*storage.HistoryEntry) {
	a.history = entries
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{entry: e}
	}
	a.historyList.SetItems(items)
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
	a.err = nil
}

func (a *App) showToast(n lookup.Notice) tea.Cmd {
	a.toastID++
	id := a.toastID
	a.toast = &toast{id: id, notice: n}
	return tea.Tick(n.Delay, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

// contentHeight leaves room for the header, input frame, toast and status bar.
func (a *App) contentHeight() int {
	h := a.height - 9
	if h < 3 {
		h = 3
	}
	return h
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewLookup:
		header := renderHeader("› "+AppName, "Search countries by name", a.width)
		input := renderInputFrame(a.textInput.View(), a.textInput.Focused(), a.textInput.Width)

		body := a.viewport.View()
		if a.content == "" {
			body = renderCentered(a.width, a.contentHeight(), GetWelcomeMessage())
		}

		rows := []string{header, input, body}
		if a.toast != nil {
			rows = append(rows, a.toast.render())
		}
		content = lipgloss.JoinVertical(lipgloss.Left, rows...)

	case ViewHistory:
		subtitle := ""
		if a.index != nil {
			if n, err := a.index.DocCount(); err == nil {
				subtitle = fmt.Sprintf("%s lookups", humanize.Comma(int64(n)))
			}
		}
		if a.store != nil {
			subtitle = strings.TrimPrefix(subtitle+" • "+truncateMiddle(a.store.Path(), a.width/2), " • ")
		}

		helpText := ""
		switch {
		case a.searchInput.Focused():
			helpText = "Type to search • Tab/↓: results • Enter: look up first • Esc: back"
		case len(a.historyList.Items()) > 0:
			helpText = "↑↓: navigate • Enter: look up • Tab/↑: search box • Esc: back"
		default:
			helpText = "No lookups yet • Esc: back"
		}

		content = ContentWrapper(a.width, a.height-3).Render(lipgloss.JoinVertical(
			lipgloss.Top,
			renderHeader("› history", subtitle, a.width),
			"",
			renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
			renderMuted(helpText),
			"",
			a.historyList.View(),
		))
	}

	customStatus := a.getCustomStatusBar()
	if customStatus != "" {
		separatorWidth := a.width - 2
		if separatorWidth < 0 {
			separatorWidth = 0
		}
		separator := SeparatorStyle.Render("─" + strings.Repeat("─", separatorWidth))

		return lipgloss.JoinVertical(lipgloss.Top, content, separator, customStatus)
	}

	return content
}

func (a *App) getCustomStatusBar() string {
	if a.err != nil {
		return StatusBarStyle.Width(a.width).Render(ErrorMessageStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}

	commands := a.keyHandler.GetHelpForCurrentView()
	if len(commands) == 0 && a.status == "" {
		return ""
	}

	text := strings.Join(commands, " • ")
	if a.status != "" {
		text = statusStyle(a.statusKind).Render(a.status) + "  " + text
	}
	return StatusBarStyle.Width(a.width).Render(text)
}

type historyItem struct {
	entry *storage.HistoryEntry
}

func (i historyItem) Title() string {
	if i.entry.Failed() {
		return FailedItemStyle.Render("✗ " + i.entry.Term)
	}
	return TermStyle.Render(i.entry.Term)
}

func (i historyItem) Description() string {
	var outcome string
	switch {
	case i.entry.Failed():
		outcome = truncateEnd(i.entry.Error, 50)
	case i.entry.Count == 1:
		outcome = "1 country"
	default:
		outcome = fmt.Sprintf("%d countries", i.entry.Count)
	}

	timeStr := ""
	if !i.entry.At.IsZero() {
		timeStr = TimeStyle.Render(" • " + humanize.Time(i.entry.At))
	}

	return renderMuted(outcome) + timeStr
}

func (i historyItem) FilterValue() string { return i.entry.Term }
