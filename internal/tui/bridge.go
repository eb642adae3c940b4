package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/cntry/internal/lookup"
)

// bridge implements the controller's Container, Field and Notifier by
// forwarding each call to the Bubble Tea program as a message. Cycles run
// on timer goroutines; the model is only touched in Update.
type bridge struct {
	ch        chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
}

func newBridge(buffer int) *bridge {
	return &bridge{
		ch:   make(chan tea.Msg, buffer),
		done: make(chan struct{}),
	}
}

func (b *bridge) Clear() { b.send(containerClearedMsg{}) }

func (b *bridge) Insert(markup string) { b.send(containerInsertedMsg{markup: markup}) }

func (b *bridge) Notify(n lookup.Notice) { b.send(noticeMsg{notice: n}) }

func (b *bridge) Reset() { b.send(fieldResetMsg{}) }

func (b *bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	case <-b.done:
	}
}

// listen waits for the next message. Update re-arms it after every bridge
// message so exactly one listener is outstanding.
func (b *bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.done:
			return nil
		}
	}
}

func (b *bridge) close() {
	b.closeOnce.Do(func() { close(b.done) })
}
