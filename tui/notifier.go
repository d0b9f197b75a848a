package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// refreshMsg tells the model that a fetch settled.
type refreshMsg struct{}

// Notifier bridges table change notifications into the bubbletea loop.
// Pass Notify as the table's OnChange callback.
type Notifier struct {
	ch   chan struct{}
	done chan struct{}
	once sync.Once
}

func NewNotifier() *Notifier {
	return &Notifier{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Notify records a change. It never blocks; bursts collapse into one
// refresh.
func (n *Notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Close releases a pending wait.
func (n *Notifier) Close() {
	n.once.Do(func() { close(n.done) })
}

func (n *Notifier) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-n.ch:
			return refreshMsg{}
		case <-n.done:
			return nil
		}
	}
}
