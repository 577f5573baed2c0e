// Package bubbletea provides a Bubble Tea TUI for the chat client.
package bubbletea

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/pricechat"
)

// Run creates and runs the Bubble Tea TUI program and attaches sink to it.
// It blocks until the program exits. The context is used for graceful
// shutdown: when cancelled, the program quits.
func Run(ctx context.Context, m Model, sink *Sink, opts ...tea.ProgramOption) error {
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	if sink != nil {
		sink.Attach(p)
		defer sink.Attach(nil)
	}
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// SnapshotMsg delivers a conversation snapshot to the model.
type SnapshotMsg struct {
	Snapshot pricechat.Snapshot
}

// Sender is implemented by *tea.Program and by test harnesses.
type Sender interface {
	Send(msg tea.Msg)
}

// Interface compliance check.
var _ pricechat.Sink = (*Sink)(nil)

// Sink forwards snapshots to a running program. Updates arriving while no
// program is attached are dropped.
//
// Send blocks until the program's event loop takes the message, and the
// event loop itself calls Submit and Cancel, which publish snapshots. Each
// update is therefore sent from its own goroutine, and the model drops
// snapshots older than the one it holds.
type Sink struct {
	mu     sync.Mutex
	sender Sender
}

// NewSink returns a detached Sink.
func NewSink() *Sink {
	return &Sink{}
}

// Attach sets the program that receives snapshots. Passing nil detaches.
func (s *Sink) Attach(sender Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
}

// Update implements pricechat.Sink.
func (s *Sink) Update(snap pricechat.Snapshot) {
	s.mu.Lock()
	sender := s.sender
	s.mu.Unlock()
	if sender == nil {
		return
	}
	go sender.Send(SnapshotMsg{Snapshot: snap})
}
