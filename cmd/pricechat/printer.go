package main

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fwojciec/pricechat"
)

// Interface compliance check.
var _ pricechat.Sink = (*printer)(nil)

// printer writes the growing assistant answer to w as it streams.
type printer struct {
	mu      sync.Mutex
	w       io.Writer
	written int
	// err is the first write error; later writes are skipped.
	err error
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

// Update writes the part of the assistant answer not printed yet.
func (p *printer) Update(snap pricechat.Snapshot) {
	last, ok := snap.Last()
	if !ok || last.Role != pricechat.RoleAssistant {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil || len(last.Content) <= p.written {
		return
	}
	if _, err := io.WriteString(p.w, last.Content[p.written:]); err != nil {
		p.err = fmt.Errorf("write answer: %w", err)
		return
	}
	p.written = len(last.Content)
}

// finish terminates the answer and reports how the turn ended.
func (p *printer) finish(snap pricechat.Snapshot) error {
	p.Update(snap)
	p.mu.Lock()
	if p.err == nil && p.written > 0 {
		if _, err := fmt.Fprintln(p.w); err != nil {
			p.err = fmt.Errorf("write answer: %w", err)
		}
	}
	writeErr := p.err
	p.mu.Unlock()

	state := snap.State
	switch {
	case !state.Abnormal():
		return writeErr
	case state.Reason == pricechat.CloseCancelled:
		return errors.New("cancelled")
	case snap.Err != nil:
		return snap.Err
	default:
		return fmt.Errorf("turn ended: %s", state)
	}
}
