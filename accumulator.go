package pricechat

import (
	"errors"
	"strings"
)

// Accumulator owns the conversation transcript and the TurnState. It is a
// pure state machine: it performs no I/O and is not safe for concurrent use.
// Callers serialize access (see chat.Session).
//
// Invariant: at most one message is open, and when one is open it is the
// last message, has RoleAssistant, and the phase is PhaseStreaming.
type Accumulator struct {
	messages  []Message
	state     TurnState
	err       error
	malformed int
	version   uint64

	// open buffers the content of the open assistant message so each delta
	// appends in amortized constant time.
	open strings.Builder
}

// NewAccumulator returns an idle Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Submit starts a new turn by appending a user message. It is rejected
// without mutation while a turn is sending or streaming.
func (a *Accumulator) Submit(text string) error {
	if a.state.Active() {
		return ErrTurnInProgress
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	a.messages = append(a.messages, NewMessage(RoleUser, text))
	a.state = TurnState{Phase: PhaseSending}
	a.err = nil
	a.malformed = 0
	a.version++
	return nil
}

// Begin opens the assistant message once the first chunk has arrived.
// It reports whether the transition happened.
func (a *Accumulator) Begin() bool {
	if a.state.Phase != PhaseSending {
		return false
	}
	a.messages = append(a.messages, NewMessage(RoleAssistant, ""))
	a.open.Reset()
	a.state = TurnState{Phase: PhaseStreaming}
	a.version++
	return true
}

// ApplyEvent folds one interpreted frame into the transcript. It reports
// whether the transcript or the state changed. Events that arrive when no
// assistant message is open (for example after EventDone) are discarded.
func (a *Accumulator) ApplyEvent(evt Event) bool {
	if a.state.Phase == PhaseSending {
		a.Begin()
	}
	if a.state.Phase != PhaseStreaming {
		return false
	}
	switch e := evt.(type) {
	case EventDelta:
		if e.Text == "" {
			return false
		}
		a.open.WriteString(e.Text)
		a.messages[len(a.messages)-1].Content = a.open.String()
		a.version++
		return true
	case EventDone:
		a.close(CloseCompleted, nil)
		return true
	case EventMalformed:
		if !e.Ignorable() {
			a.malformed++
			a.version++
		}
		return false
	default:
		return false
	}
}

// Cancel closes the turn in flight as cancelled. Content streamed so far is
// kept. It reports false when no turn is active.
func (a *Accumulator) Cancel() bool {
	if !a.state.Active() {
		return false
	}
	a.close(CloseCancelled, nil)
	return true
}

// Fail closes the turn in flight because of err. Errors wrapping
// ErrProtocol close with CloseProtocolError; everything else is a network
// error. Content streamed so far is kept. It reports false when no turn is
// active.
func (a *Accumulator) Fail(err error) bool {
	if !a.state.Active() {
		return false
	}
	reason := CloseNetworkError
	if errors.Is(err, ErrProtocol) {
		reason = CloseProtocolError
	}
	a.close(reason, err)
	return true
}

func (a *Accumulator) close(reason CloseReason, err error) {
	a.state = TurnState{Phase: PhaseClosed, Reason: reason}
	a.err = err
	a.open.Reset()
	a.version++
}

// State returns the current TurnState.
func (a *Accumulator) State() TurnState {
	return a.state
}

// Messages returns a copy of the transcript.
func (a *Accumulator) Messages() []Message {
	out := make([]Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// Snapshot returns a read-only view of the current state.
func (a *Accumulator) Snapshot() Snapshot {
	return Snapshot{
		Messages:  a.Messages(),
		State:     a.state,
		Err:       a.err,
		Malformed: a.malformed,
		Version:   a.version,
	}
}
