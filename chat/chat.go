// Package chat drives conversation turns: it opens the stream for each
// submitted question, decodes and interprets frames as they arrive, and
// folds them into a pricechat.Accumulator.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fwojciec/pricechat"
	"github.com/fwojciec/pricechat/json"
	"github.com/fwojciec/pricechat/sse"
	"github.com/sirupsen/logrus"
)

const defaultReadSize = 4096

// Interface compliance check.
var _ pricechat.Chat = (*Session)(nil)

// Option configures a Session.
type Option func(*Session)

// WithSink sets the receiver of snapshots.
func WithSink(sink pricechat.Sink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithReadSize sets the size of the buffer used to read the response body.
func WithReadSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.readSize = n
		}
	}
}

// WithToken sets the credential sent with every request.
func WithToken(token string) Option {
	return func(s *Session) {
		s.token = token
	}
}

// Session runs at most one turn at a time against a Transport. All methods
// are safe for concurrent use.
type Session struct {
	transport pricechat.Transport
	sink      pricechat.Sink
	log       logrus.FieldLogger
	readSize  int
	token     string

	mu     sync.Mutex
	acc    *pricechat.Accumulator
	turn   uint64
	cancel context.CancelFunc
	body   io.Closer
	done   chan struct{}
}

// New creates a Session that opens streams through transport.
func New(transport pricechat.Transport, opts ...Option) *Session {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Session{
		transport: transport,
		sink:      pricechat.SinkFunc(func(pricechat.Snapshot) {}),
		log:       discard,
		readSize:  defaultReadSize,
		acc:       pricechat.NewAccumulator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit appends text as a user message and starts streaming the answer in
// the background. It fails without side effects while a turn is active or
// when text is blank or too long.
func (s *Session) Submit(text string) error {
	s.mu.Lock()
	if s.acc.State().Active() {
		s.mu.Unlock()
		return pricechat.ErrTurnInProgress
	}
	req := pricechat.Request{Question: text, Token: s.token}
	if err := req.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.acc.Submit(text); err != nil {
		s.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.turn++
	s.cancel = cancel
	s.body = nil
	s.done = make(chan struct{})
	turn, done := s.turn, s.done
	snap := s.acc.Snapshot()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"turn": turn, "length": len(text)}).Debug("turn submitted")
	s.sink.Update(snap)
	go s.run(ctx, cancel, turn, req, done)
	return nil
}

// Cancel stops the turn in flight. Text received so far is kept. It reports
// false when no turn is active.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if !s.acc.Cancel() {
		s.mu.Unlock()
		return false
	}
	s.cancel()
	body := s.body
	turn := s.turn
	snap := s.acc.Snapshot()
	s.mu.Unlock()

	// Unblock a Read on bodies that ignore the context.
	if body != nil {
		_ = body.Close()
	}
	s.log.WithField("turn", turn).Debug("turn cancelled")
	s.sink.Update(snap)
	return true
}

// Wait blocks until the goroutine of the most recent turn has exited.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Snapshot returns the current state of the conversation.
func (s *Session) Snapshot() pricechat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Snapshot()
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, turn uint64, req pricechat.Request, done chan struct{}) {
	defer close(done)
	defer cancel()
	log := s.log.WithField("turn", turn)

	body, err := s.transport.Open(ctx, req)
	if err != nil {
		s.fail(turn, log, fmt.Errorf("open stream: %w", err))
		return
	}
	defer body.Close()

	s.mu.Lock()
	current := s.turn == turn && s.acc.State().Active()
	if current {
		s.body = body
	}
	s.mu.Unlock()
	if !current {
		return
	}

	dec := sse.NewDecoder()
	buf := make([]byte, s.readSize)
	for {
		n, err := body.Read(buf)
		if n > 0 && s.apply(turn, log, dec, string(buf[:n])) {
			return
		}
		if errors.Is(err, io.EOF) {
			if pending := dec.Pending(); pending != "" {
				log.WithField("bytes", len(pending)).Debug("partial frame dropped at end of stream")
			}
			s.fail(turn, log, pricechat.ErrIncompleteStream)
			return
		}
		if err != nil {
			s.fail(turn, log, fmt.Errorf("read stream: %w", err))
			return
		}
	}
}

// apply folds one chunk into the transcript and reports whether the turn is
// over.
func (s *Session) apply(turn uint64, log logrus.FieldLogger, dec *sse.Decoder, chunk string) bool {
	s.mu.Lock()
	if s.turn != turn || !s.acc.State().Active() {
		s.mu.Unlock()
		return true
	}
	s.acc.Begin()
	for _, payload := range dec.Feed(chunk) {
		evt := json.Interpret(payload)
		if m, ok := evt.(pricechat.EventMalformed); ok && !m.Ignorable() {
			log.WithFields(logrus.Fields{"reason": m.Reason, "payload": m.Payload}).Warn("malformed frame skipped")
		}
		s.acc.ApplyEvent(evt)
		if !s.acc.State().Active() {
			break
		}
	}
	finished := !s.acc.State().Active()
	snap := s.acc.Snapshot()
	s.mu.Unlock()

	if finished {
		log.WithField("malformed", snap.Malformed).Debug("turn completed")
	}
	s.sink.Update(snap)
	return finished
}

func (s *Session) fail(turn uint64, log logrus.FieldLogger, err error) {
	s.mu.Lock()
	if s.turn != turn || !s.acc.Fail(err) {
		s.mu.Unlock()
		return
	}
	snap := s.acc.Snapshot()
	s.mu.Unlock()

	log.WithError(err).WithField("reason", snap.State.Reason).Warn("turn failed")
	s.sink.Update(snap)
}
