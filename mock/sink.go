package mock

import "github.com/fwojciec/pricechat"

// Interface compliance check.
var _ pricechat.Sink = (*Sink)(nil)

// Sink is a test double for pricechat.Sink. UpdateFn is nil-safe (no-op)
// because most tests read state through Snapshot instead.
type Sink struct {
	UpdateFn func(s pricechat.Snapshot)
}

// Update delegates to UpdateFn.
func (s *Sink) Update(snap pricechat.Snapshot) {
	if s.UpdateFn == nil {
		return
	}
	s.UpdateFn(snap)
}
