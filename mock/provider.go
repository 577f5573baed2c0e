package mock

import (
	"context"
	"iter"

	"github.com/fwojciec/pricechat"
)

// Interface compliance check.
var _ pricechat.Provider = (*Provider)(nil)

// Provider is a test double for pricechat.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, question string) iter.Seq2[string, error]
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, question string) iter.Seq2[string, error] {
	return p.StreamFn(ctx, question)
}

// Deltas returns a sequence yielding each delta in order, followed by err
// when it is not nil.
func Deltas(err error, deltas ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, d := range deltas {
			if !yield(d, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}
