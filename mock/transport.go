// Package mock provides test doubles for pricechat interfaces using function fields.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/pricechat"
)

// Interface compliance checks.
var (
	_ pricechat.Transport = (*Transport)(nil)
	_ io.ReadCloser       = (*Body)(nil)
)

// Transport is a test double for pricechat.Transport.
// Set OpenFn before calling Open.
type Transport struct {
	OpenFn func(ctx context.Context, req pricechat.Request) (io.ReadCloser, error)
}

// Open delegates to OpenFn.
func (t *Transport) Open(ctx context.Context, req pricechat.Request) (io.ReadCloser, error) {
	return t.OpenFn(ctx, req)
}

// Body is a test double for a streaming response body.
// ReadFn panics when nil to catch missing setup. CloseFn is nil-safe
// because the code under test always closes the body.
type Body struct {
	ReadFn  func(p []byte) (int, error)
	CloseFn func() error
}

// Read delegates to ReadFn.
func (b *Body) Read(p []byte) (int, error) {
	return b.ReadFn(p)
}

// Close delegates to CloseFn. Returns nil when CloseFn is nil.
func (b *Body) Close() error {
	if b.CloseFn == nil {
		return nil
	}
	return b.CloseFn()
}
