package mock

import "github.com/fwojciec/pricechat"

// Interface compliance check.
var _ pricechat.Chat = (*Chat)(nil)

// Chat is a test double for pricechat.Chat.
// Set the function fields for the methods you need. SnapshotFn is nil-safe
// and returns an idle Snapshot.
type Chat struct {
	SubmitFn   func(text string) error
	CancelFn   func() bool
	SnapshotFn func() pricechat.Snapshot
}

// Submit delegates to SubmitFn.
func (c *Chat) Submit(text string) error {
	return c.SubmitFn(text)
}

// Cancel delegates to CancelFn.
func (c *Chat) Cancel() bool {
	return c.CancelFn()
}

// Snapshot delegates to SnapshotFn.
func (c *Chat) Snapshot() pricechat.Snapshot {
	if c.SnapshotFn == nil {
		return pricechat.Snapshot{}
	}
	return c.SnapshotFn()
}
