package bubbletea

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pricechat"
)

var _ MessageBlock = (*ErrorBlock)(nil)

// ErrorBlock renders the error that closed a turn.
type ErrorBlock struct {
	reason pricechat.CloseReason
	err    error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(reason pricechat.CloseReason, err error, styles Styles) *ErrorBlock {
	return &ErrorBlock{reason: reason, err: err, styles: styles}
}

func (b *ErrorBlock) View(width int) string {
	label := "Network error"
	if b.reason == pricechat.CloseProtocolError {
		label = "Protocol error"
	}
	content := b.styles.Error.Render(fmt.Sprintf("%s: %v", label, b.err))
	switch {
	case errors.Is(b.err, pricechat.ErrUnauthorized):
		content += "\n" + b.styles.Muted.Render("Your session has expired. Log in again and restart with a new token.")
	case errors.Is(b.err, pricechat.ErrIncompleteStream):
		content += "\n" + b.styles.Muted.Render("The answer above may be incomplete. Press Enter to ask again.")
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}
