package bubbletea

var _ MessageBlock = (*UserMessageBlock)(nil)

// UserMessageBlock renders a user question with a "> " prefix.
type UserMessageBlock struct {
	text   string
	styles Styles
}

// NewUserMessageBlock creates a UserMessageBlock.
func NewUserMessageBlock(text string, styles Styles) *UserMessageBlock {
	return &UserMessageBlock{text: text, styles: styles}
}

func (b *UserMessageBlock) View(width int) string {
	content := b.styles.UserMsg.Render(">") + " " + b.text
	return b.styles.UserBg.Width(width).Render(content)
}
