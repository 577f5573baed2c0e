package bubbletea

import (
	"strings"

	"github.com/fwojciec/pricechat/goldmark"
)

var _ MessageBlock = (*AssistantTextBlock)(nil)

// AssistantTextBlock renders streamed assistant text with markdown
// formatting. Finalized paragraphs (separated by a blank line) are rendered
// once per width and cached; only the trailing text is re-rendered as
// deltas arrive.
type AssistantTextBlock struct {
	content  strings.Builder
	renderer *goldmark.Renderer

	// finalizedRaw is the stable prefix ending at the last blank line
	// outside a code fence.
	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAssistantTextBlock creates a new block for streaming assistant text.
func NewAssistantTextBlock(renderer *goldmark.Renderer) *AssistantTextBlock {
	return &AssistantTextBlock{
		renderer:         renderer,
		finalizedByWidth: make(map[int]string),
	}
}

// Append adds a text delta.
func (b *AssistantTextBlock) Append(text string) {
	b.content.WriteString(text)
	b.promoteFinalized()
}

// SetContent replaces the text with s. When s extends the current text only
// the new suffix is appended, so the render cache survives streaming.
func (b *AssistantTextBlock) SetContent(s string) {
	cur := b.content.String()
	if s == cur {
		return
	}
	if strings.HasPrefix(s, cur) {
		b.Append(s[len(cur):])
		return
	}
	b.content.Reset()
	b.finalizedRaw = ""
	clear(b.finalizedByWidth)
	b.Append(s)
}

// Content returns the raw markdown.
func (b *AssistantTextBlock) Content() string {
	return b.content.String()
}

func (b *AssistantTextBlock) View(width int) string {
	finalized := b.renderFinalized(width)
	trailing := b.trailingRaw()
	if strings.TrimSpace(trailing) == "" {
		return finalized
	}
	rendered := b.renderer.Render(trailing, width)
	if strings.TrimSpace(rendered) == "" {
		return finalized
	}
	if finalized == "" {
		return rendered
	}
	// Rejoin independently rendered fragments with a single blank line to
	// match the output of a full-document render.
	return strings.TrimRight(finalized, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
}

// promoteFinalized moves the finalized boundary to the last blank line whose
// prefix has no unclosed code fence. Splitting inside a fence would render
// half a code block as prose.
func (b *AssistantTextBlock) promoteFinalized() {
	raw := b.content.String()
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.finalizedRaw {
				b.finalizedRaw = candidate
				clear(b.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantTextBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := b.renderer.Render(b.finalizedRaw, width)
	b.finalizedByWidth[width] = rendered
	return rendered
}

func (b *AssistantTextBlock) trailingRaw() string {
	raw := b.content.String()
	if b.finalizedRaw == "" {
		return raw
	}
	return strings.TrimPrefix(raw, b.finalizedRaw+"\n\n")
}

// hasUnclosedFence reports an odd number of "```" in s. Triple backticks
// inside inline code are miscounted; assistant answers rarely contain them.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
