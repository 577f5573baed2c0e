// Package goldmark renders assistant markdown to ANSI-styled terminal
// output using goldmark for parsing and lipgloss for styling.
//
// Answers are re-rendered on every delta, so the input is often cut in the
// middle of a construct. Goldmark closes open blocks at end of input, which
// keeps partial code fences and tables readable while they stream in.
package goldmark

import (
	"github.com/fwojciec/pricechat"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

const defaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items are word-wrapped to width. Code blocks are
// rendered without reflow.
func Render(source string, width int, theme pricechat.Theme) string {
	return NewRenderer(theme).Render(source, width)
}

// Renderer renders markdown with a fixed theme. It is safe for concurrent
// use.
type Renderer struct {
	parser parser.Parser
	styles styles
}

// NewRenderer creates a Renderer with GitHub-flavored tables and
// strikethrough enabled.
func NewRenderer(theme pricechat.Theme) *Renderer {
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	return &Renderer{
		parser: md.Parser(),
		styles: newStyles(theme),
	}
}

// Render renders source wrapped to width. A non-positive width means 80
// columns.
func (r *Renderer) Render(source string, width int) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	return r.render([]byte(source), width)
}
