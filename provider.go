package pricechat

import (
	"context"
	"io"
	"iter"
)

// Transport opens the streaming response for one turn. The returned body
// yields raw wire bytes; closing it aborts the underlying connection.
// Cancellation flows through ctx.
type Transport interface {
	Open(ctx context.Context, req Request) (io.ReadCloser, error)
}

// Sink receives a Snapshot after every transcript or state change.
// Update is called from the goroutine driving the turn and must not block
// for long.
type Sink interface {
	Update(Snapshot)
}

// SinkFunc adapts an ordinary function to a Sink.
type SinkFunc func(Snapshot)

// Update calls f(s).
func (f SinkFunc) Update(s Snapshot) { f(s) }

// Chat is the surface a UI drives: submit a question, cancel the turn in
// flight, and read the current state.
type Chat interface {
	Submit(text string) error
	Cancel() bool
	Snapshot() Snapshot
}

// Provider generates assistant text for a question as a sequence of deltas.
// It is the upstream of the streaming relay, not of the chat client.
type Provider interface {
	Stream(ctx context.Context, question string) iter.Seq2[string, error]
}

// DefaultSystemPrompt frames the assistant as a house price analyst.
const DefaultSystemPrompt = `You are a professional real estate price analysis advisor. Explain prices
in plain language based on the structured property features you are given and
offer practical buying and selling advice.

Requirements:
- Be concise.
- Organize the answer with Markdown headings and lists.
- Do not invent specific neighbourhoods or cities; analyze only the data provided.`
