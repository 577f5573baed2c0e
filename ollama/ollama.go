// Package ollama implements pricechat.Provider for a local Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	"github.com/fwojciec/pricechat"
	"github.com/ollama/ollama/api"
)

const (
	// DefaultHost is where Ollama listens unless configured otherwise.
	DefaultHost  = "http://localhost:11434"
	defaultModel = "llama3.2"
)

// errStopped aborts the chat callback when the consumer stops iterating.
var errStopped = errors.New("ollama: iteration stopped")

// Interface compliance check.
var _ pricechat.Provider = (*Client)(nil)

// Client streams answers from an Ollama chat model.
type Client struct {
	client       *api.Client
	model        string
	systemPrompt string
}

type options struct {
	httpClient   *http.Client
	model        string
	systemPrompt string
}

// Option configures a [Client].
type Option func(*options)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithSystemPrompt replaces pricechat.DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) { o.systemPrompt = prompt }
}

// New creates a [Client] for the Ollama server at host.
func New(host string, opts ...Option) (*Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollama: parse host: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ollama: host %q must be an absolute URL", host)
	}
	o := options{
		httpClient:   http.DefaultClient,
		model:        defaultModel,
		systemPrompt: pricechat.DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		client:       api.NewClient(u, o.httpClient),
		model:        o.model,
		systemPrompt: o.systemPrompt,
	}, nil
}

// Stream answers question as a sequence of text deltas.
func (c *Client) Stream(ctx context.Context, question string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := true
		req := &api.ChatRequest{
			Model: c.model,
			Messages: []api.Message{
				{Role: "system", Content: c.systemPrompt},
				{Role: "user", Content: question},
			},
			Stream: &stream,
		}
		err := c.client.Chat(ctx, req, func(res api.ChatResponse) error {
			if res.Message.Content == "" {
				return nil
			}
			if !yield(res.Message.Content, nil) {
				return errStopped
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopped) {
			yield("", fmt.Errorf("ollama: %w", err))
		}
	}
}
