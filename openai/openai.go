// Package openai implements pricechat.Provider for OpenAI-compatible chat
// completion APIs (OpenAI, Qwen, Kimi, DeepSeek and similar).
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/fwojciec/pricechat"
	goopenai "github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

// Interface compliance check.
var _ pricechat.Provider = (*Provider)(nil)

// Provider streams answers from a chat completion endpoint.
type Provider struct {
	client       *goopenai.Client
	model        string
	systemPrompt string
	temperature  float32
}

type options struct {
	baseURL      string
	httpClient   *http.Client
	model        string
	systemPrompt string
	temperature  float32
}

// Option configures a [Provider].
type Option func(*options)

// WithBaseURL points the provider at an OpenAI-compatible endpoint, for
// example https://dashscope.aliyuncs.com/compatible-mode/v1.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

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

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(o *options) { o.temperature = t }
}

// New creates a [Provider] authenticating with apiKey.
func New(apiKey string, opts ...Option) *Provider {
	o := options{
		model:        defaultModel,
		systemPrompt: pricechat.DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(&o)
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	return &Provider{
		client:       goopenai.NewClientWithConfig(cfg),
		model:        o.model,
		systemPrompt: o.systemPrompt,
		temperature:  o.temperature,
	}
}

// Stream answers question as a sequence of text deltas.
func (p *Provider) Stream(ctx context.Context, question string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := p.client.CreateChatCompletionStream(ctx, p.request(question))
		if err != nil {
			yield("", fmt.Errorf("openai: %w", err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("openai: %w", err))
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if text := resp.Choices[0].Delta.Content; text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

func (p *Provider) request(question string) goopenai.ChatCompletionRequest {
	var msgs []goopenai.ChatCompletionMessage
	if p.systemPrompt != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: p.systemPrompt,
		})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: question,
	})
	return goopenai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Stream:      true,
		Temperature: p.temperature,
	}
}
