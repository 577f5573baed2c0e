package gemini

import (
	"context"
	"fmt"
	"iter"

	"github.com/fwojciec/pricechat"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ pricechat.Provider = (*Client)(nil)

// Client implements [pricechat.Provider] for the Google Gemini API.
type Client struct {
	client       *genai.Client
	model        string
	systemPrompt string
	maxTokens    int32
	temperature  *float32
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-2.5-flash.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSystemPrompt replaces pricechat.DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// WithMaxTokens caps the length of an answer.
func WithMaxTokens(n int32) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Client) { c.temperature = &t }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client:       gc,
		model:        defaultModel,
		systemPrompt: pricechat.DefaultSystemPrompt,
		maxTokens:    defaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Stream answers question as a sequence of text deltas.
func (c *Client) Stream(ctx context.Context, question string) iter.Seq2[string, error] {
	return Deltas(c.client.Models.GenerateContentStream(ctx, c.model, genai.Text(question), c.config()))
}

func (c *Client) config() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: c.maxTokens,
		Temperature:     c.temperature,
	}
	if c.systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: c.systemPrompt}},
		}
	}
	return config
}
