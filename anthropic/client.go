package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/fwojciec/pricechat"
	"github.com/tidwall/gjson"
)

// Interface compliance check.
var _ pricechat.Provider = (*Client)(nil)

// Client implements [pricechat.Provider] for the Anthropic Messages API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	model        string
	systemPrompt string
	maxTokens    int
	temperature  *float64
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model ID.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSystemPrompt replaces pricechat.DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// WithMaxTokens caps the length of an answer.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = &t }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		httpClient:   http.DefaultClient,
		model:        defaultModel,
		systemPrompt: pricechat.DefaultSystemPrompt,
		maxTokens:    defaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream answers question as a sequence of text deltas. The request is sent
// when the sequence is first iterated.
func (c *Client) Stream(ctx context.Context, question string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		body, err := c.open(ctx, question)
		if err != nil {
			yield("", err)
			return
		}
		defer body.Close()
		for delta, err := range Deltas(body) {
			if !yield(delta, err) || err != nil {
				return
			}
		}
	}
}

func (c *Client) open(ctx context.Context, question string) (io.ReadCloser, error) {
	body, err := json.Marshal(apiRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Stream:      true,
		System:      c.systemPrompt,
		Messages:    []apiMessage{{Role: "user", Content: question}},
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}
	return resp.Body, nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	msg := gjson.GetBytes(body, "error.message")
	if !msg.Exists() {
		return fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("anthropic: %s: %s", gjson.GetBytes(body, "error.type").String(), msg.String())
}
