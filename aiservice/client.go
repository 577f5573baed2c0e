// Package aiservice implements pricechat.Transport for the AI service's
// streaming chat endpoint.
package aiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/fwojciec/pricechat"
	"github.com/tidwall/gjson"
)

const (
	// DefaultPath is the streaming chat endpoint relative to the base URL.
	DefaultPath = "/ai/chat/stream"

	eventStreamType = "text/event-stream"
	maxErrorBody    = 64 << 10
)

// Interface compliance check.
var _ pricechat.Transport = (*Client)(nil)

// Client opens chat streams over HTTP.
type Client struct {
	baseURL    string
	path       string
	userAgent  string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Its Timeout bounds the whole
// turn, including streaming, so prefer transport-level timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPath overrides the endpoint path.
func WithPath(path string) Option {
	return func(c *Client) { c.path = path }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a [Client] for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		path:       DefaultPath,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type chatRequest struct {
	Question string `json:"question"`
}

// Open posts the question and returns the event stream body. The caller
// must close it.
func (c *Client) Open(ctx context.Context, req pricechat.Request) (io.ReadCloser, error) {
	body, err := json.Marshal(chatRequest{Question: req.Question})
	if err != nil {
		return nil, fmt.Errorf("aiservice: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("aiservice: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", eventStreamType)
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("aiservice: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != eventStreamType {
			resp.Body.Close()
			return nil, fmt.Errorf("aiservice: unexpected content type %q: %w", ct, pricechat.ErrProtocol)
		}
	}
	return resp.Body, nil
}

// parseHTTPError builds an error from a non-2xx response. FastAPI reports
// failures as {"detail": ...} where detail is a string or a list of
// validation errors.
func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("aiservice: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	msg := strings.TrimSpace(string(body))
	if detail := gjson.GetBytes(body, "detail"); detail.Exists() {
		msg = detail.String()
		if msgs := detail.Get("#.msg"); detail.IsArray() && len(msgs.Array()) > 0 {
			parts := make([]string, 0, len(msgs.Array()))
			for _, m := range msgs.Array() {
				parts = append(parts, m.String())
			}
			msg = strings.Join(parts, "; ")
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("aiservice: %s: %w", msg, pricechat.ErrUnauthorized)
	}
	return fmt.Errorf("aiservice: HTTP %d: %s", resp.StatusCode, msg)
}
