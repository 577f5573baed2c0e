package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/pricechat"
	"github.com/fwojciec/pricechat/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)


func completionServer(t *testing.T, captured *map[string]any, deltas ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, captured))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range deltas {
			b, _ := json.Marshal(d)
			_, _ = io.WriteString(w, `data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":`+string(b)+`}}]}`+"\n\n")
		}
		// A chunk without choices, as some compatible servers send for usage.
		_, _ = io.WriteString(w, `data: {"id":"c1","object":"chat.completion.chunk","created":1,"model":"m","choices":[]}`+"\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
}

func collect(t *testing.T, p *openai.Provider, question string) ([]string, error) {
	t.Helper()
	var out []string
	for d, err := range p.Stream(context.Background(), question) {
		if err != nil {
			return out, err
		}
		out = append(out, d)
	}
	return out, nil
}

func TestProvider_Stream(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := completionServer(t, &captured, "Prices ", "", "rose.")
	defer srv.Close()

	p := openai.New("sk-test", openai.WithBaseURL(srv.URL+"/v1"), openai.WithModel("qwen-plus"), openai.WithTemperature(0.5))
	got, err := collect(t, p, "trend in Poznań?")
	require.NoError(t, err)
	assert.Equal(t, []string{"Prices ", "rose."}, got)

	assert.Equal(t, "qwen-plus", captured["model"])
	assert.Equal(t, true, captured["stream"])
	assert.InDelta(t, 0.5, captured["temperature"], 0.001)
	msgs, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": pricechat.DefaultSystemPrompt}, msgs[0])
	assert.Equal(t, map[string]any{"role": "user", "content": "trend in Poznań?"}, msgs[1])
}

func TestProvider_NoSystemPrompt(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := completionServer(t, &captured, "ok")
	defer srv.Close()

	p := openai.New("sk-test", openai.WithBaseURL(srv.URL+"/v1"), openai.WithSystemPrompt(""))
	_, err := collect(t, p, "q")
	require.NoError(t, err)
	msgs := captured["messages"].([]any)
	require.Len(t, msgs, 1)
}

func TestProvider_EarlyBreak(t *testing.T) {
	t.Parallel()
	srv := completionServer(t, nil, "a", "b", "c")
	defer srv.Close()

	p := openai.New("sk-test", openai.WithBaseURL(srv.URL+"/v1"))
	var got []string
	for d, err := range p.Stream(context.Background(), "q") {
		require.NoError(t, err)
		got = append(got, d)
		break
	}
	assert.Equal(t, []string{"a"}, got)
}

func TestProvider_HTTPError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"quota exceeded","type":"rate_limit"}}`)
	}))
	defer srv.Close()

	p := openai.New("sk-test", openai.WithBaseURL(srv.URL+"/v1"), openai.WithHTTPClient(srv.Client()))
	_, err := collect(t, p, "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai:")
	assert.Contains(t, err.Error(), "quota exceeded")
}
