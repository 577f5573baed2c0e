package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     serveConfig
		env     map[string]string
		wantErr string
	}{
		{name: "explicit openai", cfg: serveConfig{Provider: "openai", APIKey: "sk-test"}},
		{name: "explicit anthropic", cfg: serveConfig{Provider: "anthropic", APIKey: "sk-ant"}},
		{name: "explicit gemini", cfg: serveConfig{Provider: "gemini", APIKey: "gk-test"}},
		{name: "openai from env", env: map[string]string{"OPENAI_API_KEY": "sk-env"}},
		{name: "anthropic from env", env: map[string]string{"ANTHROPIC_API_KEY": "sk-ant"}},
		{name: "gemini from env", env: map[string]string{"GEMINI_API_KEY": "gk-env"}},
		{
			name: "openai compatible base url",
			cfg:  serveConfig{Provider: "openai", BaseURL: "https://api.deepseek.com/v1", Model: "deepseek-chat", SystemPrompt: "p"},
			env:  map[string]string{"OPENAI_API_KEY": "sk"},
		},
		{name: "unknown provider", cfg: serveConfig{Provider: "mistral", APIKey: "k"}, wantErr: "unknown provider"},
		{name: "ollama default host", cfg: serveConfig{Provider: "ollama"}},
		{name: "ollama host from env", cfg: serveConfig{Provider: "ollama", Model: "qwen2.5"}, env: map[string]string{"OLLAMA_HOST": "http://gpu-box:11434"}},
		{name: "ollama invalid host", cfg: serveConfig{Provider: "ollama", BaseURL: "gpu-box"}, wantErr: "create provider"},
		{name: "ollama host not auto-detected", env: map[string]string{"OLLAMA_HOST": "http://localhost:11434"}, wantErr: "no API key found"},
		{name: "no keys", wantErr: "no API key found"},
		{
			name:    "several keys",
			env:     map[string]string{"OPENAI_API_KEY": "sk", "GEMINI_API_KEY": "gk"},
			wantErr: "multiple API keys found (OPENAI_API_KEY, GEMINI_API_KEY)",
		},
		{name: "openai without key", cfg: serveConfig{Provider: "openai"}, env: map[string]string{"GEMINI_API_KEY": "gk"}, wantErr: "OPENAI_API_KEY not set"},
		{name: "anthropic without key", cfg: serveConfig{Provider: "anthropic"}, wantErr: "ANTHROPIC_API_KEY not set"},
		{name: "gemini without key", cfg: serveConfig{Provider: "gemini"}, env: map[string]string{"OPENAI_API_KEY": "sk"}, wantErr: "GEMINI_API_KEY not set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := resolveProvider(context.Background(), tt.cfg, providerKeys(envMap(tt.env)))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}
