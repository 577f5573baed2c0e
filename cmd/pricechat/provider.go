package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/pricechat"
	"github.com/fwojciec/pricechat/anthropic"
	"github.com/fwojciec/pricechat/gemini"
	"github.com/fwojciec/pricechat/ollama"
	"github.com/fwojciec/pricechat/openai"
)

// providerKeyEnv names the API key variable of each provider, in
// auto-detection order.
var providerKeyEnv = []struct{ name, env string }{
	{"openai", "OPENAI_API_KEY"},
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"gemini", "GEMINI_API_KEY"},
}

// ollamaHostEnv points at a local Ollama server. Ollama needs no key so it
// is never auto-detected.
const ollamaHostEnv = "OLLAMA_HOST"

// providerKeys reads provider API keys from the environment. The "ollama"
// entry holds the server host instead of a key.
func providerKeys(getenv func(string) string) map[string]string {
	keys := make(map[string]string, len(providerKeyEnv)+1)
	for _, p := range providerKeyEnv {
		keys[p.name] = getenv(p.env)
	}
	keys["ollama"] = getenv(ollamaHostEnv)
	return keys
}

// resolveProvider selects and constructs the relay provider. Env var values
// are passed in as envKeys (provider name to key); env is only read in the
// command.
func resolveProvider(ctx context.Context, cfg serveConfig, envKeys map[string]string) (pricechat.Provider, error) {
	provider := cfg.Provider

	// Auto-detect from env vars if not configured.
	if provider == "" {
		var found, vars []string
		for _, p := range providerKeyEnv {
			if envKeys[p.name] != "" {
				found = append(found, p.name)
				vars = append(vars, p.env)
			}
		}
		switch len(found) {
		case 0:
			return nil, fmt.Errorf("no API key found: set OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY (or use --provider and --api-key)")
		case 1:
			provider = found[0]
		default:
			return nil, fmt.Errorf("multiple API keys found (%s): use --provider to select", strings.Join(vars, ", "))
		}
	}

	// Explicit key overrides env var.
	key := cfg.APIKey
	if key == "" {
		key = envKeys[provider]
	}

	switch provider {
	case "openai":
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set (use --api-key or environment variable)")
		}
		var opts []openai.Option
		if cfg.SystemPrompt != "" {
			opts = append(opts, openai.WithSystemPrompt(cfg.SystemPrompt))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		return openai.New(key, opts...), nil
	case "anthropic":
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set (use --api-key or environment variable)")
		}
		var opts []anthropic.Option
		if cfg.SystemPrompt != "" {
			opts = append(opts, anthropic.WithSystemPrompt(cfg.SystemPrompt))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		return anthropic.New(key, opts...), nil
	case "gemini":
		if key == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set (use --api-key or environment variable)")
		}
		var opts []gemini.Option
		if cfg.SystemPrompt != "" {
			opts = append(opts, gemini.WithSystemPrompt(cfg.SystemPrompt))
		}
		if cfg.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Model))
		}
		client, err := gemini.New(ctx, key, opts...)
		if err != nil {
			return nil, fmt.Errorf("create provider: %w", err)
		}
		return client, nil
	case "ollama":
		host := cfg.BaseURL
		if host == "" {
			host = envKeys["ollama"]
		}
		if host == "" {
			host = ollama.DefaultHost
		}
		var opts []ollama.Option
		if cfg.SystemPrompt != "" {
			opts = append(opts, ollama.WithSystemPrompt(cfg.SystemPrompt))
		}
		if cfg.Model != "" {
			opts = append(opts, ollama.WithModel(cfg.Model))
		}
		client, err := ollama.New(host, opts...)
		if err != nil {
			return nil, fmt.Errorf("create provider: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be \"openai\", \"anthropic\", \"gemini\" or \"ollama\"", provider)
	}
}
