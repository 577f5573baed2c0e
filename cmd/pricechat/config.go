package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	defaultServer    = "http://localhost:8000"
	defaultAddr      = "localhost:8000"
	defaultLogLevel  = "info"
	defaultConfigRel = "pricechat/config.yaml"
)

// config is the resolved configuration. Precedence: flag > env > file >
// default.
type config struct {
	Server   string      `yaml:"server"`
	Token    string      `yaml:"token"`
	LogFile  string      `yaml:"log_file"`
	LogLevel string      `yaml:"log_level"`
	Serve    serveConfig `yaml:"serve"`
}

// serveConfig configures the relay started by "pricechat serve".
type serveConfig struct {
	Addr       string   `yaml:"addr"`
	Provider   string   `yaml:"provider"`
	Model      string   `yaml:"model"`
	BaseURL    string   `yaml:"base_url"`
	APIKey     string   `yaml:"api_key"`
	Tokens     []string `yaml:"tokens"`
	PromptFile string   `yaml:"system_prompt_file"`

	// SystemPrompt is read from PromptFile.
	SystemPrompt string `yaml:"-"`
}

func defaultConfig() config {
	return config{
		Server:   defaultServer,
		LogFile:  defaultLogFile(),
		LogLevel: defaultLogLevel,
		Serve: serveConfig{
			Addr: defaultAddr,
		},
	}
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pricechat", "pricechat.log")
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, defaultConfigRel)
}

// loadConfigFile overlays the YAML file at path on cfg. A missing file is
// an error only when required is set.
func loadConfigFile(cfg *config, path string, required bool) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !required:
		return nil
	default:
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// envVars maps environment variable names to config fields.
var envVars = map[string]func(*config) *string{
	"PRICECHAT_SERVER":      func(c *config) *string { return &c.Server },
	"PRICECHAT_TOKEN":       func(c *config) *string { return &c.Token },
	"PRICECHAT_LOG_FILE":    func(c *config) *string { return &c.LogFile },
	"PRICECHAT_LOG_LEVEL":   func(c *config) *string { return &c.LogLevel },
	"PRICECHAT_ADDR":        func(c *config) *string { return &c.Serve.Addr },
	"PRICECHAT_PROVIDER":    func(c *config) *string { return &c.Serve.Provider },
	"PRICECHAT_MODEL":       func(c *config) *string { return &c.Serve.Model },
	"OPENAI_BASE_URL":       func(c *config) *string { return &c.Serve.BaseURL },
	"PRICECHAT_PROMPT_FILE": func(c *config) *string { return &c.Serve.PromptFile },
}

// applyEnv overlays non-empty environment variables on cfg.
func applyEnv(cfg *config, getenv func(string) string) {
	for name, field := range envVars {
		if v := getenv(name); v != "" {
			*field(cfg) = v
		}
	}
	if v := getenv("PRICECHAT_TOKENS"); v != "" {
		cfg.Serve.Tokens = splitList(v)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// flags holds raw flag values. Only flags the user set override config.
type flags struct {
	configPath string
	cfg        config
}

func (f *flags) registerPersistent(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "Path to YAML config file (default: "+defaultConfigPath()+")")
	pf.StringVar(&f.cfg.Server, "server", defaultServer, "Base URL of the AI service")
	pf.StringVar(&f.cfg.Token, "token", "", "Bearer token for the AI service")
	pf.StringVar(&f.cfg.LogFile, "log-file", "", "Log file used while the TUI is running")
	pf.StringVar(&f.cfg.LogLevel, "log-level", defaultLogLevel, "Log level: debug, info, warn, error")
}

func (f *flags) registerServe(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.cfg.Serve.Addr, "addr", defaultAddr, "Listen address")
	fl.StringVar(&f.cfg.Serve.Provider, "provider", "", "Provider: openai, anthropic, gemini, ollama (auto-detected from API key env vars if omitted)")
	fl.StringVar(&f.cfg.Serve.Model, "model", "", "Model ID (provider-specific)")
	fl.StringVar(&f.cfg.Serve.BaseURL, "base-url", "", "Base URL of the provider API (OpenAI-compatible endpoints, Anthropic proxies, Ollama host)")
	fl.StringVar(&f.cfg.Serve.APIKey, "api-key", "", "API key (overrides provider's env var)")
	fl.StringSliceVar(&f.cfg.Serve.Tokens, "tokens", nil, "Accepted bearer tokens (all requests accepted if empty)")
	fl.StringVar(&f.cfg.Serve.PromptFile, "system-prompt", "", "Path to system prompt file")
}

// applyFlags overlays the flags set on the command line.
func (f *flags) applyFlags(cmd *cobra.Command, cfg *config) {
	set := func(name string, dst *string, v string) {
		if fl := cmd.Flags().Lookup(name); fl != nil && fl.Changed {
			*dst = v
		}
	}
	set("server", &cfg.Server, f.cfg.Server)
	set("token", &cfg.Token, f.cfg.Token)
	set("log-file", &cfg.LogFile, f.cfg.LogFile)
	set("log-level", &cfg.LogLevel, f.cfg.LogLevel)
	set("addr", &cfg.Serve.Addr, f.cfg.Serve.Addr)
	set("provider", &cfg.Serve.Provider, f.cfg.Serve.Provider)
	set("model", &cfg.Serve.Model, f.cfg.Serve.Model)
	set("base-url", &cfg.Serve.BaseURL, f.cfg.Serve.BaseURL)
	set("api-key", &cfg.Serve.APIKey, f.cfg.Serve.APIKey)
	set("system-prompt", &cfg.Serve.PromptFile, f.cfg.Serve.PromptFile)
	if fl := cmd.Flags().Lookup("tokens"); fl != nil && fl.Changed {
		cfg.Serve.Tokens = f.cfg.Serve.Tokens
	}
}

// resolve builds the effective config for cmd.
func (f *flags) resolve(cmd *cobra.Command, getenv func(string) string) (config, error) {
	cfg := defaultConfig()

	path, required := f.configPath, true
	if path == "" {
		path, required = getenv("PRICECHAT_CONFIG"), true
	}
	if path == "" {
		path, required = defaultConfigPath(), false
	}
	if err := loadConfigFile(&cfg, path, required); err != nil {
		return config{}, err
	}
	applyEnv(&cfg, getenv)
	f.applyFlags(cmd, &cfg)

	if cfg.Serve.PromptFile != "" {
		data, err := os.ReadFile(cfg.Serve.PromptFile)
		if err != nil {
			return config{}, fmt.Errorf("read system prompt: %w", err)
		}
		cfg.Serve.SystemPrompt = string(data)
	}
	return cfg, nil
}

// loadDotEnv loads .env from the working directory into the process
// environment. Variables already set are not overridden.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load .env: %w", err)
}
