package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// resolveArgs parses args against a serve-like command and resolves config.
func resolveArgs(t *testing.T, env map[string]string, args ...string) (config, error) {
	t.Helper()
	f := &flags{}
	var (
		cfg config
		err error
	)
	cmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err = f.resolve(cmd, envMap(env))
			return nil
		},
	}
	f.registerPersistent(cmd)
	f.registerServe(cmd)
	// A nil slice makes cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))
	require.NoError(t, cmd.Execute())
	return cfg, err
}

func TestResolveConfig_Defaults(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "none.yaml")
	_, err := resolveArgs(t, nil, "--config", missing)
	require.Error(t, err, "explicit config path must exist")

	cfg, err := resolveArgs(t, nil, "--config", writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, defaultServer, cfg.Server)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.Equal(t, defaultAddr, cfg.Serve.Addr)
	assert.NotEmpty(t, cfg.LogFile)
	assert.Empty(t, cfg.Token)
}

func TestResolveConfig_File(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.yaml", `
server: https://console.example.com
token: file-token
log_level: debug
serve:
  addr: ":9000"
  provider: openai
  model: qwen-plus
  base_url: https://dashscope.example.com/v1
  tokens: [a, b]
`)
	cfg, err := resolveArgs(t, nil, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "https://console.example.com", cfg.Server)
	assert.Equal(t, "file-token", cfg.Token)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	assert.Equal(t, "openai", cfg.Serve.Provider)
	assert.Equal(t, "qwen-plus", cfg.Serve.Model)
	assert.Equal(t, "https://dashscope.example.com/v1", cfg.Serve.BaseURL)
	assert.Equal(t, []string{"a", "b"}, cfg.Serve.Tokens)
}

func TestResolveConfig_Precedence(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.yaml", "server: http://file\ntoken: file-token\nlog_level: warn\n")
	env := map[string]string{
		"PRICECHAT_SERVER": "http://env",
		"PRICECHAT_TOKEN":  "env-token",
		"PRICECHAT_TOKENS": " x, ,y ",
	}

	cfg, err := resolveArgs(t, env, "--config", path, "--server", "http://flag")
	require.NoError(t, err)
	assert.Equal(t, "http://flag", cfg.Server, "flag beats env")
	assert.Equal(t, "env-token", cfg.Token, "env beats file")
	assert.Equal(t, "warn", cfg.LogLevel, "file beats default")
	assert.Equal(t, []string{"x", "y"}, cfg.Serve.Tokens)

	cfg, err = resolveArgs(t, env, "--config", path, "--tokens", "t1,t2")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, cfg.Serve.Tokens)
}

func TestResolveConfig_ConfigPathFromEnv(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "config.yaml", "token: from-env-path\n")
	cfg, err := resolveArgs(t, map[string]string{"PRICECHAT_CONFIG": path})
	require.NoError(t, err)
	assert.Equal(t, "from-env-path", cfg.Token)
}

func TestResolveConfig_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := resolveArgs(t, nil, "--config", writeFile(t, "bad.yaml", "server: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestResolveConfig_SystemPrompt(t *testing.T) {
	t.Parallel()

	empty := writeFile(t, "config.yaml", "")
	prompt := writeFile(t, "prompt.md", "You analyse house prices.")
	cfg, err := resolveArgs(t, nil, "--config", empty, "--system-prompt", prompt)
	require.NoError(t, err)
	assert.Equal(t, "You analyse house prices.", cfg.Serve.SystemPrompt)

	_, err = resolveArgs(t, nil, "--config", empty, "--system-prompt", filepath.Join(t.TempDir(), "missing.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read system prompt")
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList("a, b,,"))
}
