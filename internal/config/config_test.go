package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithFile_Defaults(t *testing.T) {
	// Nonexistent file falls through to defaults + env
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "data/digestd.db", cfg.Database.Path)
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 1500, cfg.LLM.MaxTokens)
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "daily-digest-queue", cfg.Temporal.TaskQueue)
	assert.Equal(t, "0 9 * * *", cfg.Temporal.CronSchedule)
}

func TestLoadWithFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9999
  shutdown_timeout: 30s
database:
  path: /tmp/test-digests.db
llm:
  model: gpt-4o
  max_tokens: 800
temporal:
  task_queue: custom-queue
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "/tmp/test-digests.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, "custom-queue", cfg.Temporal.TaskQueue)
}

func TestLoadWithFile_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0600))

	t.Setenv("SERVER_PORT", "7777")
	t.Setenv("LLM_API_KEY", "sk-test-key")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port, "env var should override YAML")
	assert.Equal(t, "sk-test-key", cfg.LLM.APIKey.Value())
}

func TestLoadWithFile_RejectsInsecurePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0644))

	_, err := LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("valid defaults", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing database path", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Path = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.Model = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive max tokens", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.MaxTokens = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing task queue", func(t *testing.T) {
		cfg := valid()
		cfg.Temporal.TaskQueue = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("super-secret-value")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "super-secret-value", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	empty := Secret("")
	assert.False(t, empty.IsSet())
	assert.Equal(t, "", empty.String())
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")), "negative durations are rejected")
	assert.Error(t, d.UnmarshalText([]byte("not-a-duration")))

	text, err := Duration(time.Minute).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m0s", string(text))
}
