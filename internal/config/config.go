// Package config provides configuration loading for digestd.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for digestd.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	LLM      LLMConfig      `koanf:"llm"`
	Slack    SlackConfig    `koanf:"slack"`
	Temporal TemporalConfig `koanf:"temporal"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// LLMConfig holds inference endpoint settings.
//
// BaseURL accepts any OpenAI-compatible completion endpoint
// (api.openai.com, a local vLLM/Ollama gateway, etc.).
type LLMConfig struct {
	BaseURL   string `koanf:"base_url"`
	Model     string `koanf:"model"`
	APIKey    Secret `koanf:"api_key"`
	MaxTokens int    `koanf:"max_tokens"`
}

// SlackConfig holds delivery settings for the digest notification.
// Delivery is disabled when the webhook URL is unset.
type SlackConfig struct {
	WebhookURL Secret `koanf:"webhook_url"`
}

// TemporalConfig holds durable-execution substrate settings.
type TemporalConfig struct {
	HostPort     string `koanf:"host_port"`
	Namespace    string `koanf:"namespace"`
	TaskQueue    string `koanf:"task_queue"`
	CronSchedule string `koanf:"cron_schedule"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm base_url is required")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.Temporal.HostPort == "" {
		return fmt.Errorf("temporal host_port is required")
	}
	if c.Temporal.TaskQueue == "" {
		return fmt.Errorf("temporal task_queue is required")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/digestd.db"
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1500
	}

	if cfg.Temporal.HostPort == "" {
		cfg.Temporal.HostPort = "localhost:7233"
	}
	if cfg.Temporal.Namespace == "" {
		cfg.Temporal.Namespace = "default"
	}
	if cfg.Temporal.TaskQueue == "" {
		cfg.Temporal.TaskQueue = "daily-digest-queue"
	}
	if cfg.Temporal.CronSchedule == "" {
		cfg.Temporal.CronSchedule = "0 9 * * *"
	}
}
