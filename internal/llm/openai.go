package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/digestd/internal/config"
)

var (
	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyPrompt indicates an empty prompt.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// completionTemperature keeps the model conservative; the prompt asks for
// strict JSON and higher temperatures degrade parse rates noticeably.
const completionTemperature = 0.3

// Client is a Provider backed by an OpenAI-compatible chat completion API.
// It works against api.openai.com as well as local gateways (vLLM, Ollama's
// OpenAI endpoint, TEI) that speak the same protocol.
type Client struct {
	model *openai.LLM
	cfg   config.LLMConfig
}

// NewClient creates a completion client from config.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model required", ErrInvalidConfig)
	}

	// Local OpenAI-compatible servers accept any non-empty token
	apiKey := cfg.APIKey.Value()
	if apiKey == "" {
		apiKey = "not-needed"
	}

	model, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	return &Client{model: model, cfg: cfg}, nil
}

// Complete sends the prompt and returns the completion text.
// Transport and API failures are returned unwrapped of any fallback
// semantics; callers decide whether a failure is retryable.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(completionTemperature),
	)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}

	return completion, nil
}
