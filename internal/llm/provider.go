// Package llm provides text completion via langchaingo.
//
// The digest builder only needs a single capability from the inference
// service: send a prompt, get a completion back within a token budget. The
// Provider interface captures exactly that so tests can substitute doubles.
package llm

import "context"

// Provider is the completion capability consumed by the digest builder.
type Provider interface {
	// Complete sends a prompt and returns the raw completion text.
	// maxTokens bounds the output size; there is no input-side truncation.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}
