package core

import "context"

// Options controls model behavior; zero-valued fields fall back to the
// client's configured defaults.
type Options struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int
	SystemPrompt    string
}

// Client is a provider-agnostic interface for the single LLM operation the
// documentation agents need: prompt in, text out. Any fault propagates to
// the caller; retry policy lives below this interface.
type Client interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}
