// Package llm talks to a local language-model runtime and adapts it to the
// classifier interface the detection and analysis pipeline consumes. The
// model is an optional collaborator: any failure here degrades to "no
// answer" and never aborts a run.
package llm

import (
	"context"
	"fmt"
)

// Client is the low-level completion interface over a model runtime.
type Client interface {
	// Generate sends a prompt and returns the raw completion text.
	Generate(ctx context.Context, prompt string) (string, error)
	// Available reports whether the runtime is reachable right now.
	Available(ctx context.Context) bool
}

// Config holds model runtime settings.
type Config struct {
	// Provider selects the runtime implementation. Only "ollama" is
	// currently supported.
	Provider string
	// BaseURL is the runtime's HTTP endpoint, e.g. http://localhost:11434.
	BaseURL string
	// Model is the model identifier to generate with.
	Model string
	// Temperature controls sampling randomness. Low values keep
	// classification answers stable across runs.
	Temperature float64
	// MaxTokens caps the completion length.
	MaxTokens int
	// Timeout bounds a single completion request.
	Timeout int
}

// NewClient creates a model runtime client from configuration.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "", "ollama":
		return newOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
