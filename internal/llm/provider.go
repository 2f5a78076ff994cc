package llm

import (
	"context"

	"marketlens/internal/model"
)

// Provider defines the interface for generative-text providers. The
// assembler is the only component aware a provider exists; everything
// else operates on materialized data structures.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Generate sends one bounded prompt and returns the raw response.
	Generate(ctx context.Context, req GenerateRequest) (*model.RawInsightResponse, error)

	// IsAvailable checks if the provider is properly configured and
	// reachable.
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest is the input for one generation call.
type GenerateRequest struct {
	// Prompt is the bounded summary-plus-instruction text.
	Prompt string

	// Model overrides the configured model when set.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// systemPrompt frames every request the same way, regardless of
// provider.
const systemPrompt = "You are a senior market intelligence analyst with deep experience in mobile apps and digital markets. Respond only with the requested JSON."
