package llm

import (
	"fmt"
	"strings"

	"marketlens/internal/model"
)

// NewProvider creates a generative-text provider from configuration.
// An empty provider name means generation is disabled; the pipeline
// then produces degraded bundles from statistics alone.
func NewProvider(config model.LLMConfig) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, gemini)", config.Provider)
	}
}
