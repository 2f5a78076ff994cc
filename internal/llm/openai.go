package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"marketlens/internal/model"
)

// OpenAIProvider implements the Provider interface for OpenAI models.
type OpenAIProvider struct {
	client *openai.Client
	config model.LLMConfig
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(config model.LLMConfig) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Generate sends one section prompt through the Chat Completions API.
func (p *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (*model.RawInsightResponse, error) {
	chatModel := req.Model
	if chatModel == "" {
		chatModel = p.config.Model
	}
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2000
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resp openai.ChatCompletionResponse
	operation := func() error {
		var err error
		resp, err = p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: chatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
			},
			MaxTokens:   maxTokens,
			Temperature: 0.3, // Focused, factual output
		})
		if err == nil {
			return nil
		}
		// Rate limits and server errors are worth retrying; everything
		// else (auth, bad request, context cancellation) is permanent.
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
				return err
			}
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, &model.ProviderError{Provider: p.Name(), Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &model.ProviderError{Provider: p.Name(), Err: fmt.Errorf("no response choices")}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, &model.ProviderError{Provider: p.Name(), Err: fmt.Errorf("empty response content")}
	}

	return &model.RawInsightResponse{
		Text:       text,
		Model:      chatModel,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
