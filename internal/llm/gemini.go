package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"marketlens/internal/model"
)

// GeminiProvider implements the Provider interface for Google's Gemini
// API over plain HTTP.
type GeminiProvider struct {
	baseURL    string
	httpClient *http.Client
	config     model.LLMConfig
}

// Gemini API structures
type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(config model.LLMConfig) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &GeminiProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
	}, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if the API answers a model listing request.
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/v1beta/models?key=%s", p.baseURL, p.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Generate sends one section prompt through generateContent.
func (p *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (*model.RawInsightResponse, error) {
	genModel := req.Model
	if genModel == "" {
		genModel = p.config.Model
	}
	if genModel == "" {
		genModel = "gemini-pro"
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: req.Prompt}}},
		},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.3,
			MaxOutputTokens: maxTokens,
		},
	})
	if err != nil {
		return nil, &model.ProviderError{Provider: p.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, genModel, p.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &model.ProviderError{Provider: p.Name(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &model.ProviderError{Provider: p.Name(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.ProviderError{Provider: p.Name(), Err: fmt.Errorf("read response: %w", err)}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &model.ProviderError{Provider: p.Name(), Err: fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)}
	}
	if parsed.Error != nil {
		return nil, &model.ProviderError{Provider: p.Name(), Err: fmt.Errorf("API error %d: %s", parsed.Error.Code, parsed.Error.Message)}
	}
	if len(parsed.Candidates) == 0 {
		return nil, &model.ProviderError{Provider: p.Name(), Err: fmt.Errorf("no candidates in response (HTTP %d)", resp.StatusCode)}
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return nil, &model.ProviderError{Provider: p.Name(), Err: fmt.Errorf("empty response content")}
	}

	return &model.RawInsightResponse{
		Text:       out,
		Model:      genModel,
		TokensUsed: parsed.UsageMetadata.TotalTokenCount,
	}, nil
}
