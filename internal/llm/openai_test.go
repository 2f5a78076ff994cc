package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"marketlens/internal/model"
)

func openAIResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:     "chatcmpl-123",
		Object: "chat.completion",
		Model:  "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: openai.Usage{TotalTokens: 100},
	}
}

func TestOpenAIProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(openAIResponse(`{"market_trends": {}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "analyze"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Text != `{"market_trends": {}}` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("Unexpected model: %s", resp.Model)
	}
	if resp.TokensUsed != 100 {
		t.Errorf("Unexpected token usage: %d", resp.TokensUsed)
	}
}

func TestOpenAIProvider_Generate_RetriesRateLimit(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openAIResponse("recovered"))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 10,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "analyze"})
	if err != nil {
		t.Fatalf("Expected retry to succeed, got %v", err)
	}
	if resp.Text != "recovered" {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if requests.Load() != 2 {
		t.Errorf("Expected 2 requests (one retry), got %d", requests.Load())
	}
}

func TestOpenAIProvider_Generate_AuthErrorNotRetried(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid API key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(model.LLMConfig{
		APIKey:  "bad-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "analyze"}); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if requests.Load() != 1 {
		t.Errorf("Expected exactly 1 request for an auth error, got %d", requests.Load())
	}
}

func TestOpenAIProvider_Generate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ID: "chatcmpl-123"})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "analyze"}); err == nil {
		t.Fatal("Expected error for empty choices, got nil")
	}
}

func TestOpenAIProvider_Generate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openAIResponse("   "))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(model.LLMConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if _, err := provider.Generate(context.Background(), GenerateRequest{Prompt: "analyze"}); err == nil {
		t.Fatal("Expected error for empty content, got nil")
	}
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIProvider(model.LLMConfig{}); err == nil {
		t.Fatal("Expected error without API key")
	}
}
