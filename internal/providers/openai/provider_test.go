package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mwiater/nabin/internal/providers"
)

func TestGenerateSendsSystemPromptAndHistory(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens int `json:"max_tokens"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini-2024-07-18",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": " Cafe Lotus nha anh "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 30, "completion_tokens": 5, "total_tokens": 35}
		}`))
	}))
	defer server.Close()

	p := New(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1", Timeout: 5 * time.Second})
	resp, err := p.Generate(context.Background(), providers.Request{
		Model:        "gpt-4o-mini",
		SystemPrompt: "system",
		Messages: []providers.ChatMessage{
			{Role: providers.RoleAssistant, Content: "earlier"},
			{Role: providers.RoleUser, Content: "quiet cafe"},
		},
		MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content != "Cafe Lotus nha anh" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if resp.PromptTokens != 30 || resp.CompletionTokens != 5 {
		t.Fatalf("unexpected usage %+v", resp)
	}

	if captured.Model != "gpt-4o-mini" || captured.MaxTokens != 100 {
		t.Fatalf("unexpected request %+v", captured)
	}
	if len(captured.Messages) != 3 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "assistant" || captured.Messages[2].Content != "quiet cafe" {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	p := New(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1", Timeout: time.Second})
	_, err := p.Generate(context.Background(), providers.Request{Model: "gpt-4o-mini", Messages: []providers.ChatMessage{{Role: "user", Content: "hi"}}})
	if !errors.Is(err, providers.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	p := New(Config{APIKey: "bad", BaseURL: server.URL + "/v1", Timeout: time.Second})
	if _, err := p.Generate(context.Background(), providers.Request{Model: "gpt-4o-mini"}); err == nil {
		t.Fatal("expected error for unauthorized response")
	}
}

func TestGenerateSendsZeroTemperature(t *testing.T) {
	var body map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	defer server.Close()

	zero := 0.0
	p := New(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1", Timeout: time.Second})
	_, err := p.Generate(context.Background(), providers.Request{
		Model:       "gpt-4o-mini",
		Messages:    []providers.ChatMessage{{Role: providers.RoleUser, Content: "hi"}},
		Temperature: &zero,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	raw, ok := body["temperature"]
	if !ok {
		t.Fatalf("expected temperature in request body, got %v", body)
	}
	var temp float64
	if err := json.Unmarshal(raw, &temp); err != nil || temp < 0 || temp > 1e-6 {
		t.Fatalf("temperature = %s, want effectively zero", raw)
	}
}

func TestGenerateOmitsUnsetTemperature(t *testing.T) {
	var body map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	defer server.Close()

	p := New(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1", Timeout: time.Second})
	if _, err := p.Generate(context.Background(), providers.Request{
		Model:    "gpt-4o-mini",
		Messages: []providers.ChatMessage{{Role: providers.RoleUser, Content: "hi"}},
	}); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if _, ok := body["temperature"]; ok {
		t.Fatalf("unset temperature should be omitted, got %s", body["temperature"])
	}
}
