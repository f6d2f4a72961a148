package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mwiater/nabin/internal/providers"
)

func TestGenerateSendsSystemAndReadsText(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "sk-ant-test" {
			t.Errorf("unexpected api key header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-20241022",
			"content": [{"type": "text", "text": "Anh thử Cafe Lotus nha"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 20, "output_tokens": 8}
		}`))
	}))
	defer server.Close()

	p := New(Config{APIKey: "sk-ant-test", BaseURL: server.URL, Timeout: 5 * time.Second})
	resp, err := p.Generate(context.Background(), providers.Request{
		Model:        "claude-3-5-haiku-latest",
		SystemPrompt: "Bạn là NABIN",
		Messages:     []providers.ChatMessage{{Role: providers.RoleUser, Content: "quiet cafe"}},
		MaxTokens:    200,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Content != "Anh thử Cafe Lotus nha" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if resp.PromptTokens != 20 || resp.CompletionTokens != 8 {
		t.Fatalf("unexpected usage %+v", resp)
	}

	if captured["model"] != "claude-3-5-haiku-latest" {
		t.Fatalf("unexpected model %v", captured["model"])
	}
	if captured["max_tokens"].(float64) != 200 {
		t.Fatalf("unexpected max_tokens %v", captured["max_tokens"])
	}
	system, ok := captured["system"].([]any)
	if !ok || len(system) != 1 {
		t.Fatalf("expected one system block, got %v", captured["system"])
	}
	if system[0].(map[string]any)["text"] != "Bạn là NABIN" {
		t.Fatalf("unexpected system block %v", system[0])
	}
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer server.Close()

	p := New(Config{APIKey: "bad", BaseURL: server.URL, Timeout: time.Second})
	if _, err := p.Generate(context.Background(), providers.Request{Model: "claude-3-5-haiku-latest"}); err == nil {
		t.Fatal("expected error for unauthorized response")
	}
}
