// internal/providers/ollama/provider.go
// Package ollama provides a Generator backed by Ollama-compatible HTTP endpoints.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/providers"
)

// DefaultURL is the local Ollama server address.
const DefaultURL = "http://localhost:11434"

// Provider implements providers.Generator using the Ollama /api/chat endpoint.
type Provider struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// New constructs a Provider for the Ollama host at baseURL.
func New(baseURL string, timeout time.Duration) *Provider {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		baseURL: baseURL,
		timeout: timeout,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the non-streaming /api/chat reply.
type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`

	TotalDuration   int64 `json:"total_duration"`
	PromptEvalCount int   `json:"prompt_eval_count"`
	EvalCount       int   `json:"eval_count"`
}

func (p *Provider) Name() string { return "ollama" }

// Generate issues a non-streaming chat request.
func (p *Provider) Generate(ctx context.Context, req providers.Request) (providers.Response, error) {
	start := time.Now()
	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	payload := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"options":  buildOptions(req),
		"stream":   false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Response{}, err
	}

	if pretty, perr := json.MarshalIndent(payload, "", "  "); perr == nil {
		logging.LogRequest("NABIN->LLM", p.baseURL, req.Model, "generate", pretty)
	} else {
		logging.LogRequest("NABIN->LLM", p.baseURL, req.Model, "generate", body)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return providers.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.Response{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Response{}, err
	}
	logging.LogRequest("LLM->NABIN", p.baseURL, req.Model, "generate", raw)

	if resp.StatusCode != http.StatusOK {
		return providers.Response{}, fmt.Errorf("ollama: /api/chat returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var result chatResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return providers.Response{}, fmt.Errorf("ollama: parse chat response: %w", err)
	}
	content := strings.TrimSpace(result.Message.Content)
	if content == "" {
		return providers.Response{}, fmt.Errorf("ollama: %w", providers.ErrEmptyResponse)
	}

	model := result.Model
	if model == "" {
		model = req.Model
	}
	return providers.Response{
		Model:            model,
		Content:          content,
		PromptTokens:     result.PromptEvalCount,
		CompletionTokens: result.EvalCount,
		Duration:         time.Since(start),
	}, nil
}

func buildOptions(req providers.Request) map[string]any {
	options := map[string]any{}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	return options
}
