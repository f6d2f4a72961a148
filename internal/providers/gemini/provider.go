// Package gemini provides a Generator backed by the Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/providers"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultBaseURL is the public Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config configures the Gemini backend.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Provider implements providers.Generator for Gemini.
type Provider struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// New constructs a Gemini provider.
func New(cfg Config) *Provider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
	}
}

func (p *Provider) Name() string { return "gemini" }

// Generate calls models/{model}:generateContent and concatenates the text
// parts of the first candidate.
func (p *Provider) Generate(ctx context.Context, req providers.Request) (providers.Response, error) {
	start := time.Now()
	body, err := buildPayload(req)
	if err != nil {
		return providers.Response{}, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, req.Model)
	logging.LogRequest("NABIN->LLM", p.baseURL, req.Model, "generate", body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return providers.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

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
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return providers.Response{}, fmt.Errorf("gemini: generateContent returned %s: %s", resp.Status, msg)
	}

	if reason := gjson.GetBytes(raw, "promptFeedback.blockReason").String(); reason != "" {
		return providers.Response{}, fmt.Errorf("gemini: prompt blocked: %s", reason)
	}

	var text strings.Builder
	gjson.GetBytes(raw, "candidates.0.content.parts").ForEach(func(_, part gjson.Result) bool {
		if part.Get("thought").Bool() {
			return true
		}
		text.WriteString(part.Get("text").String())
		return true
	})
	content := strings.TrimSpace(text.String())
	if content == "" {
		if finish := gjson.GetBytes(raw, "candidates.0.finishReason").String(); finish != "" {
			return providers.Response{}, fmt.Errorf("gemini: %w (finish reason %s)", providers.ErrEmptyResponse, finish)
		}
		return providers.Response{}, fmt.Errorf("gemini: %w", providers.ErrEmptyResponse)
	}

	model := gjson.GetBytes(raw, "modelVersion").String()
	if model == "" {
		model = req.Model
	}
	return providers.Response{
		Model:            model,
		Content:          content,
		PromptTokens:     int(gjson.GetBytes(raw, "usageMetadata.promptTokenCount").Int()),
		CompletionTokens: int(gjson.GetBytes(raw, "usageMetadata.candidatesTokenCount").Int()),
		Duration:         time.Since(start),
	}, nil
}

func buildPayload(req providers.Request) ([]byte, error) {
	payload := []byte(`{}`)
	var err error
	if strings.TrimSpace(req.SystemPrompt) != "" {
		if payload, err = sjson.SetBytes(payload, "systemInstruction.parts.0.text", req.SystemPrompt); err != nil {
			return nil, fmt.Errorf("gemini: build payload: %w", err)
		}
	}
	for i, msg := range req.Messages {
		role := "user"
		if msg.Role == providers.RoleAssistant {
			role = "model"
		}
		if payload, err = sjson.SetBytes(payload, fmt.Sprintf("contents.%d.role", i), role); err != nil {
			return nil, fmt.Errorf("gemini: build payload: %w", err)
		}
		if payload, err = sjson.SetBytes(payload, fmt.Sprintf("contents.%d.parts.0.text", i), msg.Content); err != nil {
			return nil, fmt.Errorf("gemini: build payload: %w", err)
		}
	}
	if req.MaxTokens > 0 {
		if payload, err = sjson.SetBytes(payload, "generationConfig.maxOutputTokens", req.MaxTokens); err != nil {
			return nil, fmt.Errorf("gemini: build payload: %w", err)
		}
	}
	if req.Temperature != nil {
		if payload, err = sjson.SetBytes(payload, "generationConfig.temperature", *req.Temperature); err != nil {
			return nil, fmt.Errorf("gemini: build payload: %w", err)
		}
	}
	return payload, nil
}
