// Package openai provides a Generator backed by the OpenAI chat completions API.
package openai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/providers"
	"github.com/sashabaranov/go-openai"
)

// Config configures the OpenAI backend.
type Config struct {
	APIKey  string
	BaseURL string // optional, for compatible endpoints
	Timeout time.Duration
}

// Provider implements providers.Generator using go-openai.
type Provider struct {
	client  *openai.Client
	baseURL string
}

// New constructs an OpenAI provider.
func New(cfg Config) *Provider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Provider{client: openai.NewClientWithConfig(config), baseURL: config.BaseURL}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Generate(ctx context.Context, req providers.Request) (providers.Response, error) {
	start := time.Now()
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, msg := range req.Messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == providers.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	completion := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		completion.Temperature = float32(*req.Temperature)
		if completion.Temperature == 0 {
			// go-openai omits a zero temperature from the request body.
			completion.Temperature = math.SmallestNonzeroFloat32
		}
	}
	logging.LogRequest("NABIN->LLM", p.baseURL, req.Model, "generate", completion)

	resp, err := p.client.CreateChatCompletion(ctx, completion)
	if err != nil {
		return providers.Response{}, fmt.Errorf("openai: chat completion failed: %w", err)
	}
	logging.LogRequest("LLM->NABIN", p.baseURL, req.Model, "generate", resp)

	if len(resp.Choices) == 0 {
		return providers.Response{}, fmt.Errorf("openai: %w", providers.ErrEmptyResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return providers.Response{}, fmt.Errorf("openai: %w", providers.ErrEmptyResponse)
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return providers.Response{
		Model:            model,
		Content:          content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Duration:         time.Since(start),
	}, nil
}
