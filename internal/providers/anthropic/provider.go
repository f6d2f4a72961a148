// Package anthropic provides a Generator backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/providers"
)

const defaultMaxTokens = 1024

// Config configures the Anthropic backend.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// Provider implements providers.Generator using anthropic-sdk-go.
type Provider struct {
	client  anthropic.Client
	baseURL string
}

// New constructs an Anthropic provider.
func New(cfg Config) *Provider {
	options := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		options = append(options, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Provider{client: anthropic.NewClient(options...), baseURL: cfg.BaseURL}
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Generate(ctx context.Context, req providers.Request) (providers.Response, error) {
	start := time.Now()
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == providers.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	logging.LogRequest("NABIN->LLM", p.baseURL, req.Model, "generate", map[string]any{
		"model":      req.Model,
		"system":     req.SystemPrompt,
		"messages":   req.Messages,
		"max_tokens": maxTokens,
	})

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return providers.Response{}, fmt.Errorf("anthropic: messages request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(text.String())
	logging.LogRequest("LLM->NABIN", p.baseURL, req.Model, "generate", content)
	if content == "" {
		return providers.Response{}, fmt.Errorf("anthropic: %w", providers.ErrEmptyResponse)
	}

	model := string(msg.Model)
	if model == "" {
		model = req.Model
	}
	return providers.Response{
		Model:            model,
		Content:          content,
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
		Duration:         time.Since(start),
	}, nil
}
