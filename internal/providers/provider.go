// internal/providers/provider.go

// Package providers defines the interface shared by the generative model
// backends. Each backend turns a system instruction and conversation into
// a single completed answer.
package providers

import (
	"context"
	"errors"
	"time"
)

// Roles used in ChatMessage.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// Request carries everything a backend needs for one generation. The last
// message in Messages is the current user query.
type Request struct {
	Model        string
	SystemPrompt string
	Messages     []ChatMessage
	MaxTokens    int
	Temperature  *float64
}

// Response is a completed generation.
type Response struct {
	Model            string
	Content          string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
}

// Generator is implemented by every generative model backend.
type Generator interface {
	// Name identifies the backend, e.g. "gemini".
	Name() string
	// Generate sends the request and waits for the full answer.
	Generate(ctx context.Context, req Request) (Response, error)
}
