// Package assistant turns a query and its retrieved venue context into a
// persona answer from a generative model.
package assistant

import (
	"context"
	"strings"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/credentials"
	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/providers"
)

// Options tune the generation request.
type Options struct {
	Persona     Persona
	Model       string
	MaxTokens   int
	Temperature *float64
	// ThreadHistory sends prior turns before the query. Off by default so
	// each answer is grounded only in the current retrieval.
	ThreadHistory bool
}

// OptionsFromConfig maps the generation and persona config onto Options.
func OptionsFromConfig(cfg *appconfig.Config) Options {
	return Options{
		Persona: Persona{
			AssistantName: cfg.AssistantName(),
			UserName:      cfg.UserName(),
		},
		Model:         cfg.GenerationModel(),
		MaxTokens:     cfg.MaxTokensOrDefault(),
		Temperature:   cfg.Generation.Temperature,
		ThreadHistory: cfg.Generation.ThreadHistory,
	}
}

// Assistant produces answers through one generation backend.
type Assistant struct {
	generator  providers.Generator
	credential credentials.Credential
	opts       Options
}

// New builds an Assistant. cred may be empty for backends that need no key.
func New(generator providers.Generator, cred credentials.Credential, opts Options) *Assistant {
	return &Assistant{generator: generator, credential: cred, opts: opts}
}

// Ready reports whether Generate can reach the backend without ErrMissingCredential.
func (a *Assistant) Ready() bool {
	return a.generator != nil && (a.credential.Present() || !credentials.Required(a.generator.Name()))
}

// Credential returns the credential in use.
func (a *Assistant) Credential() credentials.Credential {
	return a.credential
}

// Provider names the generation backend.
func (a *Assistant) Provider() string {
	if a.generator == nil {
		return ""
	}
	return a.generator.Name()
}

// Generate answers query using assembledContext as the only venue list.
// history holds earlier turns, oldest first; it is sent only when
// ThreadHistory is enabled.
func (a *Assistant) Generate(ctx context.Context, query, assembledContext string, history []providers.ChatMessage) (string, error) {
	if !a.Ready() {
		return "", ErrMissingCredential
	}

	req := providers.Request{
		Model:        a.opts.Model,
		SystemPrompt: SystemInstruction(a.opts.Persona, assembledContext),
		MaxTokens:    a.opts.MaxTokens,
		Temperature:  a.opts.Temperature,
	}
	if a.opts.ThreadHistory {
		for _, msg := range history {
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
			// The conversation sent to a provider must open with a user turn.
			if len(req.Messages) == 0 && msg.Role != providers.RoleUser {
				continue
			}
			req.Messages = append(req.Messages, msg)
		}
	}
	req.Messages = append(req.Messages, providers.ChatMessage{Role: providers.RoleUser, Content: query})

	logging.LogEvent("[ASSISTANT] Generating with %s (%s), %d messages, empty context: %t",
		a.generator.Name(), a.opts.Model, len(req.Messages), strings.TrimSpace(assembledContext) == "")

	resp, err := a.generator.Generate(ctx, req)
	if err != nil {
		return "", &ProviderError{Provider: a.generator.Name(), Err: err}
	}
	answer := strings.TrimSpace(resp.Content)
	if answer == "" {
		return "", &ProviderError{Provider: a.generator.Name(), Err: providers.ErrEmptyResponse}
	}
	return answer, nil
}
