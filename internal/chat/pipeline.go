package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/assistant"
	"github.com/mwiater/nabin/internal/catalog"
	"github.com/mwiater/nabin/internal/credentials"
	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/metrics"
	"github.com/mwiater/nabin/internal/providerfactory"
	"github.com/mwiater/nabin/internal/providers"
	"github.com/mwiater/nabin/internal/rag"
)

// Reply is the outcome of one question.
type Reply struct {
	Answer  string              `json:"answer"`
	Result  rag.RetrievalResult `json:"result"`
	Context string              `json:"context"`
}

// Pipeline runs search, context assembly and generation for a session.
// It holds the shared index handle and is safe for concurrent use.
type Pipeline struct {
	index      *rag.Index
	retriever  *rag.Retriever
	assistant  *assistant.Assistant
	sources    []string
	collectors *metrics.Collectors
}

// NewPipeline wires the pipeline stages. collectors may be nil.
func NewPipeline(ix *rag.Index, retriever *rag.Retriever, a *assistant.Assistant, sources []string, collectors *metrics.Collectors) *Pipeline {
	return &Pipeline{
		index:      ix,
		retriever:  retriever,
		assistant:  a,
		sources:    append([]string(nil), sources...),
		collectors: collectors,
	}
}

// Open builds a pipeline over the shared index from configuration using an
// already resolved credential. The caller keeps ownership of ix.
func Open(cfg *appconfig.Config, ix *rag.Index, cred credentials.Credential) (*Pipeline, error) {
	if ix == nil {
		return nil, fmt.Errorf("index is nil")
	}
	generator, err := providerfactory.NewGenerator(cfg, cred.Key)
	if err != nil {
		return nil, err
	}
	var collectors *metrics.Collectors
	if cfg.Metrics {
		collectors = metrics.Default()
	}
	a := assistant.New(generator, cred, assistant.OptionsFromConfig(cfg))
	return NewPipeline(ix, rag.NewRetriever(ix, cfg.TopKOrDefault()), a, cfg.Sources(), collectors), nil
}

// Assistant exposes the answer generator.
func (p *Pipeline) Assistant() *assistant.Assistant { return p.assistant }

// Index exposes the shared index handle.
func (p *Pipeline) Index() *rag.Index { return p.index }

// Ask records query in the session and answers it. The user turn is only
// recorded once a credential is available; on a later failure it stays and
// no assistant turn is added.
func (p *Pipeline) Ask(ctx context.Context, s *Session, query string) (Reply, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Reply{}, rag.ErrEmptyQuery
	}
	if !p.assistant.Ready() {
		return Reply{}, assistant.ErrMissingCredential
	}

	history := s.history()
	s.append(providers.RoleUser, query)

	result, err := p.Search(ctx, query, 0)
	if err != nil {
		return Reply{}, err
	}
	s.setLastResult(result)

	reply := Reply{Result: result, Context: rag.Assemble(result)}
	answer, err := p.assistant.Generate(ctx, query, reply.Context, history)
	if err != nil {
		logging.LogError(err, "[CHAT] session %s: generation failed", s.ID())
		return reply, err
	}
	s.append(providers.RoleAssistant, answer)
	reply.Answer = answer
	return reply, nil
}

// Search runs a retrieval and records it in metrics.
func (p *Pipeline) Search(ctx context.Context, query string, k int) (rag.RetrievalResult, error) {
	result, err := p.retriever.Search(ctx, query, k)
	p.collectors.ObserveQuery(len(result.Hits), err)
	return result, err
}

// Reindex reloads the configured catalog sources into the index.
func (p *Pipeline) Reindex(ctx context.Context) (int, string) {
	n, msg := rag.ReindexResult(ctx, p.index, p.sources)
	var err error
	if msg != catalog.SuccessMessage {
		err = errors.New(msg)
	}
	p.collectors.ObserveReindex(n, err)
	return n, msg
}

// Close releases the index.
func (p *Pipeline) Close() error {
	return p.index.Close()
}
