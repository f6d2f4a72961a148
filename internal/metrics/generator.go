// internal/metrics/generator.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/providers"
)

// Generator is a decorator that wraps a providers.Generator to record metrics.
type Generator struct {
	wrapped    providers.Generator
	aggregator *Aggregator
	collectors *Collectors
}

// NewGenerator creates a metrics-enabled generator. Either sink may be nil.
func NewGenerator(wrapped providers.Generator, aggregator *Aggregator, collectors *Collectors) *Generator {
	logging.LogEvent("[METRICS] Wrapping %s generator with metrics", wrapped.Name())
	return &Generator{wrapped: wrapped, aggregator: aggregator, collectors: collectors}
}

// Name passes the call through to the wrapped generator.
func (g *Generator) Name() string {
	return g.wrapped.Name()
}

// Generate times the wrapped call and records the outcome.
func (g *Generator) Generate(ctx context.Context, req providers.Request) (providers.Response, error) {
	start := time.Now()
	resp, err := g.wrapped.Generate(ctx, req)
	elapsed := time.Since(start)
	if resp.Duration == 0 {
		resp.Duration = elapsed
	}

	g.collectors.ObserveGeneration(g.wrapped.Name(), elapsed, resp.PromptTokens, resp.CompletionTokens, err)
	if err != nil || g.aggregator == nil {
		return resp, err
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	g.aggregator.Record(g.wrapped.Name(), model, resp)
	return resp, nil
}
