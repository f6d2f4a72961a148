package rag

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mwiater/nabin/internal/logging"
)

// RunPreview searches for query and prints each hit and the assembled context.
func RunPreview(ctx context.Context, out io.Writer, r *Retriever, query string, k int) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return ErrEmptyQuery
	}

	status := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		logging.LogEvent("%s", msg)
		fmt.Fprintln(out, msg)
	}

	stats, err := r.index.Stats(ctx)
	if err != nil {
		return err
	}
	status("[RAG] Preview query: %s", query)
	status("[RAG] store: %s (%s, %d documents)", stats.Store, stats.Collection, stats.Documents)
	status("[RAG] embedder: %s", stats.Embedder)

	result, err := r.Search(ctx, query, k)
	if err != nil {
		return err
	}

	assembled := Assemble(result)
	status("[RAG] retrieval_ms: %d", result.RetrievalMs)
	status("[RAG] context_tokens: %d", CountTokens(assembled))
	status("[RAG] hits: %d", len(result.Hits))

	for i, hit := range result.Hits {
		status("[RAG] hit %d distance=%.6f id=%s name=%s map=%s", i+1, hit.Distance, hit.ID, hit.Metadata.Name, hit.Metadata.Map)
		status("[RAG] hit %d text: %s", i+1, hit.Text)
	}

	if assembled != "" {
		status("[RAG] context:\n%s", assembled)
	}
	return nil
}
