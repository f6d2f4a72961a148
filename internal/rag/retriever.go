package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/mwiater/nabin/internal/catalog"
)

// DefaultTopK is the number of venues returned when no k is given.
const DefaultTopK = 3

// Retriever finds the venues closest to a free-text query.
type Retriever struct {
	index *Index
	topK  int
}

// NewRetriever returns a retriever over ix. topK <= 0 selects DefaultTopK.
func NewRetriever(ix *Index, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{index: ix, topK: topK}
}

// Search embeds query and returns up to k nearest venues by ascending
// distance. An empty index yields an empty result.
func (r *Retriever) Search(ctx context.Context, query string, k int) (RetrievalResult, error) {
	start := time.Now()
	query = catalog.Normalize(query)
	if query == "" {
		return RetrievalResult{}, ErrEmptyQuery
	}
	if k <= 0 {
		k = r.topK
	}

	result := RetrievalResult{Query: query}
	n, err := r.index.store.Count(ctx)
	if err != nil {
		return RetrievalResult{}, fmt.Errorf("count indexed documents: %w", err)
	}
	if n == 0 {
		result.RetrievalMs = int(time.Since(start) / time.Millisecond)
		return result, nil
	}

	vectors, err := r.index.embedder.Embed(ctx, []string{query})
	if err != nil {
		return RetrievalResult{}, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return RetrievalResult{}, fmt.Errorf("embedder returned %d vectors for query", len(vectors))
	}

	hits, err := r.index.store.Query(ctx, vectors[0], k)
	if err != nil {
		return RetrievalResult{}, fmt.Errorf("query index: %w", err)
	}
	result.Hits = hits
	result.RetrievalMs = int(time.Since(start) / time.Millisecond)
	return result, nil
}
