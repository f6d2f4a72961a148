package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/catalog"
	"github.com/mwiater/nabin/internal/logging"
	"github.com/mwiater/nabin/internal/rag/store"
)

// Index is the long-lived handle over the vector store and its embedder.
// It is opened once per process and shared by every consumer.
type Index struct {
	store      store.VectorStore
	embedder   Embedder
	scheme     string
	collection string
}

// NewIndex wraps an opened store and embedder.
func NewIndex(st store.VectorStore, embedder Embedder, scheme, collection string) *Index {
	if scheme != appconfig.IDSchemeContent {
		scheme = appconfig.IDSchemeOrdinal
	}
	return &Index{store: st, embedder: embedder, scheme: scheme, collection: collection}
}

// Reindex embeds records and upserts them in one batch. It returns the
// number of records indexed. With the content id scheme, documents no
// longer produced by the catalog are removed afterwards.
func (ix *Index) Reindex(ctx context.Context, records []catalog.VenueRecord) (int, error) {
	if len(records) == 0 {
		return 0, catalog.ErrNoData
	}

	start := time.Now()
	docs := BuildDocuments(records, ix.scheme)
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}
	for i := range docs {
		docs[i].Embedding = vectors[i]
	}

	if err := ix.store.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("upsert documents: %w", err)
	}

	if ix.scheme == appconfig.IDSchemeContent {
		pruned, err := ix.pruneStale(ctx, docs)
		if err != nil {
			return 0, err
		}
		if pruned > 0 {
			logging.LogEvent("[RAG] Pruned %d stale documents", pruned)
		}
	}

	logging.LogEvent("[RAG] Indexed %d places (%d documents) with %s in %s",
		len(records), len(docs), ix.embedder.Name(), time.Since(start).Truncate(time.Millisecond))
	return len(records), nil
}

func (ix *Index) pruneStale(ctx context.Context, docs []store.Document) (int, error) {
	existing, err := ix.store.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list indexed ids: %w", err)
	}
	current := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		current[doc.ID] = struct{}{}
	}
	var stale []string
	for _, id := range existing {
		if _, ok := current[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := ix.store.Delete(ctx, stale); err != nil {
		return 0, fmt.Errorf("delete stale documents: %w", err)
	}
	return len(stale), nil
}

// Stats reports the number of indexed documents and the backends in use.
func (ix *Index) Stats(ctx context.Context) (Stats, error) {
	n, err := ix.store.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Documents:  n,
		Store:      ix.store.Name(),
		Embedder:   ix.embedder.Name(),
		Collection: ix.collection,
		IDScheme:   ix.scheme,
	}, nil
}

func (ix *Index) Close() error {
	return ix.store.Close()
}

// ReindexResult loads the catalog from sources and reindexes it, reporting
// the outcome as a count and status message. Failures yield a zero count.
// A malformed catalog leaves the store untouched.
func ReindexResult(ctx context.Context, ix *Index, sources []string) (int, string) {
	records, err := catalog.Load(sources)
	if err != nil {
		if errors.Is(err, catalog.ErrNoData) {
			logging.LogEvent("[RAG] Reindex skipped: %v", err)
		} else {
			logging.LogError(err, "[RAG] Reindex failed while loading catalog")
		}
		return 0, err.Error()
	}
	n, err := ix.Reindex(ctx, records)
	if err != nil {
		logging.LogError(err, "[RAG] Reindex failed")
		return 0, err.Error()
	}
	return n, catalog.SuccessMessage
}
