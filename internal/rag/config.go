package rag

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/credentials"
	"github.com/mwiater/nabin/internal/rag/store"
	"github.com/mwiater/nabin/internal/rag/store/pgvector"
	"github.com/mwiater/nabin/internal/rag/store/sqlite"
)

// NewEmbedder builds the embedder selected by cfg.
func NewEmbedder(cfg *appconfig.Config) (Embedder, error) {
	switch cfg.EmbeddingProvider() {
	case "ollama":
		return NewOllamaEmbedder(cfg.Embedding.URL, cfg.EmbeddingModel(), cfg.RequestTimeout(), cfg.EmbeddingConcurrency()), nil
	case "openai":
		return NewOpenAIEmbedder(credentials.EmbeddingKey(cfg), cfg.Embedding.URL, cfg.EmbeddingModel())
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.EmbeddingProvider())
	}
}

// OpenStore opens the vector store selected by cfg.
func OpenStore(ctx context.Context, cfg *appconfig.Config) (store.VectorStore, error) {
	switch cfg.StoreBackend() {
	case appconfig.StoreSQLite:
		return sqlite.Open(ctx, sqlite.Config{
			DataDir:    filepath.Clean(cfg.DataDirectory()),
			Collection: cfg.CollectionName(),
		})
	case appconfig.StorePGVector:
		return pgvector.Open(ctx, pgvector.Config{
			DSN:        cfg.PostgresDSN,
			Collection: cfg.CollectionName(),
		})
	default:
		return nil, fmt.Errorf("unsupported store %q", cfg.Store)
	}
}

// OpenIndex opens the store and embedder described by cfg.
func OpenIndex(ctx context.Context, cfg *appconfig.Config) (*Index, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewIndex(st, embedder, cfg.DocumentIDScheme(), cfg.CollectionName()), nil
}
