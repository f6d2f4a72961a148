package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/mwiater/nabin/internal/rag/ragtest"
	"github.com/mwiater/nabin/internal/rag/store/sqlite"
)

var errEmbedDown = errors.New("embedder unavailable")

func newTestIndex(t *testing.T, scheme string) (*Index, *ragtest.KeywordEmbedder) {
	t.Helper()
	st, err := sqlite.Open(context.Background(), sqlite.Config{DataDir: t.TempDir(), Collection: "nabin_places"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	emb := &ragtest.KeywordEmbedder{}
	ix := NewIndex(st, emb, scheme, "nabin_places")
	t.Cleanup(func() { _ = ix.Close() })
	return ix, emb
}
