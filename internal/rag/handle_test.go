package rag

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/rag/ragtest"
	"github.com/mwiater/nabin/internal/rag/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleOpensOnce(t *testing.T) {
	dir := t.TempDir()
	var opens atomic.Int32
	h := NewHandleFunc(func(ctx context.Context) (*Index, error) {
		opens.Add(1)
		st, err := sqlite.Open(ctx, sqlite.Config{DataDir: dir, Collection: "nabin_places"})
		if err != nil {
			return nil, err
		}
		return NewIndex(st, &ragtest.KeywordEmbedder{}, appconfig.IDSchemeOrdinal, "nabin_places"), nil
	})

	var wg sync.WaitGroup
	got := make([]*Index, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ix, err := h.Index(context.Background())
			assert.NoError(t, err)
			got[i] = ix
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
	for _, ix := range got {
		assert.Same(t, got[0], ix)
	}

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	_, err := h.Index(context.Background())
	assert.ErrorIs(t, err, ErrIndexClosed)
	assert.Equal(t, int32(1), opens.Load())
}

func TestHandleFromConfig(t *testing.T) {
	cfg := &appconfig.Config{DataDir: filepath.Join(t.TempDir(), "db")}
	h := NewHandle(cfg)
	t.Cleanup(func() { _ = h.Close() })

	ix, err := h.Index(context.Background())
	require.NoError(t, err)
	stats, err := ix.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nabin_places", stats.Collection)
	assert.Equal(t, 0, stats.Documents)
}

func TestHandleClosedBeforeUse(t *testing.T) {
	h := NewHandleFunc(func(context.Context) (*Index, error) {
		t.Fatal("opener should not run after Close")
		return nil, nil
	})
	require.NoError(t, h.Close())
	_, err := h.Index(context.Background())
	assert.ErrorIs(t, err, ErrIndexClosed)
}
