package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/nabin/internal/appconfig"
	"github.com/mwiater/nabin/internal/catalog"
	"github.com/mwiater/nabin/internal/rag/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDocumentText(t *testing.T) {
	text := DocumentText(catalog.VenueRecord{Name: "Cafe Lotus", Address: "123 Main St", Mood: "quiet"})
	assert.Equal(t, "Tên quán: Cafe Lotus. Địa chỉ: 123 Main St. Mood/Không gian: quiet. Ghi chú món: ", text)

	text = DocumentText(catalog.VenueRecord{Name: "Phở Thìn", Address: "13 Lò Đúc", Notes: "phở tái"})
	assert.Contains(t, text, "Mood/Không gian: Không rõ.")
	assert.True(t, strings.HasSuffix(text, "Ghi chú món: phở tái"))
}

func TestDocumentIDSchemes(t *testing.T) {
	v := catalog.VenueRecord{Name: "Cafe Lotus", Address: "123 Main St"}
	assert.Equal(t, "place_4", DocumentID(appconfig.IDSchemeOrdinal, 4, v))

	id := DocumentID(appconfig.IDSchemeContent, 4, v)
	assert.True(t, strings.HasPrefix(id, "place_"))
	assert.Len(t, id, len("place_")+16)
	assert.Equal(t, id, DocumentID(appconfig.IDSchemeContent, 9, catalog.VenueRecord{Name: "CAFE LOTUS", Address: "123 main st"}))
}

func TestBuildDocumentsDeduplicatesContentIDs(t *testing.T) {
	records := []catalog.VenueRecord{
		{Name: "A", Address: "1", Notes: "old"},
		{Name: "B", Address: "2"},
		{Name: "a", Address: "1", Notes: "new"},
	}
	docs := BuildDocuments(records, appconfig.IDSchemeContent)
	require.Len(t, docs, 2)
	assert.Contains(t, docs[0].Text, "new")

	docs = BuildDocuments(records, appconfig.IDSchemeOrdinal)
	require.Len(t, docs, 3)
	assert.Equal(t, "place_2", docs[2].ID)
	assert.Equal(t, catalog.DefaultMapLink, docs[2].Metadata.Map)
}

func TestEndToEndCafeLotus(t *testing.T) {
	ctx := context.Background()
	ix, _ := newTestIndex(t, appconfig.IDSchemeOrdinal)
	source := writeCatalog(t, "drink.json", `[{"name":"Cafe Lotus","address":"123 Main St","mood":"quiet"}]`)

	n, msg := ReindexResult(ctx, ix, []string{source})
	assert.Equal(t, 1, n)
	assert.Equal(t, "success", msg)

	result, err := NewRetriever(ix, 0).Search(ctx, "quiet place to work", 3)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "place_0", result.Hits[0].ID)
	assert.Equal(t, "Cafe Lotus", result.Hits[0].Metadata.Name)
	assert.Equal(t, catalog.DefaultMapLink, result.Hits[0].Metadata.Map)

	assert.Contains(t, Assemble(result), "Cafe Lotus")
}

func TestSearchFindsVenueByName(t *testing.T) {
	ctx := context.Background()
	ix, _ := newTestIndex(t, appconfig.IDSchemeOrdinal)
	records := []catalog.VenueRecord{
		{Name: "Cafe Lotus", Address: "123 Main St", Mood: "quiet"},
		{Name: "Bia Hơi Corner", Address: "1 Tạ Hiện", Mood: "loud"},
		{Name: "Phở Thìn", Address: "13 Lò Đúc", Notes: "phở bò"},
		{Name: "Trà Chanh Garden", Address: "5 Nhà Chung", Mood: "chill"},
		{Name: "Bánh Mì 25", Address: "25 Hàng Cá"},
	}
	n, err := ix.Reindex(ctx, records)
	require.NoError(t, err)
	require.Equal(t, len(records), n)

	result, err := NewRetriever(ix, 3).Search(ctx, "Trà Chanh Garden", 0)
	require.NoError(t, err)
	require.Len(t, result.Hits, 3)
	assert.Equal(t, "Trà Chanh Garden", result.Hits[0].Metadata.Name)
	for i := 1; i < len(result.Hits); i++ {
		assert.LessOrEqual(t, result.Hits[i-1].Distance, result.Hits[i].Distance)
	}
}

func TestReindexIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ix, _ := newTestIndex(t, appconfig.IDSchemeOrdinal)
	records := []catalog.VenueRecord{
		{Name: "Cafe Lotus", Address: "123 Main St", Mood: "quiet"},
		{Name: "Phở Thìn", Address: "13 Lò Đúc"},
	}

	_, err := ix.Reindex(ctx, records)
	require.NoError(t, err)
	first, err := ix.store.IDs(ctx)
	require.NoError(t, err)

	_, err = ix.Reindex(ctx, records)
	require.NoError(t, err)
	second, err := ix.store.IDs(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	stats, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, "sqlite", stats.Store)
	assert.Equal(t, "fake:keywords", stats.Embedder)
}

func TestOrdinalSchemeKeepsStaleEntries(t *testing.T) {
	ctx := context.Background()
	ix, _ := newTestIndex(t, appconfig.IDSchemeOrdinal)

	_, err := ix.Reindex(ctx, []catalog.VenueRecord{{Name: "A", Address: "1"}, {Name: "B", Address: "2"}})
	require.NoError(t, err)
	_, err = ix.Reindex(ctx, []catalog.VenueRecord{{Name: "C", Address: "3"}})
	require.NoError(t, err)

	n, err := ix.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestContentSchemePrunesStaleEntries(t *testing.T) {
	ctx := context.Background()
	ix, _ := newTestIndex(t, appconfig.IDSchemeContent)

	_, err := ix.Reindex(ctx, []catalog.VenueRecord{{Name: "A", Address: "1"}, {Name: "B", Address: "2"}})
	require.NoError(t, err)
	_, err = ix.Reindex(ctx, []catalog.VenueRecord{{Name: "B", Address: "2"}})
	require.NoError(t, err)

	ids, err := ix.store.IDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, DocumentID(appconfig.IDSchemeContent, 0, catalog.VenueRecord{Name: "B", Address: "2"}), ids[0])
}

func TestReindexResultNoData(t *testing.T) {
	ix, emb := newTestIndex(t, appconfig.IDSchemeOrdinal)

	n, msg := ReindexResult(context.Background(), ix, []string{filepath.Join(t.TempDir(), "food.json")})
	assert.Equal(t, 0, n)
	assert.NotEmpty(t, msg)
	assert.Zero(t, emb.Calls())
}

func TestReindexResultMalformedLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	ix, emb := newTestIndex(t, appconfig.IDSchemeOrdinal)

	good := writeCatalog(t, "food.json", `[{"name":"Cafe Lotus","address":"123 Main St"}]`)
	n, _ := ReindexResult(ctx, ix, []string{good})
	require.Equal(t, 1, n)
	calls := emb.Calls()

	bad := writeCatalog(t, "food.json", `[{"name":"Replacement","address":"9 Street"},{"name":"No Address"}]`)
	n, msg := ReindexResult(ctx, ix, []string{bad})
	assert.Equal(t, 0, n)
	assert.Contains(t, msg, "address")
	assert.Equal(t, calls, emb.Calls())

	result, err := NewRetriever(ix, 3).Search(ctx, "Cafe Lotus", 3)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, "Cafe Lotus", result.Hits[0].Metadata.Name)
}

func TestReindexEmbedderFailure(t *testing.T) {
	ix, emb := newTestIndex(t, appconfig.IDSchemeOrdinal)
	emb.Err = errEmbedDown

	n, err := ix.Reindex(context.Background(), []catalog.VenueRecord{{Name: "A", Address: "1"}})
	assert.Zero(t, n)
	assert.ErrorIs(t, err, errEmbedDown)
}

func TestReindexEmptyRecords(t *testing.T) {
	ix, _ := newTestIndex(t, appconfig.IDSchemeOrdinal)
	n, err := ix.Reindex(context.Background(), nil)
	assert.Zero(t, n)
	assert.ErrorIs(t, err, catalog.ErrNoData)
}

func TestSearchEmptyIndex(t *testing.T) {
	ix, emb := newTestIndex(t, appconfig.IDSchemeOrdinal)

	result, err := NewRetriever(ix, 3).Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Equal(t, "", Assemble(result))
	assert.Zero(t, emb.Calls())
}

func TestSearchEmptyQuery(t *testing.T) {
	ix, _ := newTestIndex(t, appconfig.IDSchemeOrdinal)

	_, err := NewRetriever(ix, 3).Search(context.Background(), "   ", 3)
	assert.True(t, errors.Is(err, ErrEmptyQuery))
}

func TestSearchUnderPopulatedIndex(t *testing.T) {
	ctx := context.Background()
	ix, _ := newTestIndex(t, appconfig.IDSchemeOrdinal)
	_, err := ix.Reindex(ctx, []catalog.VenueRecord{{Name: "A", Address: "1"}, {Name: "B", Address: "2"}})
	require.NoError(t, err)

	result, err := NewRetriever(ix, 3).Search(ctx, "A", 10)
	require.NoError(t, err)
	assert.Len(t, result.Hits, 2)
}

func TestAssembleJoinsInRankOrder(t *testing.T) {
	result := RetrievalResult{Hits: []store.Hit{{Text: "first"}, {Text: "second"}, {Text: "third"}}}
	assert.Equal(t, "first\nsecond\nthird", Assemble(result))
	assert.Equal(t, "", Assemble(RetrievalResult{}))
}

func TestCountTokens(t *testing.T) {
	assert.Zero(t, CountTokens(""))
	assert.Positive(t, CountTokens("Tên quán: Cafe Lotus. Địa chỉ: 123 Main St."))
	assert.Equal(t, 3, estimateTokens("one two  three"))
}

func TestRunPreview(t *testing.T) {
	ctx := context.Background()
	ix, _ := newTestIndex(t, appconfig.IDSchemeOrdinal)
	_, err := ix.Reindex(ctx, []catalog.VenueRecord{{Name: "Cafe Lotus", Address: "123 Main St", Mood: "quiet"}})
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, RunPreview(ctx, &out, NewRetriever(ix, 3), "quiet cafe", 0))
	assert.Contains(t, out.String(), "[RAG] hits: 1")
	assert.Contains(t, out.String(), "name=Cafe Lotus")

	assert.ErrorIs(t, RunPreview(ctx, &out, NewRetriever(ix, 3), " ", 0), ErrEmptyQuery)
}

// TestConcurrentReindexAndSearch runs reindexes and searches against one
// shared SQLite-backed index; neither side may fail and the final count
// must match the catalog.
func TestConcurrentReindexAndSearch(t *testing.T) {
	ctx := context.Background()
	ix, _ := newTestIndex(t, appconfig.IDSchemeOrdinal)

	records := make([]catalog.VenueRecord, 120)
	for i := range records {
		records[i] = catalog.VenueRecord{
			Name:    fmt.Sprintf("Quán %d", i),
			Address: fmt.Sprintf("%d Lê Lợi", i),
			Notes:   []string{"phở bò", "cà phê trứng", "bia hơi", "bún chả"}[i%4],
		}
	}
	_, err := ix.Reindex(ctx, records)
	require.NoError(t, err)

	r := NewRetriever(ix, 0)
	var g errgroup.Group
	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for i := 0; i < 10; i++ {
				if _, err := ix.Reindex(ctx, records); err != nil {
					return fmt.Errorf("reindex: %w", err)
				}
			}
			return nil
		})
		g.Go(func() error {
			for i := 0; i < 25; i++ {
				result, err := r.Search(ctx, "cà phê trứng", 3)
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				if len(result.Hits) != 3 {
					return fmt.Errorf("search returned %d hits", len(result.Hits))
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	stats, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(records), stats.Documents)
}
