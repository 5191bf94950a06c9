package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{})
	require.NoError(t, err)
	return store
}

func samplePoints() []Point {
	return []Point{
		{ID: "c1", Vector: []float32{1, 0, 0}, Payload: map[string]any{"document_name": "docA", "project": "p1"}},
		{ID: "c2", Vector: []float32{0, 1, 0}, Payload: map[string]any{"document_name": "docB", "project": "p1"}},
		{ID: "c3", Vector: []float32{0, 0, 1}, Payload: map[string]any{"document_name": "docA", "project": "p2"}},
	}
}

func TestChromemStore_UpsertIsIdempotentOnID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Upsert(ctx, "chunks", samplePoints()))
	count, err := store.Count(ctx, "chunks", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.Upsert(ctx, "chunks", []Point{
		{ID: "c1", Vector: []float32{1, 0, 0}, Payload: map[string]any{"document_name": "docA-renamed", "project": "p1"}},
	}))

	count, err = store.Count(ctx, "chunks", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "re-upserting an existing id must not grow the collection")

	page, err := store.Scroll(ctx, "chunks", Eq("document_name", "docA-renamed"), 10, "")
	require.NoError(t, err)
	require.Len(t, page.Points, 1)
	assert.Equal(t, "c1", page.Points[0].ID)
}

func TestChromemStore_UpsertRefusesDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, "chunks", samplePoints()))

	err := store.Upsert(ctx, "chunks", []Point{
		{ID: "bad", Vector: []float32{1, 2}, Payload: nil},
	})
	require.Error(t, err)
}

func TestChromemStore_ScrollFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, "chunks", samplePoints()))

	page, err := store.Scroll(ctx, "chunks", Eq("project", "p1"), 10, "")
	require.NoError(t, err)
	assert.Len(t, page.Points, 2)
	assert.Empty(t, page.NextCursor)

	first, err := store.Scroll(ctx, "chunks", nil, 1, "")
	require.NoError(t, err)
	require.Len(t, first.Points, 1)
	require.NotEmpty(t, first.NextCursor)

	second, err := store.Scroll(ctx, "chunks", nil, 1, first.NextCursor)
	require.NoError(t, err)
	require.Len(t, second.Points, 1)
	assert.NotEqual(t, first.Points[0].ID, second.Points[0].ID)
}

func TestChromemStore_QueryReturnsNearestByCosine(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, "chunks", samplePoints()))

	results, err := store.Query(ctx, "chunks", []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].ID)
}

func TestChromemStore_SetPayloadIsPartialMerge(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, "chunks", samplePoints()))

	require.NoError(t, store.SetPayload(ctx, "chunks", "c1", map[string]any{"section_number": "6.5"}))

	page, err := store.Scroll(ctx, "chunks", And(Eq("document_name", "docA"), Eq("project", "p1")), 10, "")
	require.NoError(t, err)
	require.Len(t, page.Points, 1)
	assert.Equal(t, "6.5", page.Points[0].Payload["section_number"])
	assert.Equal(t, "p1", page.Points[0].Payload["project"], "unrelated fields survive a partial merge")
}

func TestChromemStore_SetPayloadOnMissingIDIsRefused(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, "chunks", samplePoints()))

	err := store.SetPayload(ctx, "chunks", "does-not-exist", map[string]any{"x": 1})
	require.Error(t, err)
}

func TestChromemStore_DeleteByIDsAndByFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, "chunks", samplePoints()))

	require.NoError(t, store.Delete(ctx, "chunks", []string{"c1"}, nil))
	count, err := store.Count(ctx, "chunks", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.Delete(ctx, "chunks", nil, Eq("project", "p2")))
	count, err = store.Count(ctx, "chunks", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChromemStore_DeleteRequiresIDsOrFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Upsert(ctx, "chunks", samplePoints()))

	err := store.Delete(ctx, "chunks", nil, nil)
	require.Error(t, err)
}

func TestChromemStore_CreateCollectionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateCollection(ctx, "chunks", 3, DistanceCosine))
	require.NoError(t, store.CreateCollection(ctx, "chunks", 3, DistanceCosine))
}

var _ Store = (*ChromemStore)(nil)
