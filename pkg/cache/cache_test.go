package cache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCache_SetThenGetExactEmbeddingIsHit(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	c, err := New(db, DefaultConfig())
	require.NoError(t, err)

	emb := []float32{1, 0, 0}
	require.NoError(t, c.Set(ctx, "what is the current for 2.5mm2 cable?", emb, "16A", []string{"IS3218#6.5"}))

	entry, hit, err := c.Get(ctx, "2.5mm cable amperage?", emb)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "16A", entry.Answer)
	assert.Equal(t, []string{"IS3218#6.5"}, entry.Sources)
	assert.Equal(t, 1, entry.HitCount)
}

func TestCache_DissimilarEmbeddingIsMiss(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	c, err := New(db, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "fire rating of doors", []float32{1, 0, 0}, "30 minutes", nil))

	_, hit, err := c.Get(ctx, "cable current rating", []float32{0, 1, 0})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_BelowThresholdIsMiss(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0.99
	c, err := New(db, cfg)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "query A", []float32{1, 0}, "answer A", nil))

	// Similarity here is 1/sqrt(2) ~= 0.707, below the raised threshold.
	_, hit, err := c.Get(ctx, "query B", []float32{1, 1})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_RepeatedHitsIncrementCount(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	c, err := New(db, DefaultConfig())
	require.NoError(t, err)

	emb := []float32{1, 0}
	require.NoError(t, c.Set(ctx, "q", emb, "a", nil))

	first, hit, err := c.Get(ctx, "q", emb)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 1, first.HitCount)

	second, hit, err := c.Get(ctx, "q", emb)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 2, second.HitCount)
}

func TestCache_ExpiredEntryIsNotMatched(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	cfg := DefaultConfig()
	cfg.TTL = time.Millisecond
	c, err := New(db, cfg)
	require.NoError(t, err)

	emb := []float32{1, 0}
	require.NoError(t, c.Set(ctx, "q", emb, "a", nil))
	// Timestamps are stored in whole seconds, so wait past a second boundary.
	time.Sleep(1100 * time.Millisecond)

	_, hit, err := c.Get(ctx, "q", emb)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_SetEvictsOldestTenPercentAtCapacity(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	cfg := DefaultConfig()
	cfg.MaxCacheSize = 10
	c, err := New(db, cfg)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Set(ctx, "q", []float32{float32(i), 0}, "a", nil))
		// last_accessed is second-granularity; stagger insert order deterministically.
		time.Sleep(time.Millisecond)
	}

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, stats.TotalEntries)

	// Next Set must evict ceil(10/10) = 1 row before inserting, holding size at 10.
	require.NoError(t, c.Set(ctx, "q", []float32{99, 0}, "a", nil))

	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalEntries)
}

func TestCache_CleanupExpiredRemovesOldRows(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	cfg := DefaultConfig()
	cfg.TTL = time.Millisecond
	c, err := New(db, cfg)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "q1", []float32{1, 0}, "a1", nil))
	require.NoError(t, c.Set(ctx, "q2", []float32{0, 1}, "a2", nil))
	// Timestamps are stored in whole seconds, so wait past a second boundary.
	time.Sleep(1100 * time.Millisecond)

	removed, err := c.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalEntries)
}

func TestCache_ClearResetsRowsAndCounters(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	c, err := New(db, DefaultConfig())
	require.NoError(t, err)

	emb := []float32{1, 0}
	require.NoError(t, c.Set(ctx, "q", emb, "a", nil))
	_, _, err = c.Get(ctx, "q", emb)
	require.NoError(t, err)

	require.NoError(t, c.Clear(ctx))

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalEntries)
	assert.Equal(t, int64(0), stats.TotalQueries)
	assert.Equal(t, int64(0), stats.Hits)
}

func TestCache_EmptyCacheIsAlwaysMiss(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	c, err := New(db, DefaultConfig())
	require.NoError(t, err)

	_, hit, err := c.Get(ctx, "anything", []float32{1, 2, 3})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 1}, []float32{2, 2}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity(nil, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2}, []float32{1}))
}
