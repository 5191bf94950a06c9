// Package cache implements the semantic query cache, grounded on
// original_source/src/semantic_cache.py's SemanticCache: a SQL-backed
// row store keyed by embedding similarity rather than exact text match.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/model"
)

const createCacheTableSQL = `
CREATE TABLE IF NOT EXISTS query_cache (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    query TEXT NOT NULL,
    query_embedding TEXT NOT NULL,
    answer TEXT NOT NULL,
    sources TEXT,
    created_at REAL NOT NULL,
    hit_count INTEGER NOT NULL DEFAULT 0,
    last_accessed REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_cache_created_at ON query_cache(created_at);
CREATE INDEX IF NOT EXISTS idx_query_cache_last_accessed ON query_cache(last_accessed);
`

// Config tunes the cache's matching and eviction policy.
type Config struct {
	SimilarityThreshold float64       // minimum cosine similarity for a hit, default 0.92
	TTL                 time.Duration // entry lifetime, default 7 days
	MaxCacheSize        int           // row count at or above which Set evicts, default 1000
	ScanCap             int           // rows examined per get(), default 100
}

// DefaultConfig matches semantic_cache.py's constructor defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.92,
		TTL:                 7 * 24 * time.Hour,
		MaxCacheSize:        1000,
		ScanCap:             100,
	}
}

// Stats summarizes cache effectiveness.
type Stats struct {
	TotalEntries   int
	TotalQueries   int64
	Hits           int64
	Misses         int64
	HitRatePercent float64
	AvgHitsPerRow  float64
	MaxHitsPerRow  int
}

// Cache is the semantic query cache. A Cache must be constructed with
// New; the zero value is not usable.
type Cache struct {
	db  *sql.DB
	cfg Config

	totalQueries int64
	hits         int64
	misses       int64
}

// New opens the query_cache table on db (an already-open SQLite handle)
// and returns a ready Cache.
func New(db *sql.DB, cfg Config) (*Cache, error) {
	if db == nil {
		return nil, apperrors.Config("cache requires a non-nil database handle", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, createCacheTableSQL); err != nil {
		return nil, apperrors.Store("failed to initialize query_cache schema", err)
	}

	return &Cache{db: db, cfg: cfg}, nil
}

type cacheRow struct {
	id           int64
	query        string
	embedding    []float32
	answer       string
	sources      []string
	createdAt    time.Time
	lastAccessed time.Time
	hitCount     int
}

// Get looks up query by embedding similarity. It scrolls entries newer
// than the TTL window, ordered by last_accessed DESC, up to ScanCap rows,
// and returns the best cosine match if it clears SimilarityThreshold.
func (c *Cache) Get(ctx context.Context, queryText string, queryEmbedding []float32) (model.CacheEntry, bool, error) {
	atomic.AddInt64(&c.totalQueries, 1)

	if _, err := c.CleanupExpired(ctx); err != nil {
		return model.CacheEntry{}, false, err
	}

	cutoff := float64(time.Now().Add(-c.cfg.TTL).Unix())
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, query, query_embedding, answer, sources, created_at, hit_count, last_accessed
		FROM query_cache
		WHERE created_at >= ?
		ORDER BY last_accessed DESC
		LIMIT ?
	`, cutoff, c.cfg.ScanCap)
	if err != nil {
		return model.CacheEntry{}, false, apperrors.Store("failed to scan query_cache", err)
	}
	defer rows.Close()

	var best *cacheRow
	var bestSim float64
	for rows.Next() {
		row, embErr := scanCacheRow(rows)
		if embErr != nil {
			return model.CacheEntry{}, false, embErr
		}
		sim := cosineSimilarity(queryEmbedding, row.embedding)
		if sim > bestSim {
			bestSim = sim
			best = row
		}
	}
	if err := rows.Err(); err != nil {
		return model.CacheEntry{}, false, apperrors.Store("failed iterating query_cache rows", err)
	}

	if best == nil || bestSim < c.cfg.SimilarityThreshold {
		atomic.AddInt64(&c.misses, 1)
		return model.CacheEntry{}, false, nil
	}

	now := time.Now()
	if _, err := c.db.ExecContext(ctx, `
		UPDATE query_cache SET hit_count = hit_count + 1, last_accessed = ? WHERE id = ?
	`, float64(now.Unix()), best.id); err != nil {
		return model.CacheEntry{}, false, apperrors.Store("failed to update cache hit stats", err)
	}

	atomic.AddInt64(&c.hits, 1)
	entry := model.CacheEntry{
		ID:             best.id,
		QueryText:      best.query,
		QueryEmbedding: best.embedding,
		Answer:         best.answer,
		Sources:        best.sources,
		CreatedAt:      best.createdAt,
		LastAccessed:   now,
		HitCount:       best.hitCount + 1,
	}
	return entry, true, nil
}

// Set caches a query-answer pair, evicting the oldest-by-last_accessed
// 10% of rows first if the cache is at or above MaxCacheSize.
func (c *Cache) Set(ctx context.Context, queryText string, queryEmbedding []float32, answer string, sources []string) error {
	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_cache`).Scan(&count); err != nil {
		return apperrors.Store("failed to count query_cache rows", err)
	}

	if count >= c.cfg.MaxCacheSize {
		evict := int(math.Ceil(float64(c.cfg.MaxCacheSize) / 10.0))
		if _, err := c.db.ExecContext(ctx, `
			DELETE FROM query_cache WHERE id IN (
				SELECT id FROM query_cache ORDER BY last_accessed ASC LIMIT ?
			)
		`, evict); err != nil {
			return apperrors.Store("failed to evict oldest query_cache rows", err)
		}
	}

	embJSON, err := json.Marshal(queryEmbedding)
	if err != nil {
		return apperrors.Store("failed to encode query embedding", err)
	}
	var sourcesJSON sql.NullString
	if len(sources) > 0 {
		b, err := json.Marshal(sources)
		if err != nil {
			return apperrors.Store("failed to encode cache sources", err)
		}
		sourcesJSON = sql.NullString{String: string(b), Valid: true}
	}

	now := float64(time.Now().Unix())
	if _, err := c.db.ExecContext(ctx, `
		INSERT INTO query_cache (query, query_embedding, answer, sources, created_at, last_accessed)
		VALUES (?, ?, ?, ?, ?, ?)
	`, queryText, string(embJSON), answer, sourcesJSON, now, now); err != nil {
		return apperrors.Store("failed to insert query_cache row", err)
	}
	return nil
}

// CleanupExpired removes rows older than TTL and reports how many were
// deleted. Called opportunistically from Get and on an operator's
// explicit schedule.
func (c *Cache) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := float64(time.Now().Add(-c.cfg.TTL).Unix())
	result, err := c.db.ExecContext(ctx, `DELETE FROM query_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, apperrors.Store("failed to delete expired query_cache rows", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Store("failed to read rows affected for cache cleanup", err)
	}
	return int(n), nil
}

// Clear removes every row and resets the in-process counters.
func (c *Cache) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM query_cache`); err != nil {
		return apperrors.Store("failed to clear query_cache", err)
	}
	atomic.StoreInt64(&c.totalQueries, 0)
	atomic.StoreInt64(&c.hits, 0)
	atomic.StoreInt64(&c.misses, 0)
	return nil
}

// Stats reports row counts, hit/miss counters and per-row hit averages.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_cache`).Scan(&total); err != nil {
		return Stats{}, apperrors.Store("failed to count query_cache rows", err)
	}

	var avgHits sql.NullFloat64
	var maxHits sql.NullInt64
	if err := c.db.QueryRowContext(ctx, `SELECT AVG(hit_count), MAX(hit_count) FROM query_cache`).Scan(&avgHits, &maxHits); err != nil {
		return Stats{}, apperrors.Store("failed to aggregate query_cache hit counts", err)
	}

	totalQueries := atomic.LoadInt64(&c.totalQueries)
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	var hitRate float64
	if totalQueries > 0 {
		hitRate = float64(hits) / float64(totalQueries) * 100
	}

	return Stats{
		TotalEntries:   total,
		TotalQueries:   totalQueries,
		Hits:           hits,
		Misses:         misses,
		HitRatePercent: hitRate,
		AvgHitsPerRow:  avgHits.Float64,
		MaxHitsPerRow:  int(maxHits.Int64),
	}, nil
}

// TopQueries returns the limit most-frequently-hit cached queries,
// ordered by hit_count descending.
func (c *Cache) TopQueries(ctx context.Context, limit int) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT query FROM query_cache ORDER BY hit_count DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperrors.Store("failed to query top cache entries", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, apperrors.Store("failed to scan top cache query", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

func scanCacheRow(rows *sql.Rows) (*cacheRow, error) {
	var (
		id                      int64
		query, answer           string
		embeddingJSON           string
		sourcesJSON             sql.NullString
		createdAt, lastAccessed float64
		hitCount                int
	)
	if err := rows.Scan(&id, &query, &embeddingJSON, &answer, &sourcesJSON, &createdAt, &hitCount, &lastAccessed); err != nil {
		return nil, apperrors.Store("failed to scan query_cache row", err)
	}

	var embedding []float32
	if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
		return nil, apperrors.Store(fmt.Sprintf("failed to decode cached embedding for row %d", id), err)
	}

	var sources []string
	if sourcesJSON.Valid && sourcesJSON.String != "" {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &sources); err != nil {
			return nil, apperrors.Store(fmt.Sprintf("failed to decode cached sources for row %d", id), err)
		}
	}

	return &cacheRow{
		id:           id,
		query:        query,
		embedding:    embedding,
		answer:       answer,
		sources:      sources,
		createdAt:    time.Unix(int64(createdAt), 0),
		lastAccessed: time.Unix(int64(lastAccessed), 0),
		hitCount:     hitCount,
	}, nil
}

// cosineSimilarity returns 0 if either vector has zero norm or the
// vectors differ in length.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		fa, fb := float64(a[i]), float64(b[i])
		dot += fa * fb
		normA += fa * fa
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
