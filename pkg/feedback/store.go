// Package feedback persists user feedback and turns it into two things:
// a per-chunk quality score consulted at retrieval rerank time, and
// mined graph edges that connect documents, grounded on
// original_source/src/feedback_manager.py, granular_feedback.py,
// feedback_learner.py and feedback_postprocessor.py.
package feedback

import (
	"context"
	"database/sql"
	"time"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/model"
)

const createFeedbackSchemaSQL = `
CREATE TABLE IF NOT EXISTS feedback (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at REAL NOT NULL,
    query TEXT NOT NULL,
    answer TEXT NOT NULL,
    overall_rating INTEGER,
    relevance_rating INTEGER,
    clarity_rating INTEGER,
    completeness_rating INTEGER,
    comment TEXT
);

CREATE TABLE IF NOT EXISTS source_feedback (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    feedback_id INTEGER NOT NULL REFERENCES feedback(id),
    document TEXT NOT NULL,
    page INTEGER NOT NULL,
    chunk_fingerprint TEXT NOT NULL,
    rating TEXT NOT NULL,
    stars INTEGER
);

CREATE TABLE IF NOT EXISTS text_highlights (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    feedback_id INTEGER NOT NULL REFERENCES feedback(id),
    text TEXT NOT NULL,
    sentiment TEXT NOT NULL,
    start_offset INTEGER,
    end_offset INTEGER
);

CREATE TABLE IF NOT EXISTS source_scores (
    document TEXT NOT NULL,
    page INTEGER NOT NULL,
    chunk_fingerprint TEXT NOT NULL,
    score REAL NOT NULL DEFAULT 0,
    helpful_count INTEGER NOT NULL DEFAULT 0,
    negative_count INTEGER NOT NULL DEFAULT 0,
    updated_at REAL NOT NULL,
    PRIMARY KEY (document, page, chunk_fingerprint)
);

CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
CREATE INDEX IF NOT EXISTS idx_source_feedback_feedback_id ON source_feedback(feedback_id);
CREATE INDEX IF NOT EXISTS idx_text_highlights_feedback_id ON text_highlights(feedback_id);
`

// helpfulDelta/negativeDelta mirror feedback_manager.py's
// _update_source_scores score_delta (1.0 for positive, -0.5 for negative),
// carried over to the granular {helpful, not_helpful, irrelevant} ratings:
// helpful is the positive case, the other two share the negative discount.
const (
	helpfulDelta  = 1.0
	negativeDelta = -0.5
)

// Store persists feedback records in SQLite, grounded on
// pkg/memory/session_service_sql.go's schema-in-a-const / initSchema idiom.
type Store struct {
	db *sql.DB
}

// New opens the feedback schema on db and returns a ready Store.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, apperrors.Config("feedback store requires a non-nil database handle", nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, createFeedbackSchemaSQL); err != nil {
		return nil, apperrors.Store("failed to initialize feedback schema", err)
	}
	return &Store{db: db}, nil
}

// Record persists a full feedback submission and returns its row ID. It
// also updates the aggregated source_scores rows consulted by PostProcess.
func (s *Store) Record(ctx context.Context, rec model.FeedbackRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.Store("failed to begin feedback transaction", err)
	}
	defer tx.Rollback()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO feedback (created_at, query, answer, overall_rating, relevance_rating, completeness_rating, clarity_rating, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, float64(createdAt.Unix()), rec.Query, rec.Answer, nullableInt(rec.OverallRating), nullableInt(rec.Relevance), nullableInt(rec.Completeness), nullableInt(rec.Clarity), rec.Comment)
	if err != nil {
		return 0, apperrors.Store("failed to insert feedback row", err)
	}
	feedbackID, err := res.LastInsertId()
	if err != nil {
		return 0, apperrors.Store("failed to read feedback row id", err)
	}

	for _, sf := range rec.SourceFeedback {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO source_feedback (feedback_id, document, page, chunk_fingerprint, rating, stars)
			VALUES (?, ?, ?, ?, ?, ?)
		`, feedbackID, sf.Document, sf.Page, sf.ChunkFingerprint, string(sf.Rating), nullableInt(sf.Stars)); err != nil {
			return 0, apperrors.Store("failed to insert source_feedback row", err)
		}

		if err := updateSourceScore(ctx, tx, sf); err != nil {
			return 0, err
		}
	}

	for _, h := range rec.Highlights {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO text_highlights (feedback_id, text, sentiment, start_offset, end_offset)
			VALUES (?, ?, ?, ?, ?)
		`, feedbackID, h.Text, string(h.Sentiment), nullableInt(h.StartOffset), nullableInt(h.EndOffset)); err != nil {
			return 0, apperrors.Store("failed to insert text_highlights row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.Store("failed to commit feedback transaction", err)
	}
	return feedbackID, nil
}

func updateSourceScore(ctx context.Context, tx *sql.Tx, sf model.SourceFeedback) error {
	delta := negativeDelta
	if sf.Rating == model.RatingHelpful {
		delta = helpfulDelta
	}

	var score float64
	var helpfulCount, negativeCount int
	err := tx.QueryRowContext(ctx, `
		SELECT score, helpful_count, negative_count FROM source_scores
		WHERE document = ? AND page = ? AND chunk_fingerprint = ?
	`, sf.Document, sf.Page, sf.ChunkFingerprint).Scan(&score, &helpfulCount, &negativeCount)

	now := float64(time.Now().Unix())
	switch {
	case err == sql.ErrNoRows:
		if sf.Rating == model.RatingHelpful {
			helpfulCount = 1
		} else {
			negativeCount = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO source_scores (document, page, chunk_fingerprint, score, helpful_count, negative_count, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sf.Document, sf.Page, sf.ChunkFingerprint, delta, helpfulCount, negativeCount, now)
		if err != nil {
			return apperrors.Store("failed to insert source_scores row", err)
		}
	case err != nil:
		return apperrors.Store("failed to read source_scores row", err)
	default:
		score += delta
		if sf.Rating == model.RatingHelpful {
			helpfulCount++
		} else {
			negativeCount++
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE source_scores SET score = ?, helpful_count = ?, negative_count = ?, updated_at = ?
			WHERE document = ? AND page = ? AND chunk_fingerprint = ?
		`, score, helpfulCount, negativeCount, now, sf.Document, sf.Page, sf.ChunkFingerprint)
		if err != nil {
			return apperrors.Store("failed to update source_scores row", err)
		}
	}
	return nil
}

// SourceScore returns the aggregated feedback score for a chunk, 0 if no
// feedback has ever been recorded against it.
func (s *Store) SourceScore(ctx context.Context, document string, page int, chunkFingerprint string) (float64, error) {
	var score float64
	err := s.db.QueryRowContext(ctx, `
		SELECT score FROM source_scores WHERE document = ? AND page = ? AND chunk_fingerprint = ?
	`, document, page, chunkFingerprint).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Store("failed to read source score", err)
	}
	return score, nil
}

// List returns every feedback record created at or after since (nil means
// all time), most recent first, fully populated with its nested source
// ratings and highlights.
func (s *Store) List(ctx context.Context, since *time.Time) ([]model.FeedbackRecord, error) {
	query := `SELECT id, created_at, query, answer, overall_rating, relevance_rating, clarity_rating, completeness_rating, comment FROM feedback`
	args := []any{}
	if since != nil {
		query += ` WHERE created_at >= ?`
		args = append(args, float64(since.Unix()))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Store("failed to list feedback", err)
	}
	defer rows.Close()

	var ids []int64
	var records []model.FeedbackRecord
	byID := map[int64]*model.FeedbackRecord{}
	for rows.Next() {
		var (
			id                                                         int64
			createdAt                                                  float64
			query, answer                                              string
			overallRating, relevanceRating, clarityRating, completRating sql.NullInt64
			comment                                                    string
		)
		if err := rows.Scan(&id, &createdAt, &query, &answer, &overallRating, &relevanceRating, &clarityRating, &completRating, &comment); err != nil {
			return nil, apperrors.Store("failed to scan feedback row", err)
		}
		rec := model.FeedbackRecord{
			Query:         query,
			Answer:        answer,
			OverallRating: nullToIntPtr(overallRating),
			Relevance:     nullToIntPtr(relevanceRating),
			Clarity:       nullToIntPtr(clarityRating),
			Completeness:  nullToIntPtr(completRating),
			Comment:       comment,
			CreatedAt:     time.Unix(int64(createdAt), 0),
		}
		records = append(records, rec)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("failed iterating feedback rows", err)
	}
	for i, id := range ids {
		byID[id] = &records[i]
	}

	if err := s.attachSourceFeedback(ctx, byID); err != nil {
		return nil, err
	}
	if err := s.attachHighlights(ctx, byID); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) attachSourceFeedback(ctx context.Context, byID map[int64]*model.FeedbackRecord) error {
	rows, err := s.db.QueryContext(ctx, `SELECT feedback_id, document, page, chunk_fingerprint, rating, stars FROM source_feedback`)
	if err != nil {
		return apperrors.Store("failed to list source_feedback", err)
	}
	defer rows.Close()

	for rows.Next() {
		var feedbackID int64
		var document, rating string
		var page int
		var fingerprint string
		var stars sql.NullInt64
		if err := rows.Scan(&feedbackID, &document, &page, &fingerprint, &rating, &stars); err != nil {
			return apperrors.Store("failed to scan source_feedback row", err)
		}
		rec, ok := byID[feedbackID]
		if !ok {
			continue
		}
		rec.SourceFeedback = append(rec.SourceFeedback, model.SourceFeedback{
			Document:         document,
			Page:             page,
			ChunkFingerprint: fingerprint,
			Rating:           model.SourceRating(rating),
			Stars:            nullToIntPtr(stars),
		})
	}
	return rows.Err()
}

func (s *Store) attachHighlights(ctx context.Context, byID map[int64]*model.FeedbackRecord) error {
	rows, err := s.db.QueryContext(ctx, `SELECT feedback_id, text, sentiment, start_offset, end_offset FROM text_highlights`)
	if err != nil {
		return apperrors.Store("failed to list text_highlights", err)
	}
	defer rows.Close()

	for rows.Next() {
		var feedbackID int64
		var text, sentiment string
		var start, end sql.NullInt64
		if err := rows.Scan(&feedbackID, &text, &sentiment, &start, &end); err != nil {
			return apperrors.Store("failed to scan text_highlights row", err)
		}
		rec, ok := byID[feedbackID]
		if !ok {
			continue
		}
		rec.Highlights = append(rec.Highlights, model.TextHighlight{
			Text:        text,
			Sentiment:   model.HighlightSentiment(sentiment),
			StartOffset: nullToIntPtr(start),
			EndOffset:   nullToIntPtr(end),
		})
	}
	return rows.Err()
}

// IsPositive classifies a feedback record the way spec.md's "type=positive"
// filter expects: an explicit high overall rating, or (absent that) source
// ratings that lean helpful.
func IsPositive(rec model.FeedbackRecord) bool {
	if rec.OverallRating != nil {
		return *rec.OverallRating >= 4
	}
	if len(rec.SourceFeedback) == 0 {
		return false
	}
	helpful := 0
	for _, sf := range rec.SourceFeedback {
		if sf.Rating == model.RatingHelpful {
			helpful++
		}
	}
	return helpful*2 > len(rec.SourceFeedback)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullToIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
