package feedback

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	dbPath := filepath.Join(t.TempDir(), "feedback_test.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func intPtr(i int) *int { return &i }

func TestStore_RecordAndListRoundTrips(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)

	rec := model.FeedbackRecord{
		Query:         "what is the current for 2.5mm2 cable?",
		Answer:        "16A",
		OverallRating: intPtr(5),
		SourceFeedback: []model.SourceFeedback{
			{Document: "IS3218", Page: 12, ChunkFingerprint: "fp-1", Rating: model.RatingHelpful, Stars: intPtr(5)},
		},
		Highlights: []model.TextHighlight{
			{Text: "16A", Sentiment: model.SentimentPositive},
		},
		CreatedAt: time.Now(),
	}

	id, err := store.Record(ctx, rec)
	require.NoError(t, err)
	assert.Positive(t, id)

	records, err := store.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "16A", records[0].Answer)
	require.Len(t, records[0].SourceFeedback, 1)
	assert.Equal(t, "IS3218", records[0].SourceFeedback[0].Document)
	require.Len(t, records[0].Highlights, 1)
	assert.Equal(t, model.SentimentPositive, records[0].Highlights[0].Sentiment)
}

func TestStore_SourceScoreAccumulatesAcrossRecords(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)

	helpful := model.SourceFeedback{Document: "IS3218", Page: 1, ChunkFingerprint: "fp", Rating: model.RatingHelpful}
	notHelpful := model.SourceFeedback{Document: "IS3218", Page: 1, ChunkFingerprint: "fp", Rating: model.RatingNotHelpful}

	_, err = store.Record(ctx, model.FeedbackRecord{Query: "q", Answer: "a", SourceFeedback: []model.SourceFeedback{helpful}})
	require.NoError(t, err)
	_, err = store.Record(ctx, model.FeedbackRecord{Query: "q", Answer: "a", SourceFeedback: []model.SourceFeedback{helpful}})
	require.NoError(t, err)
	_, err = store.Record(ctx, model.FeedbackRecord{Query: "q", Answer: "a", SourceFeedback: []model.SourceFeedback{notHelpful}})
	require.NoError(t, err)

	score, err := store.SourceScore(ctx, "IS3218", 1, "fp")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, score, 1e-9) // +1.0 +1.0 -0.5
}

func TestStore_SourceScoreMissingIsZero(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)

	score, err := store.SourceScore(ctx, "nonexistent", 1, "fp")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestIsPositive(t *testing.T) {
	assert.True(t, IsPositive(model.FeedbackRecord{OverallRating: intPtr(4)}))
	assert.False(t, IsPositive(model.FeedbackRecord{OverallRating: intPtr(3)}))
	assert.True(t, IsPositive(model.FeedbackRecord{SourceFeedback: []model.SourceFeedback{
		{Rating: model.RatingHelpful}, {Rating: model.RatingHelpful}, {Rating: model.RatingIrrelevant},
	}}))
	assert.False(t, IsPositive(model.FeedbackRecord{SourceFeedback: []model.SourceFeedback{
		{Rating: model.RatingNotHelpful}, {Rating: model.RatingIrrelevant},
	}}))
	assert.False(t, IsPositive(model.FeedbackRecord{}))
}

func TestFingerprint_TruncatesAndIncludesDocumentAndPage(t *testing.T) {
	short := Fingerprint("IS3218", 4, "short text")
	assert.Contains(t, short, "IS3218")
	assert.Contains(t, short, "short text")

	long := Fingerprint("IS3218", 4, string(make([]byte, 1000)))
	assert.Less(t, len(long), 1000)
}

func positiveFeedback(query string, docs ...string) model.FeedbackRecord {
	var sources []model.SourceFeedback
	for _, d := range docs {
		sources = append(sources, model.SourceFeedback{Document: d, Page: 1, ChunkFingerprint: "fp", Rating: model.RatingHelpful})
	}
	return model.FeedbackRecord{Query: query, Answer: "a", OverallRating: intPtr(5), SourceFeedback: sources}
}

func TestLearner_CoOccurrenceCreatesComplementsEdgeAboveThresholds(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)
	graph := graphstore.NewMemStore()
	learner := NewLearner(store, graph, DefaultLearnerConfig())

	for i := 0; i < 5; i++ {
		_, err := store.Record(ctx, positiveFeedback("query", "IS3218", "NEK606"))
		require.NoError(t, err)
	}

	stats, err := learner.Learn(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.AnalyzedFeedback)
	assert.Equal(t, 1, stats.NewRelationships)

	neighbors, err := graph.Neighbors(ctx, graphstore.NodeRef{Label: "Document", Key: "IS3218"}, graphstore.EdgeFilter{Types: []model.EdgeType{model.EdgeComplements}})
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "NEK606", neighbors[0].Key)

	gstats, err := graph.Statistics(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, gstats.AvgLearnedWeight, 0.6)
}

func TestLearner_SixFeedbacksInOnePassTouchOneEdgeWithoutExceedingOne(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)
	graph := graphstore.NewMemStore()
	learner := NewLearner(store, graph, DefaultLearnerConfig())

	for i := 0; i < 6; i++ {
		_, err := store.Record(ctx, positiveFeedback("query", "IS3218", "NEK606"))
		require.NoError(t, err)
	}

	stats, err := learner.Learn(ctx, nil)
	require.NoError(t, err)

	gstats, err := graph.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, gstats.LearnedEdges)
	assert.LessOrEqual(t, gstats.AvgLearnedWeight, 1.0)
	assert.Equal(t, 0, stats.NewRelationships+stats.StrengthenedRelationships-1, "a single learn pass over six identical co-occurrences must only touch one edge once")
}

func TestLearner_BelowMinSupportCreatesNoEdge(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)
	graph := graphstore.NewMemStore()
	learner := NewLearner(store, graph, DefaultLearnerConfig())

	for i := 0; i < 2; i++ {
		_, err := store.Record(ctx, positiveFeedback("query", "A", "B"))
		require.NoError(t, err)
	}

	stats, err := learner.Learn(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.NewRelationships)

	gstats, err := graph.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, gstats.TotalEdges)
}

func TestLearner_PruneRemovesWeakLearnedEdges(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)
	graph := graphstore.NewMemStore()
	cfg := DefaultLearnerConfig()
	learner := NewLearner(store, graph, cfg)

	require.NoError(t, graph.SetEdgeWeight(ctx, graphstore.NodeRef{Label: "Document", Key: "X"}, graphstore.NodeRef{Label: "Document", Key: "Y"}, model.EdgeComplements, 1.0, 0.1))

	stats, err := learner.Learn(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PrunedRelationships)

	gstats, err := graph.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, gstats.TotalEdges)
}

func TestLearner_NoPositiveFeedbackIsTotal(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)
	graph := graphstore.NewMemStore()
	learner := NewLearner(store, graph, DefaultLearnerConfig())

	stats, err := learner.Learn(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.AnalyzedFeedback)
}

func TestPostProcess_BoostsPositiveScore(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)

	helpful := model.SourceFeedback{Document: "IS3218", Page: 1, ChunkFingerprint: Fingerprint("IS3218", 1, "text"), Rating: model.RatingHelpful}
	_, err = store.Record(ctx, model.FeedbackRecord{Query: "q", Answer: "a", SourceFeedback: []model.SourceFeedback{helpful}})
	require.NoError(t, err)

	sources := []model.Source{
		{Chunk: model.Chunk{DocumentRef: "IS3218", Page: 1, TextOriginal: "text"}, Score: 0.5},
	}
	adjusted, err := PostProcess(ctx, store, DefaultPostProcessConfig(), sources)
	require.NoError(t, err)
	require.Len(t, adjusted, 1)
	assert.InDelta(t, 0.5+0.5*0.15*1, adjusted[0].Score, 1e-9)
}

func TestPostProcess_PenalizesNegativeScoreAndFloorsAtZero(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)

	fp := Fingerprint("IS3218", 1, "text")
	for i := 0; i < 4; i++ {
		_, err = store.Record(ctx, model.FeedbackRecord{Query: "q", Answer: "a", SourceFeedback: []model.SourceFeedback{
			{Document: "IS3218", Page: 1, ChunkFingerprint: fp, Rating: model.RatingIrrelevant},
		}})
		require.NoError(t, err)
	}

	sources := []model.Source{{Chunk: model.Chunk{DocumentRef: "IS3218", Page: 1, TextOriginal: "text"}, Score: 0.1}}
	adjusted, err := PostProcess(ctx, store, DefaultPostProcessConfig(), sources)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, adjusted[0].Score, 0.0)
}

func TestPostProcess_ZeroScoreLeavesOrderAndValueUnchanged(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)

	sources := []model.Source{
		{Chunk: model.Chunk{DocumentRef: "A", Page: 1, TextOriginal: "x"}, Score: 0.9},
		{Chunk: model.Chunk{DocumentRef: "B", Page: 1, TextOriginal: "y"}, Score: 0.3},
	}
	adjusted, err := PostProcess(ctx, store, DefaultPostProcessConfig(), sources)
	require.NoError(t, err)
	assert.Equal(t, 0.9, adjusted[0].Score)
	assert.Equal(t, 0.3, adjusted[1].Score)
}

func TestPostProcess_EmptyIsTotal(t *testing.T) {
	ctx := context.Background()
	store, err := New(setupTestDB(t))
	require.NoError(t, err)

	adjusted, err := PostProcess(ctx, store, DefaultPostProcessConfig(), nil)
	require.NoError(t, err)
	assert.Empty(t, adjusted)
}
