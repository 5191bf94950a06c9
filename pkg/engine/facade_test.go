package engine

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standards-engine/retrieval/pkg/cache"
	"github.com/standards-engine/retrieval/pkg/catalog"
	"github.com/standards-engine/retrieval/pkg/crossref"
	"github.com/standards-engine/retrieval/pkg/feedback"
	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/ingest"
	"github.com/standards-engine/retrieval/pkg/knowledge"
	"github.com/standards-engine/retrieval/pkg/model"
	"github.com/standards-engine/retrieval/pkg/query"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// hashEmbedder is a deterministic, network-free stand-in for
// embed.Provider, mirroring pkg/ingest's own test fixture.
type hashEmbedder struct{ dim int }

func (h *hashEmbedder) Dimension() int    { return h.dim }
func (h *hashEmbedder) ModelName() string { return "hash-test" }

func (h *hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		hash := 0
		for _, c := range text {
			hash = hash*31 + int(c)
		}
		vec := make([]float32, h.dim)
		for d := 0; d < h.dim; d++ {
			vec[d] = float32((hash + d*97) % 1000)
		}
		out[i] = vec
	}
	return out, nil
}

func setupTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestFacade(t *testing.T) (*Facade, vectorstore.Store, graphstore.Store) {
	t.Helper()
	ctx := context.Background()

	vector, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{})
	require.NoError(t, err)
	require.NoError(t, vector.CreateCollection(ctx, "standards", 8, vectorstore.DistanceCosine))

	graph := graphstore.NewMemStore()
	kc := knowledge.NewConstructor(graph)

	cat, err := catalog.NewEditor(t.TempDir())
	require.NoError(t, err)

	embedder := &hashEmbedder{dim: 8}

	pipeline, err := ingest.NewPipeline(vector, embedder, kc, "standards", ingest.DefaultConfig())
	require.NoError(t, err)
	pipeline = pipeline.WithCatalog(cat)

	feedbackStore, err := feedback.New(setupTestDB(t, "feedback.db"))
	require.NoError(t, err)
	learner := feedback.NewLearner(feedbackStore, graph, feedback.DefaultLearnerConfig())

	queryCache, err := cache.New(setupTestDB(t, "cache.db"), cache.DefaultConfig())
	require.NoError(t, err)

	queryEngine, err := query.NewEngine(vector, graph, embedder, queryCache, feedbackStore, nil, "standards", query.DefaultConfig())
	require.NoError(t, err)

	analyzer, err := crossref.NewAnalyzer(vector, "standards")
	require.NoError(t, err)

	facade := New(vector, graph, kc, cat, pipeline, queryEngine, analyzer, feedbackStore, learner, "standards")
	return facade, vector, graph
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFacade_Ingest_WritesCatalogBeforeIndexing(t *testing.T) {
	f, _, _ := newTestFacade(t)
	ctx := context.Background()

	path := writeTempFile(t, "cabling.md", "# 6 Wiring\n\n## 6.5 Cabling\n\nCable size shall be 2.5 mm² per IEC 60364-5-52.\n")

	report, err := f.Ingest(ctx, []string{path}, ingest.Options{
		Categories: []string{"electrical"},
		Project:    "substation-a",
	})
	require.NoError(t, err)
	require.Len(t, report.Documents, 1)
	assert.Equal(t, ingest.StatusIndexed, report.Documents[0].Status)

	entry, ok := f.catalogData.Lookup("cabling.md")
	require.True(t, ok)
	assert.Equal(t, []string{"electrical"}, entry.AllCategories())
	assert.Equal(t, "substation-a", entry.Project)
}

func TestFacade_Ingest_WithoutMetadataDoesNotTouchCatalog(t *testing.T) {
	f, _, _ := newTestFacade(t)
	ctx := context.Background()

	path := writeTempFile(t, "plain.md", "# 1 Scope\n\nGeneral notes.\n")

	_, err := f.Ingest(ctx, []string{path}, ingest.Options{})
	require.NoError(t, err)

	_, ok := f.catalogData.Lookup("plain.md")
	assert.False(t, ok)
}

func TestFacade_Ingest_RequiresConfiguredIngestion(t *testing.T) {
	f := New(nil, nil, nil, nil, nil, nil, nil, nil, nil, "standards")
	_, err := f.Ingest(context.Background(), []string{"x.md"}, ingest.Options{})
	assert.Error(t, err)
}

func TestFacade_QueryAndSearch_Delegate(t *testing.T) {
	f, _, _ := newTestFacade(t)
	ctx := context.Background()

	path := writeTempFile(t, "lighting.md", "# 1 Scope\n\nEmergency lighting shall comply with EN 1838.\n")
	_, err := f.Ingest(ctx, []string{path}, ingest.Options{})
	require.NoError(t, err)

	result, err := f.Query(ctx, "emergency lighting", nil)
	require.NoError(t, err)
	assert.True(t, result.Degraded) // no LLM client configured
	assert.NotEmpty(t, result.Sources)

	sources, err := f.Search(ctx, "emergency lighting", 5, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, sources)
}

func TestFacade_Stats_AggregatesVectorAndGraphCounts(t *testing.T) {
	f, _, _ := newTestFacade(t)
	ctx := context.Background()

	path := writeTempFile(t, "cabling.md", "# 6 Wiring\n\nCable size shall be 2.5 mm² per IEC 60364-5-52.\n")
	_, err := f.Ingest(ctx, []string{path}, ingest.Options{})
	require.NoError(t, err)

	stats, err := f.Stats(ctx, "/data/chromem")
	require.NoError(t, err)
	assert.Equal(t, "standards", stats.Collection)
	assert.Greater(t, stats.TotalChunks, 0)
	assert.GreaterOrEqual(t, stats.GraphStatistics.NodeCountByLabel["Document"], 1)
	assert.Equal(t, "/data/chromem", stats.StorageLocation)
}

func TestFacade_SubmitFeedback_LearnsOnlyWhenOptedIn(t *testing.T) {
	f, _, _ := newTestFacade(t)
	ctx := context.Background()

	days := 30
	id, err := f.SubmitFeedback(ctx, model.FeedbackRecord{
		Query:             "emergency lighting",
		Answer:            "EN 1838 applies.",
		LearningTimeRange: &days,
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	id2, err := f.SubmitFeedback(ctx, model.FeedbackRecord{Query: "q2", Answer: "a2"})
	require.NoError(t, err)
	assert.Greater(t, id2, int64(0))
}

func TestFacade_AnalyzeCrossReference_Delegates(t *testing.T) {
	f, _, _ := newTestFacade(t)
	ctx := context.Background()

	src := writeTempFile(t, "source.md", "# 1 Scope\n\nCable size shall be 2.5 mm².\n")
	ref := writeTempFile(t, "reference.md", "# 1 Scope\n\nCable size shall be 2.5 mm² per IEC 60364-5-52.\n")
	_, err := f.Ingest(ctx, []string{src, ref}, ingest.Options{})
	require.NoError(t, err)

	report, err := f.AnalyzeCrossReference(ctx, "source", []string{"reference"}, crossref.ModeFullAudit, "", "")
	require.NoError(t, err)
	assert.Equal(t, "source", report.SourceDocument)
}

func TestFacade_RebuildGraph_ReDerivesGraphFromVectorStore(t *testing.T) {
	f, vector, graph := newTestFacade(t)
	ctx := context.Background()

	path := writeTempFile(t, "cabling.md", "# 6 Wiring\n\nCable size shall be 2.5 mm² per IEC 60364-5-52.\n")
	_, err := f.Ingest(ctx, []string{path}, ingest.Options{})
	require.NoError(t, err)

	_, err = graph.PruneEdges(ctx, func(_ model.Edge) bool { return true })
	require.NoError(t, err)

	stats, err := f.RebuildGraph(ctx, false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.NodeCountByLabel["Document"], 1)

	count, err := vector.Count(ctx, "standards", nil)
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}

func TestFacade_RebuildGraph_RequiresConfiguredGraph(t *testing.T) {
	f := New(nil, nil, nil, nil, nil, nil, nil, nil, nil, "standards")
	_, err := f.RebuildGraph(context.Background(), false)
	assert.Error(t, err)
}
