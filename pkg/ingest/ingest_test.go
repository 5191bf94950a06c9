package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/knowledge"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// hashEmbedder is a deterministic, network-free stand-in for
// embed.Provider, mirroring pkg/embed's own hashProvider test fixture.
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

func newTestPipeline(t *testing.T) (*Pipeline, vectorstore.Store, graphstore.Store) {
	t.Helper()
	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{})
	require.NoError(t, err)
	require.NoError(t, store.CreateCollection(context.Background(), "standards", 8, vectorstore.DistanceCosine))

	graph := graphstore.NewMemStore()
	constructor := knowledge.NewConstructor(graph)

	p, err := NewPipeline(store, &hashEmbedder{dim: 8}, constructor, "standards", DefaultConfig())
	require.NoError(t, err)
	return p, store, graph
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestFile_IndexesLeavesIntoVectorStoreAndGraph(t *testing.T) {
	p, store, graph := newTestPipeline(t)
	ctx := context.Background()

	path := writeTempFile(t, "cabling.md", "# 6 Wiring\n\n## 6.5 Cabling\n\nCable size shall be 2.5 mm² per IEC 60364-5-52.\n")

	result := p.IngestFile(ctx, path, Options{Categories: []string{"electrical"}})

	require.Equal(t, StatusIndexed, result.Status)
	assert.Equal(t, "cabling", result.Document)
	assert.Greater(t, result.Chunks, 0)
	assert.Equal(t, []string{"electrical"}, result.Metadata.Categories)

	count, err := store.Count(ctx, "standards", vectorstore.Eq("document_ref", "cabling"))
	require.NoError(t, err)
	assert.Equal(t, result.Chunks, count)

	stats, err := graph.Statistics(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.NodeCountByLabel["Document"], 1)
	assert.GreaterOrEqual(t, stats.NodeCountByLabel["Standard"], 1)
}

func TestIngestFile_EmptyDocumentIsSkipped(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	path := writeTempFile(t, "empty.txt", "   \n\n  ")

	result := p.IngestFile(context.Background(), path, Options{})

	assert.Equal(t, StatusSkipped, result.Status)
	assert.Equal(t, 0, result.Chunks)
}

func TestIngestFile_UnsupportedExtensionFails(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	path := writeTempFile(t, "notes.docx", "whatever")

	result := p.IngestFile(context.Background(), path, Options{})

	assert.Equal(t, StatusFailed, result.Status)
	assert.NotEmpty(t, result.Error)
}

func TestIngest_ProcessesMultipleFilesConcurrently(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()

	paths := []string{
		writeTempFile(t, "doc-a.md", "# 1 Scope\n\nGeneral notes about cabling practice.\n"),
		writeTempFile(t, "doc-b.md", "# 1 Scope\n\nEmergency lighting shall comply with EN 1838.\n"),
	}

	report, err := p.Ingest(ctx, paths, Options{})
	require.NoError(t, err)

	require.Len(t, report.Documents, 2)
	assert.Equal(t, report.TotalChunks, report.Documents[0].Chunks+report.Documents[1].Chunks)
	for _, d := range report.Documents {
		assert.Equal(t, StatusIndexed, d.Status)
	}
}

func TestIngest_StopsLaunchingNewFilesAfterCancellation(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := []string{writeTempFile(t, "doc-c.md", "# 1 Scope\n\nSome text.\n")}

	report, err := p.Ingest(ctx, paths, Options{})
	require.NoError(t, err)
	assert.Empty(t, report.Documents)
}

func TestNewPipeline_RequiresCollaborators(t *testing.T) {
	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{})
	require.NoError(t, err)
	embedder := &hashEmbedder{dim: 8}

	_, err = NewPipeline(nil, embedder, nil, "standards", DefaultConfig())
	assert.Error(t, err)

	_, err = NewPipeline(store, nil, nil, "standards", DefaultConfig())
	assert.Error(t, err)

	_, err = NewPipeline(store, embedder, nil, "", DefaultConfig())
	assert.Error(t, err)
}
