package crossref

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standards-engine/retrieval/pkg/model"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{})
	require.NoError(t, err)
	require.NoError(t, store.CreateCollection(context.Background(), "standards", 3, vectorstore.DistanceCosine))

	a, err := NewAnalyzer(store, "standards")
	require.NoError(t, err)
	return a
}

func upsertChunk(t *testing.T, a *Analyzer, c model.Chunk) {
	t.Helper()
	payload := vectorstore.PayloadFromChunk(c)
	err := a.store.Upsert(context.Background(), a.collection, []vectorstore.Point{
		{ID: c.ID, Vector: []float32{1, 0, 0}, Payload: payload},
	})
	require.NoError(t, err)
}

func TestAnalyze_ComplianceValueMismatch(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	upsertChunk(t, a, model.Chunk{ID: "src1", DocumentRef: "my-spec", SectionNumber: "5.2", TextOriginal: "Cable size shall be 2.5 mm²."})
	upsertChunk(t, a, model.Chunk{ID: "ref1", DocumentRef: "IEC60364-5-52", SectionNumber: "5.2", TextOriginal: "Cable size shall be 4 mm²."})

	report, err := a.Analyze(ctx, "my-spec", []string{"IEC60364-5-52"}, ModeComplianceCheck, "cable sizing", "")
	require.NoError(t, err)

	require.Len(t, report.ComplianceIssues, 1)
	issue := report.ComplianceIssues[0]
	assert.Equal(t, CategoryValueMismatch, issue.Category)
	assert.Equal(t, SeverityHigh, issue.Severity)
}

func TestAnalyze_GapAnalysisFindsMissingRequirement(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	upsertChunk(t, a, model.Chunk{ID: "src1", DocumentRef: "my-spec", TextOriginal: "The distribution board shall have a main switch rated 100A."})
	upsertChunk(t, a, model.Chunk{ID: "ref1", DocumentRef: "EN1838", TextOriginal: "Emergency lighting shall comply with EN 1838."})

	report, err := a.Analyze(ctx, "my-spec", []string{"EN1838"}, ModeGapAnalysis, "", "")
	require.NoError(t, err)

	require.Len(t, report.Gaps, 1)
	assert.Equal(t, SeverityHigh, report.Gaps[0].Severity)
	assert.True(t, report.Gaps[0].Mandatory)
}

func TestAnalyze_StandardCoverageFindsMissingStandard(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	upsertChunk(t, a, model.Chunk{ID: "src1", DocumentRef: "my-spec", TextOriginal: "Cables are sized per general practice.", ReferencedStandards: []string{}})
	upsertChunk(t, a, model.Chunk{ID: "ref1", DocumentRef: "IEC60364-5-52", TextOriginal: "See IEC60364-5-52.", ReferencedStandards: []string{"IEC60364-5-52"}})

	report, err := a.Analyze(ctx, "my-spec", []string{"IEC60364-5-52"}, ModeStandardCoverage, "", "")
	require.NoError(t, err)

	assert.Contains(t, report.StandardsMissing, "IEC60364-5-52")
	found := false
	for _, g := range report.Gaps {
		if g.Topic == "Standard Reference: IEC60364-5-52" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyze_FullAuditComputesComplianceScore(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	upsertChunk(t, a, model.Chunk{ID: "src1", DocumentRef: "my-spec", TextOriginal: "General installation notes with no specific values."})
	upsertChunk(t, a, model.Chunk{ID: "ref1", DocumentRef: "IEC60364-5-52", TextOriginal: "Cable size shall be 4 mm²."})

	report, err := a.Analyze(ctx, "my-spec", []string{"IEC60364-5-52"}, ModeFullAudit, "", "")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, report.ComplianceScore, 0.0)
	assert.LessOrEqual(t, report.ComplianceScore, 100.0)
	assert.Equal(t,
		report.CriticalCount+report.HighCount+report.MediumCount+report.LowCount,
		len(report.ComplianceIssues)+len(report.Gaps),
	)
}

func TestAnalyze_EmptyDocumentsProduceEmptyReport(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	report, err := a.Analyze(ctx, "missing-doc", []string{"also-missing"}, ModeFullAudit, "", "")
	require.NoError(t, err)

	assert.Empty(t, report.ComplianceIssues)
	assert.Empty(t, report.ValueComparisons)
}

func TestNewAnalyzer_RequiresStoreAndCollection(t *testing.T) {
	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{})
	require.NoError(t, err)

	_, err = NewAnalyzer(nil, "standards")
	assert.Error(t, err)

	_, err = NewAnalyzer(store, "")
	assert.Error(t, err)
}
