package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/model"
)

func TestConstructor_ProcessChunk_CreatesDocumentSectionAndStandardNodes(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemStore()
	c := NewConstructor(store)

	chunk := model.Chunk{
		ID:            "chunk-1",
		DocumentRef:   "IS3218",
		SectionNumber: "6.5.1",
		SectionTitle:  "Cabling",
		TextOriginal:  "Cables shall comply with IEC 60364-5-52 as specified in clause 6.5.",
	}

	require.NoError(t, c.ProcessChunk(ctx, chunk))

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.NodeCountByLabel["Document"], 1)
	assert.GreaterOrEqual(t, stats.NodeCountByLabel["Section"], 1)
	assert.GreaterOrEqual(t, stats.NodeCountByLabel["Standard"], 1)

	neighbors, err := store.Neighbors(ctx, graphstore.NodeRef{Label: "Document", Key: "IS3218"}, graphstore.EdgeFilter{})
	require.NoError(t, err)
	assert.NotEmpty(t, neighbors)
}

func TestConstructor_ProcessChunk_RequirementGetsSpecificationAndStandardEdges(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemStore()
	c := NewConstructor(store)

	chunk := model.Chunk{
		ID:           "chunk-2",
		DocumentRef:  "IS3218",
		TextOriginal: "The supply voltage shall be 230V in accordance with IEC 60364.",
	}

	require.NoError(t, c.ProcessChunk(ctx, chunk))

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.NodeCountByLabel["Requirement"], 1)
	assert.GreaterOrEqual(t, stats.NodeCountByLabel["Specification"], 1)
	assert.GreaterOrEqual(t, stats.TotalEdges, 2)
}

func TestConstructor_ProcessChunk_EmptyTextIsTotal(t *testing.T) {
	ctx := context.Background()
	store := graphstore.NewMemStore()
	c := NewConstructor(store)

	chunk := model.Chunk{ID: "chunk-3", DocumentRef: "doc"}
	require.NoError(t, c.ProcessChunk(ctx, chunk))
}

func TestDetectConflicts_MandatoryProhibitedWithHighOverlap(t *testing.T) {
	r1 := model.Requirement{Strength: model.StrengthMandatory, Text: "the enclosure shall be fire rated for thirty minutes"}
	r2 := model.Requirement{Strength: model.StrengthProhibited, Text: "the enclosure shall not be fire rated for thirty minutes"}

	conflicts := DetectConflicts([]model.Requirement{r1}, []model.Requirement{r2})
	require.Len(t, conflicts, 1)
	assert.Equal(t, "high", conflicts[0].Severity)
	assert.GreaterOrEqual(t, conflicts[0].OverlapScore, 0.3)
}

func TestDetectConflicts_NoConflictWhenStrengthsAgree(t *testing.T) {
	r1 := model.Requirement{Strength: model.StrengthMandatory, Text: "cables shall be copper"}
	r2 := model.Requirement{Strength: model.StrengthMandatory, Text: "cables shall be copper"}

	conflicts := DetectConflicts([]model.Requirement{r1}, []model.Requirement{r2})
	assert.Empty(t, conflicts)
}

func TestDetectConflicts_NoConflictWhenOverlapBelowThreshold(t *testing.T) {
	r1 := model.Requirement{Strength: model.StrengthMandatory, Text: "cables shall be copper"}
	r2 := model.Requirement{Strength: model.StrengthProhibited, Text: "doors must not be painted red"}

	conflicts := DetectConflicts([]model.Requirement{r1}, []model.Requirement{r2})
	assert.Empty(t, conflicts)
}

func TestDetectConflicts_EmptyInputsAreTotal(t *testing.T) {
	assert.Empty(t, DetectConflicts(nil, nil))
}
