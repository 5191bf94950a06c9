package graphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standards-engine/retrieval/pkg/model"
)

func TestMemStore_UpsertNodeMergesProps(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	ref := NodeRef{Label: "Document", Key: "IS3218"}

	require.NoError(t, s.UpsertNode(ctx, ref, map[string]any{"title": "Fire Detection", "year": 2024}))
	require.NoError(t, s.UpsertNode(ctx, ref, map[string]any{"pages": 120}))

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalNodes, "second upsert must merge, not duplicate")
	assert.Equal(t, 1, stats.NodeCountByLabel["Document"])
}

func TestMemStore_UpsertEdgeMergeVsCreate(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	doc := NodeRef{Label: "Document", Key: "IS3218"}
	std := NodeRef{Label: "Standard", Key: "EN54-11"}

	require.NoError(t, s.UpsertEdge(ctx, doc, std, model.EdgeRefersTo, map[string]any{"context": "first"}, true))
	require.NoError(t, s.UpsertEdge(ctx, doc, std, model.EdgeRefersTo, map[string]any{"context": "second"}, true))

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEdges, "merge=true must not create a parallel edge")

	neighbors, err := s.Neighbors(ctx, doc, EdgeFilter{})
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, std, neighbors[0])
}

func TestMemStore_SetEdgeWeightMonotonicAndCapped(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	d1 := NodeRef{Label: "Document", Key: "A"}
	d2 := NodeRef{Label: "Document", Key: "B"}

	require.NoError(t, s.SetEdgeWeight(ctx, d1, d2, model.EdgeComplements, 0.1, 0.8))
	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, stats.AvgLearnedWeight, 1e-9)

	require.NoError(t, s.SetEdgeWeight(ctx, d1, d2, model.EdgeComplements, 0.1, 0.8))
	stats, err = s.Statistics(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.88, stats.AvgLearnedWeight, 1e-9)
	assert.Equal(t, 1, stats.LearnedEdges, "repeated SetEdgeWeight must strengthen the same edge, not create new ones")

	for i := 0; i < 20; i++ {
		require.NoError(t, s.SetEdgeWeight(ctx, d1, d2, model.EdgeComplements, 0.5, 0.9))
	}
	stats, err = s.Statistics(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.AvgLearnedWeight, 1.0)
}

func TestMemStore_PruneEdgesRemovesMatching(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	d1 := NodeRef{Label: "Document", Key: "A"}
	d2 := NodeRef{Label: "Document", Key: "B"}
	d3 := NodeRef{Label: "Document", Key: "C"}

	require.NoError(t, s.SetEdgeWeight(ctx, d1, d2, model.EdgeComplements, 1.0, 0.2))
	require.NoError(t, s.SetEdgeWeight(ctx, d1, d3, model.EdgeComplements, 1.0, 0.9))

	removed, err := s.PruneEdges(ctx, func(e model.Edge) bool { return e.Weight < 0.5 })
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEdges)
}

func TestMemStore_TraverseRespectsMaxHopsAndFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	a := NodeRef{Label: "Document", Key: "A"}
	b := NodeRef{Label: "Section", Key: "6.5"}
	c := NodeRef{Label: "Standard", Key: "EN54-11"}

	require.NoError(t, s.UpsertEdge(ctx, a, b, model.EdgeContains, nil, true))
	require.NoError(t, s.UpsertEdge(ctx, b, c, model.EdgeRefersTo, nil, true))

	paths, err := s.Traverse(ctx, a, 1, EdgeFilter{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, b, paths[0].Nodes[len(paths[0].Nodes)-1])

	paths, err = s.Traverse(ctx, a, 2, EdgeFilter{})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	var reachedStandard bool
	for _, p := range paths {
		if p.Nodes[len(p.Nodes)-1] == c {
			reachedStandard = true
		}
	}
	assert.True(t, reachedStandard)

	paths, err = s.Traverse(ctx, a, 2, EdgeFilter{Types: []model.EdgeType{model.EdgeContains}})
	require.NoError(t, err)
	require.Len(t, paths, 1, "filtering to CONTAINS must prune the two-hop REFERS_TO path")
}

func TestMemStore_EmptyGraphIsTotal(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalNodes)

	paths, err := s.Traverse(ctx, NodeRef{Label: "Document", Key: "missing"}, 3, EdgeFilter{})
	require.NoError(t, err)
	assert.Empty(t, paths)
}
