package engine

import (
	"context"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/model"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// scrollPageSize mirrors build_graph_from_qdrant's client.scroll(limit=100)
// page size.
const scrollPageSize = 100

// RebuildGraph is §6's `rebuild_graph() → GraphStats`, grounded on
// original_source/src/graph_builder.py's build_graph_from_qdrant: walk
// every chunk already indexed in the vector store and re-run the
// knowledge-graph construction algorithm over it, independent of the
// ingestion pipeline that first produced the chunks. clearExisting prunes
// every edge before rebuilding, mirroring build_graph's clear_existing
// flag; the graphstore.Store interface exposes no node-deletion
// primitive, so orphaned nodes from since-deleted documents are not
// removed by a rebuild — only edges are pruned and re-derived.
func (f *Facade) RebuildGraph(ctx context.Context, clearExisting bool) (graphstore.Statistics, error) {
	if f.vector == nil {
		return graphstore.Statistics{}, apperrors.Config("vector store is not configured", nil)
	}
	if f.graph == nil || f.knowledge == nil {
		return graphstore.Statistics{}, apperrors.Config("knowledge graph is not configured", nil)
	}

	if clearExisting {
		if _, err := f.graph.PruneEdges(ctx, func(_ model.Edge) bool { return true }); err != nil {
			return graphstore.Statistics{}, apperrors.Store("failed to clear existing graph edges", err)
		}
	}

	if err := f.graph.EnsureIndexes(ctx); err != nil {
		return graphstore.Statistics{}, apperrors.Store("failed to ensure graph indexes", err)
	}

	cursor := ""
	for {
		if ctx.Err() != nil {
			return graphstore.Statistics{}, ctx.Err()
		}

		page, err := f.vector.Scroll(ctx, f.collection, nil, scrollPageSize, cursor)
		if err != nil {
			return graphstore.Statistics{}, apperrors.Store("failed to scroll vector store", err)
		}

		for _, point := range page.Points {
			c := vectorstore.ChunkFromResult(vectorstore.Result{Point: point})
			if err := f.knowledge.ProcessChunk(ctx, c); err != nil {
				return graphstore.Statistics{}, apperrors.Store("failed to rebuild graph for chunk "+point.ID, err)
			}
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return f.graph.Statistics(ctx)
}
