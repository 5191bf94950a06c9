// Package graphstore adapts the knowledge-graph backend behind a single
// Store interface, grounded on original_source/src/graph_manager.py's
// GraphManager (MERGE-based node/edge upserts, weight tracking, multi-hop
// traversal) and wired to github.com/neo4j/neo4j-go-driver/v5.
package graphstore

import (
	"context"

	"github.com/standards-engine/retrieval/pkg/model"
)

// NodeRef addresses a node by its (label, key) pair, mirroring graph_manager.py's
// MERGE (d:DOCUMENT {name: $name}) pattern: every label has one natural key
// property (DOCUMENT.name, SECTION.number+document, STANDARD.name, ...).
type NodeRef struct {
	Label string
	Key   string
}

// EdgeFilter narrows Traverse/Neighbors/PruneEdges to a subset of edges.
// A zero-value EdgeFilter matches every edge.
type EdgeFilter struct {
	Types       []model.EdgeType
	LearnedOnly bool
	MinWeight   float64
}

func (f EdgeFilter) matches(e model.Edge) bool {
	if f.LearnedOnly && !e.Learned {
		return false
	}
	if e.Weight < f.MinWeight {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == e.Type {
			return true
		}
	}
	return false
}

// Path is one traversal result: the ordered node chain and the edges
// connecting consecutive nodes.
type Path struct {
	Nodes []NodeRef
	Edges []model.Edge
}

// Statistics summarises graph size, mirroring GraphManager.get_graph_statistics.
type Statistics struct {
	NodeCountByLabel map[string]int
	TotalNodes       int
	TotalEdges       int
	LearnedEdges     int
	AvgLearnedWeight float64
}

// Store is the adapter every graph backend implements.
type Store interface {
	// UpsertNode creates or updates a node, merging props into any
	// existing property set (MERGE ... SET n += $props).
	UpsertNode(ctx context.Context, ref NodeRef, props map[string]any) error

	// UpsertEdge creates or merges an edge. When merge is true and an
	// edge of the same (src, dst, type) already exists, props are
	// merged into it rather than creating a parallel edge.
	UpsertEdge(ctx context.Context, src, dst NodeRef, edgeType model.EdgeType, props map[string]any, merge bool) error

	// SetEdgeWeight applies the monotonic learned-edge update
	// w ← min(1.0, w_old + α·confidence), creating the edge at weight
	// min(1.0, confidence) if it does not yet exist.
	SetEdgeWeight(ctx context.Context, src, dst NodeRef, edgeType model.EdgeType, alpha, confidence float64) error

	// PruneEdges removes every edge for which predicate returns true.
	PruneEdges(ctx context.Context, predicate func(model.Edge) bool) (int, error)

	// Traverse performs a bounded-hop walk from start, returning every
	// path of length <= maxHops whose edges satisfy filter.
	Traverse(ctx context.Context, start NodeRef, maxHops int, filter EdgeFilter) ([]Path, error)

	// Neighbors returns the immediate (one-hop) neighbours of start.
	Neighbors(ctx context.Context, start NodeRef, filter EdgeFilter) ([]NodeRef, error)

	// Statistics reports node/edge counts.
	Statistics(ctx context.Context) (Statistics, error)

	// EnsureIndexes creates the mandatory indexes
	// (Document.name), (Section.number, document), (Standard.name).
	EnsureIndexes(ctx context.Context) error

	Close(ctx context.Context) error
}
