package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/standards-engine/retrieval/pkg/extract"
	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/model"
)

// entityRef is one starting point for graph traversal: a standard
// mentioned anywhere in the query or its top-k leaves, or a (document,
// section) pair a leaf chunk actually belongs to. Grounded on
// graph_rag.py's _extract_entities, adapted to the Section label's
// (document, number) key: the original's bare "section_<num>" entity has
// no document scope, which original_source resolves with an unbound
// cross-document MATCH; this implementation only has a document-scoped
// Section node, so section entities are taken from the chunks' own
// section_number rather than re-parsed from free text.
type entityRef struct {
	ref  graphstore.NodeRef
	name string
}

// expand runs spec.md §4.N step 3: entity extraction plus bounded graph
// traversal. A nil graph store, an empty entity set, or a traversal
// failure all degrade to an empty graph block rather than failing the
// query, per §4.N's stage-failure policy.
func (e *Engine) expand(ctx context.Context, queryText string, sources []model.Source) ([]GraphNodeSummary, []string) {
	if e.graph == nil {
		return nil, nil
	}

	entities := extractEntityRefs(queryText, sources)
	if len(entities) == 0 {
		return nil, nil
	}

	expandCtx, cancel := context.WithTimeout(ctx, e.cfg.GraphTraversalTimeout)
	defer cancel()

	filter := graphstore.EdgeFilter{Types: graphEdgeTypes}
	nodes := traverseEntities(expandCtx, e.graph, entities, e.cfg.MaxHops, filter, e.cfg.MaxGraphResults)

	reasoning := []string{fmt.Sprintf("traversed graph from %d entities, found %d related nodes", len(entities), len(nodes))}
	return nodes, reasoning
}

// traverseEntities fans out one Traverse call per entity with a bounded
// wall-clock budget, mirroring the teacher's ParallelSearch
// (pkg/context/search.go) generic fan-out pattern but built on
// golang.org/x/sync/errgroup since every call here shares one result
// shape (graphstore.Path) rather than needing ParallelSearch's generic
// per-target result type. A context deadline mid-flight still yields
// whatever paths completed before it fired, per spec.md §5's "soft
// wall-clock budget ... after which a partial result is returned".
func traverseEntities(ctx context.Context, store graphstore.Store, entities []entityRef, maxHops int, filter graphstore.EdgeFilter, cap int) []GraphNodeSummary {
	type traversal struct {
		paths []graphstore.Path
	}
	results := make([]traversal, len(entities))

	group, gctx := errgroup.WithContext(ctx)
	for i, ent := range entities {
		i, ent := i, ent
		group.Go(func() error {
			paths, err := store.Traverse(gctx, ent.ref, maxHops, filter)
			if err != nil {
				return nil // a single entity's traversal failure is not fatal
			}
			results[i] = traversal{paths: paths}
			return nil
		})
	}
	_ = group.Wait()

	seen := make(map[string]bool)
	var summaries []GraphNodeSummary
	for _, r := range results {
		for _, path := range r.paths {
			for _, node := range path.Nodes {
				key := node.Label + ":" + node.Key
				if seen[key] {
					continue
				}
				seen[key] = true
				summaries = append(summaries, GraphNodeSummary{Label: node.Label, Key: node.Key})
				if len(summaries) >= cap {
					return summaries
				}
			}
		}
	}
	return summaries
}

// extractEntityRefs builds the deduplicated set of graph entry points
// from the query text and the retrieved leaves' own section membership.
func extractEntityRefs(queryText string, sources []model.Source) []entityRef {
	seen := make(map[string]bool)
	var out []entityRef

	addStandard := func(text string) {
		for _, std := range extract.ExtractStandards(text) {
			ref := graphstore.NodeRef{Label: "Standard", Key: std.Canonical}
			key := ref.Label + ":" + ref.Key
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, entityRef{ref: ref, name: std.Canonical})
		}
	}

	addStandard(queryText)
	for _, src := range sources {
		addStandard(src.Chunk.TextOriginal)

		if src.Chunk.SectionNumber == "" {
			continue
		}
		ref := graphstore.NodeRef{Label: "Section", Key: src.Chunk.DocumentRef + "#" + src.Chunk.SectionNumber}
		key := ref.Label + ":" + ref.Key
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, entityRef{ref: ref, name: src.Chunk.SectionNumber})
	}

	return out
}
