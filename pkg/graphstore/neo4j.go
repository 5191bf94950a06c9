package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/model"
)

// Neo4jConfig configures the Neo4j-backed Store.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string // defaults to "neo4j"
}

// Neo4jStore implements Store against Neo4j, grounded on
// original_source/src/graph_manager.py's GraphManager: MERGE-based node
// upserts keyed by a single natural-key property, MERGE-based edge
// upserts, and weight tracking on learned edges.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore dials a Neo4j instance and verifies connectivity.
func NewNeo4jStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	if cfg.Database == "" {
		cfg.Database = "neo4j"
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, apperrors.Store("failed to create neo4j driver", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, apperrors.Store(fmt.Sprintf("failed to connect to neo4j at %s", cfg.URI), err)
	}

	return &Neo4jStore{driver: driver, database: cfg.Database}, nil
}

func (s *Neo4jStore) session(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
}

// EnsureIndexes creates the mandatory indexes from spec.md §4.H:
// (Document.name), (Section.number, document), (Standard.name).
func (s *Neo4jStore) EnsureIndexes(ctx context.Context) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	statements := []string{
		`CREATE INDEX document_name IF NOT EXISTS FOR (d:Document) ON (d.name)`,
		`CREATE INDEX section_number IF NOT EXISTS FOR (s:Section) ON (s.number, s.document)`,
		`CREATE INDEX standard_name IF NOT EXISTS FOR (st:Standard) ON (st.name)`,
	}
	for _, stmt := range statements {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx, stmt, nil)
		})
		if err != nil {
			return apperrors.Store("failed to create index", err)
		}
	}
	return nil
}

func (s *Neo4jStore) UpsertNode(ctx context.Context, ref NodeRef, props map[string]any) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`MERGE (n:%s {key: $key}) SET n += $props`, cypherLabel(ref.Label))
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{"key": ref.Key, "props": props})
	})
	if err != nil {
		return apperrors.Store(fmt.Sprintf("failed to upsert node %s:%s", ref.Label, ref.Key), err)
	}
	return nil
}

func (s *Neo4jStore) UpsertEdge(ctx context.Context, src, dst NodeRef, edgeType model.EdgeType, props map[string]any, merge bool) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	verb := "MERGE"
	if !merge {
		verb = "CREATE"
	}
	query := fmt.Sprintf(
		`MATCH (a:%s {key: $srcKey}) MATCH (b:%s {key: $dstKey}) %s (a)-[r:%s]->(b) SET r += $props`,
		cypherLabel(src.Label), cypherLabel(dst.Label), verb, cypherLabel(string(edgeType)),
	)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"srcKey": src.Key,
			"dstKey": dst.Key,
			"props":  props,
		})
	})
	if err != nil {
		return apperrors.Store("failed to upsert edge", err)
	}
	return nil
}

// SetEdgeWeight mirrors the monotonic update from spec.md §4.H:
// w ← min(1.0, w_old + α·confidence), creating the edge at
// min(1.0, confidence) when absent.
func (s *Neo4jStore) SetEdgeWeight(ctx context.Context, src, dst NodeRef, edgeType model.EdgeType, alpha, confidence float64) error {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (a:%s {key: $srcKey})
		MATCH (b:%s {key: $dstKey})
		MERGE (a)-[r:%s]->(b)
		ON CREATE SET r.weight = CASE WHEN $confidence > 1.0 THEN 1.0 ELSE $confidence END, r.learned = true
		ON MATCH SET r.weight = CASE WHEN coalesce(r.weight, 0.0) + $alpha * $confidence > 1.0
			THEN 1.0 ELSE coalesce(r.weight, 0.0) + $alpha * $confidence END, r.learned = true
	`, cypherLabel(src.Label), cypherLabel(dst.Label), cypherLabel(string(edgeType)))

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, map[string]any{
			"srcKey":     src.Key,
			"dstKey":     dst.Key,
			"alpha":      alpha,
			"confidence": confidence,
		})
	})
	if err != nil {
		return apperrors.Store("failed to set edge weight", err)
	}
	return nil
}

func (s *Neo4jStore) PruneEdges(ctx context.Context, predicate func(model.Edge) bool) (int, error) {
	// predicate is an in-process function; Neo4j has no way to evaluate
	// it server-side, so pull every edge, test it locally, and delete the
	// ones it matches individually. Matches
	// graph_manager.py's prune_learned_relationships but generalised from
	// a single weight threshold to an arbitrary predicate.
	session := s.session(ctx)
	defer session.Close(ctx)

	edges, err := s.listAllEdges(ctx, session)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range edges {
		if !predicate(e) {
			continue
		}
		query := fmt.Sprintf(
			`MATCH (a:%s {key: $srcKey})-[r:%s]->(b:%s {key: $dstKey}) DELETE r`,
			cypherLabel(e.SrcLabel), cypherLabel(string(e.Type)), cypherLabel(e.DstLabel),
		)
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx, query, map[string]any{"srcKey": e.SrcKey, "dstKey": e.DstKey})
		})
		if err != nil {
			return removed, apperrors.Store("failed to prune edge", err)
		}
		removed++
	}
	return removed, nil
}

func (s *Neo4jStore) listAllEdges(ctx context.Context, session neo4j.SessionWithContext) ([]model.Edge, error) {
	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (a)-[r]->(b)
			RETURN labels(a)[0] as srcLabel, a.key as srcKey,
			       labels(b)[0] as dstLabel, b.key as dstKey,
			       type(r) as relType, coalesce(r.weight, 0.0) as weight,
			       coalesce(r.learned, false) as learned
		`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, apperrors.Store("failed to list edges", err)
	}

	records := result.([]*neo4j.Record)
	edges := make([]model.Edge, 0, len(records))
	for _, rec := range records {
		m := rec.AsMap()
		edges = append(edges, model.Edge{
			SrcLabel: asString(m["srcLabel"]),
			SrcKey:   asString(m["srcKey"]),
			DstLabel: asString(m["dstLabel"]),
			DstKey:   asString(m["dstKey"]),
			Type:     model.EdgeType(asString(m["relType"])),
			Weight:   asFloat64(m["weight"]),
			Learned:  asBool(m["learned"]),
		})
	}
	return edges, nil
}

func (s *Neo4jStore) Traverse(ctx context.Context, start NodeRef, maxHops int, filter EdgeFilter) ([]Path, error) {
	if maxHops <= 0 {
		return nil, nil
	}

	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH path = (n:%s {key: $key})-[*1..%d]->(m)
		RETURN [node in nodes(path) | {label: labels(node)[0], key: node.key}] as pathNodes,
		       [rel in relationships(path) | {type: type(rel), weight: coalesce(rel.weight, 0.0), learned: coalesce(rel.learned, false),
		            srcLabel: labels(startNode(rel))[0], srcKey: startNode(rel).key,
		            dstLabel: labels(endNode(rel))[0], dstKey: endNode(rel).key}] as pathEdges
		LIMIT 200
	`, cypherLabel(start.Label), maxHops)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"key": start.Key})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, apperrors.Store("failed to traverse", err)
	}

	var paths []Path
	for _, rec := range result.([]*neo4j.Record) {
		m := rec.AsMap()
		edges := decodeEdges(m["pathEdges"])
		if !allMatch(edges, filter) {
			continue
		}
		paths = append(paths, Path{
			Nodes: decodeNodes(m["pathNodes"]),
			Edges: edges,
		})
	}
	return paths, nil
}

func (s *Neo4jStore) Neighbors(ctx context.Context, start NodeRef, filter EdgeFilter) ([]NodeRef, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (n:%s {key: $key})-[r]->(m)
		RETURN DISTINCT labels(m)[0] as label, m.key as key,
		       type(r) as relType, coalesce(r.weight, 0.0) as weight, coalesce(r.learned, false) as learned
	`, cypherLabel(start.Label))

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"key": start.Key})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, apperrors.Store("failed to fetch neighbors", err)
	}

	var out []NodeRef
	for _, rec := range result.([]*neo4j.Record) {
		m := rec.AsMap()
		e := model.Edge{
			Type:    model.EdgeType(asString(m["relType"])),
			Weight:  asFloat64(m["weight"]),
			Learned: asBool(m["learned"]),
		}
		if !filter.matches(e) {
			continue
		}
		out = append(out, NodeRef{Label: asString(m["label"]), Key: asString(m["key"])})
	}
	return out, nil
}

func (s *Neo4jStore) Statistics(ctx context.Context) (Statistics, error) {
	session := s.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (n) RETURN labels(n)[0] as label, count(n) as count
		`, nil)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return Statistics{}, apperrors.Store("failed to fetch node statistics", err)
	}

	stats := Statistics{NodeCountByLabel: map[string]int{}}
	for _, rec := range result.([]*neo4j.Record) {
		m := rec.AsMap()
		label := asString(m["label"])
		count := int(asFloat64(m["count"]))
		stats.NodeCountByLabel[label] = count
		stats.TotalNodes += count
	}

	edgeResult, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH ()-[r]->()
			RETURN count(r) as total,
			       count(CASE WHEN r.learned = true THEN 1 END) as learned,
			       avg(CASE WHEN r.learned = true THEN r.weight END) as avgWeight
		`, nil)
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return stats, apperrors.Store("failed to fetch edge statistics", err)
	}
	rec := edgeResult.(*neo4j.Record)
	m := rec.AsMap()
	stats.TotalEdges = int(asFloat64(m["total"]))
	stats.LearnedEdges = int(asFloat64(m["learned"]))
	stats.AvgLearnedWeight = asFloat64(m["avgWeight"])

	return stats, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// cypherLabel/type names come from our own EdgeType/label constants, never
// from user input, so direct interpolation (Cypher cannot parameterise
// labels or relationship types) is safe.
func cypherLabel(label string) string { return label }

func allMatch(edges []model.Edge, filter EdgeFilter) bool {
	for _, e := range edges {
		if !filter.matches(e) {
			return false
		}
	}
	return true
}

func decodeNodes(v any) []NodeRef {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]NodeRef, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, NodeRef{Label: asString(m["label"]), Key: asString(m["key"])})
	}
	return out
}

func decodeEdges(v any) []model.Edge {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.Edge, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.Edge{
			SrcLabel: asString(m["srcLabel"]),
			SrcKey:   asString(m["srcKey"]),
			DstLabel: asString(m["dstLabel"]),
			DstKey:   asString(m["dstKey"]),
			Type:     model.EdgeType(asString(m["type"])),
			Weight:   asFloat64(m["weight"]),
			Learned:  asBool(m["learned"]),
		})
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

var _ Store = (*Neo4jStore)(nil)
