package vectorstore

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/standards-engine/retrieval/pkg/apperrors"
)

// PineconeConfig configures the Pinecone-backed Store, a direct port of
// the teacher's pkg/vector.PineconeConfig.
type PineconeConfig struct {
	APIKey    string
	Host      string
	IndexName string
}

// PineconeStore implements Store against a managed Pinecone index.
// Pinecone's client exposes upsert/query/delete-by-id/delete-by-filter
// directly, but no stable-order point listing — Scroll and Count, which
// spec.md's cross-reference analyzer and graph rebuild depend on, have
// no equivalent without an additional metadata index this adapter does
// not maintain. They return a clear StoreError rather than an
// approximation, the same way the teacher's own CreateCollection/
// DeleteCollection surface "not supported here, use the console/API"
// instead of faking the operation.
type PineconeStore struct {
	client    *pinecone.Client
	indexName string
}

// NewPineconeStore dials the Pinecone control plane.
func NewPineconeStore(cfg PineconeConfig) (*PineconeStore, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.Config("pinecone store requires an API key", nil)
	}

	params := pinecone.NewClientParams{ApiKey: cfg.APIKey}
	if cfg.Host != "" {
		params.Host = cfg.Host
	}

	client, err := pinecone.NewClient(params)
	if err != nil {
		return nil, apperrors.Store("failed to create pinecone client", err)
	}

	indexName := cfg.IndexName
	if indexName == "" {
		indexName = "standards-engine"
	}

	return &PineconeStore{client: client, indexName: indexName}, nil
}

func (s *PineconeStore) indexConn(ctx context.Context, collection string) (*pinecone.IndexConnection, error) {
	name := collection
	if name == "" {
		name = s.indexName
	}

	index, err := s.client.DescribeIndex(ctx, name)
	if err != nil {
		return nil, apperrors.Store(fmt.Sprintf("failed to describe pinecone index %s", name), err)
	}

	conn, err := s.client.Index(pinecone.NewIndexConnParams{Host: index.Host})
	if err != nil {
		return nil, apperrors.Store("failed to connect to pinecone index", err)
	}
	return conn, nil
}

// CreateCollection checks that collection already exists as a Pinecone
// index: Pinecone indexes carry a fixed dimension/metric chosen at
// creation time through the console or control-plane API, not through
// this call, matching the teacher's own CreateCollection behaviour.
func (s *PineconeStore) CreateCollection(ctx context.Context, collection string, dim int, distance Distance) error {
	name := collection
	if name == "" {
		name = s.indexName
	}

	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		return apperrors.Store("failed to list pinecone indexes", err)
	}
	for _, idx := range indexes {
		if idx.Name == name {
			return nil
		}
	}
	return apperrors.Config(fmt.Sprintf("pinecone index %s does not exist; create it via the Pinecone console or control-plane API first", name), nil)
}

func (s *PineconeStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	conn, err := s.indexConn(ctx, collection)
	if err != nil {
		return err
	}
	defer conn.Close()

	vectors := make([]*pinecone.Vector, 0, len(points))
	for _, p := range points {
		var metadata *pinecone.Metadata
		if len(p.Payload) > 0 {
			asInterface := make(map[string]any, len(p.Payload))
			for k, v := range p.Payload {
				asInterface[k] = v
			}
			metadata, err = structpb.NewStruct(asInterface)
			if err != nil {
				return apperrors.Consistency("failed to convert payload for pinecone", err)
			}
		}
		vectors = append(vectors, &pinecone.Vector{Id: p.ID, Values: p.Vector, Metadata: metadata})
	}

	if _, err := conn.UpsertVectors(ctx, vectors); err != nil {
		return apperrors.Store("failed to upsert vectors to pinecone", err)
	}
	return nil
}

func (s *PineconeStore) Query(ctx context.Context, collection string, vector []float32, k int, filter *Filter) ([]Result, error) {
	conn, err := s.indexConn(ctx, collection)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	metadataFilter, err := compilePineconeFilter(filter)
	if err != nil {
		return nil, err
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(k),
		MetadataFilter:  metadataFilter,
		IncludeMetadata: true,
		IncludeValues:   true,
	})
	if err != nil {
		return nil, apperrors.Store("failed to query pinecone", err)
	}

	results := make([]Result, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m.Vector == nil {
			continue
		}
		results = append(results, Result{
			Point: Point{
				ID:      m.Vector.Id,
				Vector:  m.Vector.Values,
				Payload: payloadFromStruct(m.Vector.Metadata),
			},
			Score: float64(m.Score),
		})
	}
	return results, nil
}

func (s *PineconeStore) Scroll(ctx context.Context, collection string, filter *Filter, limit int, cursor string) (Page, error) {
	return Page{}, apperrors.Store("pinecone adapter does not support point scrolling; use a scroll-capable vector store (e.g. qdrant, chromem) for cross-reference analysis and graph rebuild", nil)
}

func (s *PineconeStore) Count(ctx context.Context, collection string, filter *Filter) (int, error) {
	return 0, apperrors.Store("pinecone adapter does not support filtered counts", nil)
}

func (s *PineconeStore) SetPayload(ctx context.Context, collection, id string, payload map[string]any) error {
	return apperrors.Store("pinecone adapter does not support partial payload merges; re-upsert the full point instead", nil)
}

func (s *PineconeStore) Delete(ctx context.Context, collection string, ids []string, filter *Filter) error {
	if len(ids) == 0 && filter == nil {
		return apperrors.Consistency("delete requires ids or a filter", nil)
	}

	conn, err := s.indexConn(ctx, collection)
	if err != nil {
		return err
	}
	defer conn.Close()

	if len(ids) > 0 {
		if err := conn.DeleteVectorsById(ctx, ids); err != nil {
			return apperrors.Store("failed to delete pinecone vectors by id", err)
		}
	}

	if filter != nil {
		metadataFilter, err := compilePineconeFilter(filter)
		if err != nil {
			return err
		}
		if err := conn.DeleteVectorsByFilter(ctx, metadataFilter); err != nil {
			return apperrors.Store("failed to delete pinecone vectors by filter", err)
		}
	}
	return nil
}

func (s *PineconeStore) Close() error { return nil }

func payloadFromStruct(m *pinecone.Metadata) map[string]any {
	if m == nil {
		return nil
	}
	return m.AsMap()
}

// compilePineconeFilter translates the AND/OR/Eq/In tree into Pinecone's
// metadata filter expression language ($eq/$in/$and/$or over a plain
// JSON-ish map), encoded the same structpb.NewStruct way the teacher's
// SearchWithFilter/DeleteByFilter do.
func compilePineconeFilter(f *Filter) (*pinecone.MetadataFilter, error) {
	if f == nil {
		return nil, nil
	}
	expr := pineconeFilterExpr(f)
	if expr == nil {
		return nil, nil
	}
	filter, err := structpb.NewStruct(expr)
	if err != nil {
		return nil, apperrors.Consistency("failed to encode pinecone metadata filter", err)
	}
	return filter, nil
}

func pineconeFilterExpr(f *Filter) map[string]any {
	switch {
	case f.Eq != nil:
		return map[string]any{f.Eq.Field: map[string]any{"$eq": f.Eq.Value}}

	case f.In != nil:
		return map[string]any{f.In.Field: map[string]any{"$in": f.In.Values}}

	case len(f.And) > 0:
		clauses := make([]any, 0, len(f.And))
		for _, child := range f.And {
			if expr := pineconeFilterExpr(child); expr != nil {
				clauses = append(clauses, expr)
			}
		}
		return map[string]any{"$and": clauses}

	case len(f.Or) > 0:
		clauses := make([]any, 0, len(f.Or))
		for _, child := range f.Or {
			if expr := pineconeFilterExpr(child); expr != nil {
				clauses = append(clauses, expr)
			}
		}
		return map[string]any{"$or": clauses}

	default:
		return nil
	}
}

var _ Store = (*PineconeStore)(nil)
