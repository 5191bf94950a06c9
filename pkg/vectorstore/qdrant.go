package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/standards-engine/retrieval/pkg/apperrors"
)

// QdrantConfig configures the Qdrant-backed Store, direct descendant of the
// teacher's pkg/vector.QdrantConfig.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// QdrantStore implements Store against a remote Qdrant deployment, the
// primary wired backend (original_source's graph_builder.py uses
// qdrant_client directly).
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore dials a Qdrant gRPC endpoint.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, apperrors.Store(fmt.Sprintf("failed to connect to qdrant at %s:%d", cfg.Host, cfg.Port), err)
	}
	return &QdrantStore{client: client}, nil
}

func (s *QdrantStore) CreateCollection(ctx context.Context, collection string, dim int, distance Distance) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return apperrors.Store("failed to check collection existence", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: toQdrantDistance(distance),
		}),
	})
	if err != nil {
		return apperrors.Store("failed to create collection", err)
	}
	return nil
}

func toQdrantDistance(d Distance) qdrant.Distance {
	switch d {
	case DistanceCosine, "":
		return qdrant.Distance_Cosine
	default:
		return qdrant.Distance_Cosine
	}
}

// Upsert refuses the whole batch if any point's vector dimension
// disagrees with the first point's — Qdrant itself would reject a
// mismatched point server-side, but failing fast avoids a partially
// applied batch when points[0] happens to create the collection.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	dim := len(points[0].Vector)
	for _, p := range points {
		if len(p.Vector) != dim {
			return apperrors.Consistency(fmt.Sprintf("point %s has vector dimension %d, want %d", p.ID, len(p.Vector), dim), nil)
		}
	}

	if err := s.CreateCollection(ctx, collection, dim, DistanceCosine); err != nil {
		return err
	}

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload, err := toQdrantPayload(p.Payload)
		if err != nil {
			return apperrors.Consistency("failed to convert payload", err)
		}
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         structs,
	})
	if err != nil {
		return apperrors.Store("failed to upsert points", err)
	}
	return nil
}

func (s *QdrantStore) Scroll(ctx context.Context, collection string, filter *Filter, limit int, cursor string) (Page, error) {
	if limit <= 0 {
		limit = 100
	}
	limit32 := uint32(limit)

	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         compileQdrantFilter(filter),
		Limit:          &limit32,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	}
	if cursor != "" {
		req.Offset = qdrant.NewID(cursor)
	}

	resp, err := s.client.GetPointsClient().Scroll(ctx, req)
	if err != nil {
		return Page{}, apperrors.Store("failed to scroll points", err)
	}

	points := make([]Point, 0, len(resp.GetResult()))
	for _, rp := range resp.GetResult() {
		points = append(points, Point{
			ID:      pointIDString(rp.GetId()),
			Vector:  denseVector(rp.GetVectors()),
			Payload: fromQdrantPayload(rp.GetPayload()),
		})
	}

	next := ""
	if uint32(len(points)) >= limit32 && len(points) > 0 {
		next = points[len(points)-1].ID
	}

	return Page{Points: points, NextCursor: next}, nil
}

func (s *QdrantStore) Query(ctx context.Context, collection string, vector []float32, k int, filter *Filter) ([]Result, error) {
	req := &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(k),
		Filter:         compileQdrantFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	}

	resp, err := s.client.GetPointsClient().Search(ctx, req)
	if err != nil {
		return nil, apperrors.Store("failed to search points", err)
	}

	results := make([]Result, 0, len(resp.GetResult()))
	for _, sp := range resp.GetResult() {
		results = append(results, Result{
			Point: Point{
				ID:      pointIDString(sp.GetId()),
				Vector:  denseVector(sp.GetVectors()),
				Payload: fromQdrantPayload(sp.GetPayload()),
			},
			Score: float64(sp.GetScore()),
		})
	}
	return results, nil
}

func (s *QdrantStore) Count(ctx context.Context, collection string, filter *Filter) (int, error) {
	exact := true
	resp, err := s.client.GetPointsClient().Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Filter:         compileQdrantFilter(filter),
		Exact:          &exact,
	})
	if err != nil {
		return 0, apperrors.Store("failed to count points", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

func (s *QdrantStore) SetPayload(ctx context.Context, collection, id string, payload map[string]any) error {
	qpayload, err := toQdrantPayload(payload)
	if err != nil {
		return apperrors.Consistency("failed to convert payload", err)
	}

	wait := true
	_, err = s.client.GetPointsClient().SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: collection,
		Payload:        qpayload,
		PointsSelector: pointsSelectorForIDs([]string{id}),
		Wait:           &wait,
	})
	if err != nil {
		return apperrors.Store("failed to set payload", err)
	}
	return nil
}

func (s *QdrantStore) Delete(ctx context.Context, collection string, ids []string, filter *Filter) error {
	if len(ids) == 0 && filter == nil {
		return apperrors.Consistency("delete requires ids or a filter", nil)
	}

	if len(ids) > 0 {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: collection,
			Points:         pointsSelectorForIDs(ids),
		})
		if err != nil {
			return apperrors.Store("failed to delete points by id", err)
		}
	}

	if filter != nil {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: collection,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
					Filter: compileQdrantFilter(filter),
				},
			},
		})
		if err != nil {
			return apperrors.Store("failed to delete points by filter", err)
		}
	}
	return nil
}

func (s *QdrantStore) Close() error { return s.client.Close() }

func pointsSelectorForIDs(ids []string) *qdrant.PointsSelector {
	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewID(id))
	}
	return &qdrant.PointsSelector{
		PointsSelectorOneOf: &qdrant.PointsSelector_Points{
			Points: &qdrant.PointsIdsList{Ids: pointIDs},
		},
	}
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil || id.PointIdOptions == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	default:
		return ""
	}
}

func denseVector(vectors *qdrant.VectorsOutput) []float32 {
	if vectors == nil {
		return nil
	}
	vo := vectors.GetVector()
	if vo == nil {
		return nil
	}
	if dense, ok := vo.Vector.(*qdrant.VectorOutput_Dense); ok && dense.Dense != nil {
		return dense.Dense.Data
	}
	return nil
}

// toQdrantPayload converts a generic payload map to Qdrant's typed value
// wrapper, same conversion the teacher's Upsert does inline.
func toQdrantPayload(payload map[string]any) (map[string]*qdrant.Value, error) {
	out := make(map[string]*qdrant.Value, len(payload))
	for k, v := range payload {
		val, err := qdrant.NewValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		if value == nil {
			continue
		}
		switch v := value.Kind.(type) {
		case *qdrant.Value_StringValue:
			out[key] = v.StringValue
		case *qdrant.Value_IntegerValue:
			out[key] = v.IntegerValue
		case *qdrant.Value_DoubleValue:
			out[key] = v.DoubleValue
		case *qdrant.Value_BoolValue:
			out[key] = v.BoolValue
		case *qdrant.Value_ListValue:
			if v.ListValue == nil {
				continue
			}
			list := make([]any, len(v.ListValue.Values))
			for i, item := range v.ListValue.Values {
				if item == nil {
					continue
				}
				switch iv := item.Kind.(type) {
				case *qdrant.Value_StringValue:
					list[i] = iv.StringValue
				case *qdrant.Value_IntegerValue:
					list[i] = iv.IntegerValue
				case *qdrant.Value_DoubleValue:
					list[i] = iv.DoubleValue
				case *qdrant.Value_BoolValue:
					list[i] = iv.BoolValue
				}
			}
			out[key] = list
		default:
			out[key] = value
		}
	}
	return out
}

// compileQdrantFilter translates the AND/OR/Eq/In tree to Qdrant's native
// Filter message. Or nodes are pushed down via Should (Qdrant's
// at-least-one-matches clause); And nodes via Must.
func compileQdrantFilter(f *Filter) *qdrant.Filter {
	if f == nil {
		return nil
	}

	switch {
	case f.Eq != nil:
		val, err := qdrant.NewValue(f.Eq.Value)
		if err != nil {
			return nil
		}
		return &qdrant.Filter{Must: []*qdrant.Condition{fieldCondition(f.Eq.Field, val)}}

	case f.In != nil:
		conditions := make([]*qdrant.Condition, 0, len(f.In.Values))
		for _, v := range f.In.Values {
			val, err := qdrant.NewValue(v)
			if err != nil {
				continue
			}
			conditions = append(conditions, fieldCondition(f.In.Field, val))
		}
		return &qdrant.Filter{Should: conditions}

	case len(f.And) > 0:
		must := make([]*qdrant.Condition, 0, len(f.And))
		for _, child := range f.And {
			must = append(must, &qdrant.Condition{
				ConditionOneOf: &qdrant.Condition_Filter{Filter: compileQdrantFilter(child)},
			})
		}
		return &qdrant.Filter{Must: must}

	case len(f.Or) > 0:
		should := make([]*qdrant.Condition, 0, len(f.Or))
		for _, child := range f.Or {
			should = append(should, &qdrant.Condition{
				ConditionOneOf: &qdrant.Condition_Filter{Filter: compileQdrantFilter(child)},
			})
		}
		return &qdrant.Filter{Should: should}

	default:
		return nil
	}
}

func fieldCondition(field string, val *qdrant.Value) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: field,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: val.GetStringValue()},
				},
			},
		},
	}
}

var _ Store = (*QdrantStore)(nil)
