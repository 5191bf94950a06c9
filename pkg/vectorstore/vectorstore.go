// Package vectorstore adapts a pluggable vector database behind a single
// Store interface, grounded on the teacher's pkg/vector.Provider shape
// (Upsert/Search/Delete/CreateCollection) generalised to the seven
// operations required here: Upsert, Scroll, Query, Count, SetPayload,
// Delete, CreateCollection.
package vectorstore

import "context"

// Point is a single vector record: an embedding plus an arbitrary payload
// keyed by id. Payload values are restricted to the JSON-representable
// scalar/slice shapes every backend (Qdrant payload, chromem string map)
// can carry.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Result is a scored point returned from Query.
type Result struct {
	Point
	Score float64
}

// Page is one page of a Scroll traversal.
type Page struct {
	Points     []Point
	NextCursor string // empty once exhausted
}

// Distance enumerates supported similarity metrics. Cosine is the only
// metric the spec names; the type exists so CreateCollection reads the
// same way every backend's own config struct does.
type Distance string

const (
	DistanceCosine Distance = "cosine"
)

// Store is the adapter every vector backend implements.
type Store interface {
	// Upsert inserts or updates points, idempotent on Point.ID. A point
	// whose vector dimension does not match the collection's configured
	// dimension must be refused wholesale (apperrors.Consistency), not
	// partially applied.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Scroll pages through points matching filter in stable id order.
	// limit <= 0 uses a backend default. cursor is the empty string on
	// the first call and Page.NextCursor thereafter; an empty returned
	// cursor means no further pages remain.
	Scroll(ctx context.Context, collection string, filter *Filter, limit int, cursor string) (Page, error)

	// Query performs a k-nearest-neighbour similarity search, optionally
	// narrowed by filter.
	Query(ctx context.Context, collection string, vector []float32, k int, filter *Filter) ([]Result, error)

	// Count reports how many points match filter (nil matches all).
	Count(ctx context.Context, collection string, filter *Filter) (int, error)

	// SetPayload partially merges fields into an existing point's
	// payload; unmentioned keys are left untouched.
	SetPayload(ctx context.Context, collection, id string, payload map[string]any) error

	// Delete removes points by id, by filter, or both (union of the two
	// sets). At least one of ids/filter must be non-empty.
	Delete(ctx context.Context, collection string, ids []string, filter *Filter) error

	// CreateCollection creates a collection with the given vector
	// dimension and distance metric if it does not already exist.
	CreateCollection(ctx context.Context, collection string, dim int, distance Distance) error
}
