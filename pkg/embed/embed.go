// Package embed provides the embedding client used to populate leaf
// chunks' dense vectors before they reach pkg/vectorstore.
//
// Grounded on the teacher's pkg/embedders registry (EmbedderProvider
// interface, OpenAI batching shape) layered on pkg/httpclient for
// retry/backoff, per the spec's 500ms base / 8s cap / 3 attempt policy.
package embed

import (
	"context"

	"github.com/standards-engine/retrieval/pkg/registry"
)

// Provider embeds one or more texts into fixed-dimension float vectors.
type Provider interface {
	// EmbedBatch embeds texts in request-sized batches, returning one
	// vector per input in the same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed vector dimension this provider produces.
	Dimension() int

	// ModelName returns the embedding model identifier.
	ModelName() string
}

// Registry manages named embedding providers, mirroring the teacher's
// EmbedderRegistry so a deployment can register openai/local/etc. under a
// name. pkg/engine does not consult it: NewFromSettings constructs the
// OpenAI provider directly.
type Registry struct {
	*registry.BaseRegistry[Provider]
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Provider]()}
}
