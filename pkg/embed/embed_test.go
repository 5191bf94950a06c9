package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashProvider is a deterministic, network-free stand-in for Provider,
// grounded on the teacher's pkg/memory MockEmbedderProvider hash-based test
// fixture.
type hashProvider struct{ dim int }

func (h *hashProvider) Dimension() int    { return h.dim }
func (h *hashProvider) ModelName() string { return "hash-test" }

func (h *hashProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		hash := 0
		for _, c := range text {
			hash = hash*31 + int(c)
		}
		vec := make([]float32, h.dim)
		for d := 0; d < h.dim; d++ {
			vec[d] = float32((hash + d*97) % 1000)
		}
		out[i] = vec
	}
	return out, nil
}

var _ Provider = (*hashProvider)(nil)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	p := &hashProvider{dim: 8}

	require.NoError(t, reg.Register("hash", p))

	got, ok := reg.Get("hash")
	require.True(t, ok)
	assert.Equal(t, 8, got.Dimension())
}

func TestHashProvider_DeterministicAndOrdered(t *testing.T) {
	p := &hashProvider{dim: 4}
	vectors, err := p.EmbedBatch(context.Background(), []string{"a", "b", "a"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, vectors[0], vectors[2])
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "text-embedding-3-small", "")
	assert.Error(t, err)
}

func TestNewOpenAIProvider_DefaultsDimensionFromModel(t *testing.T) {
	p, err := NewOpenAIProvider("key", "text-embedding-3-large", "")
	require.NoError(t, err)
	assert.Equal(t, 3072, p.Dimension())
}
