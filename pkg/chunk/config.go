// Package chunk builds the hierarchical chunk tree for a document: a root
// node carrying the whole document, interior nodes bounded by section, and
// leaves — the indexed, embedding-bearing retrieval units — each prefixed
// with a deterministic context summary before embedding.
//
// Grounded on the teacher's pkg/rag/chunker.go strategy/config shape and
// original_source/src/contextual_chunker.py's ContextualChunker (context
// prefix format, document-summary heuristic, table-context detection).
package chunk

// Config controls the hierarchical split. Sizes lists the approximate
// character budget per level, largest (document-adjacent) first and
// smallest (leaf) last — the spec's default is [1024, 512, 128].
type Config struct {
	Sizes      []int
	OverlapMax int
	PrefixCap  int
}

// DefaultConfig returns the spec's default hierarchy.
func DefaultConfig() Config {
	return Config{
		Sizes:      []int{1024, 512, 128},
		OverlapMax: 64,
		PrefixCap:  200,
	}
}

func (c *Config) setDefaults() {
	if len(c.Sizes) == 0 {
		c.Sizes = []int{1024, 512, 128}
	}
	if c.OverlapMax <= 0 {
		c.OverlapMax = 64
	}
	if c.PrefixCap <= 0 {
		c.PrefixCap = 200
	}
}

func (c Config) leafSize() int {
	return c.Sizes[len(c.Sizes)-1]
}

func (c Config) rootLevel() int {
	return len(c.Sizes) - 1
}
