// Package ingest orchestrates the bounded ingestion pipeline: parse a
// file into a hierarchical chunk tree, enrich and embed its leaves, then
// persist them to the vector store and knowledge graph in that order.
//
// Grounded on original_source/src/ingestion.py's DocumentIngestion
// (parse_file/ingest_documents/ingest_single_file), with its ad hoc
// async/LlamaIndex flow replaced per spec.md §9 by an explicit bounded
// worker pool — the semaphore-plus-WaitGroup shape is the teacher's own
// pkg/rag/store.go DocumentStore.Index, not a new idiom.
package ingest

import (
	"runtime"

	"github.com/standards-engine/retrieval/pkg/chunk"
	"github.com/standards-engine/retrieval/pkg/model"
)

// Options carries the per-document metadata a caller supplies at ingest
// time, mirroring ingest_single_file's category/project/standard_no/date/
// description parameters. pkg/ingest does not persist these anywhere
// itself (the chunk payload has no room for document-level metadata); it
// threads them into the returned Document so a caller such as pkg/engine
// can update the category/project catalog only after a successful
// ingest.
type Options struct {
	Categories   []string
	Project      string
	StandardNo   string
	Date         string
	Description  string
	ForceReindex bool
}

// Status is a document's ingestion outcome.
type Status string

const (
	StatusIndexed Status = "indexed"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// DocumentResult is one file's outcome within a Report.
type DocumentResult struct {
	Document string
	Chunks   int
	Status   Status
	Error    string

	// Metadata carries the document-level fields from Options, populated
	// only on a successful index; pkg/ingest never persists these
	// itself, leaving catalog updates to the caller.
	Metadata model.Document
}

// Report aggregates every file's outcome for one Ingest call, matching
// §6's `ingest(paths, options) → IngestReport`.
type Report struct {
	Documents   []DocumentResult
	TotalChunks int
}

// Config tunes the pipeline's concurrency and chunking behaviour.
type Config struct {
	// Concurrency bounds how many files are parsed and persisted at
	// once. <= 0 resolves to min(runtime.NumCPU(), 8), spec.md §5's
	// default.
	Concurrency int

	// MaxEmbedChars caps the text handed to the embedding provider per
	// leaf; the stored text_original/text_enriched are never truncated.
	// <= 0 disables truncation.
	MaxEmbedChars int

	ChunkConfig chunk.Config
}

// DefaultConfig returns the spec's pipeline defaults.
func DefaultConfig() Config {
	return Config{
		MaxEmbedChars: 8000,
		ChunkConfig:   chunk.DefaultConfig(),
	}
}

func (c Config) concurrency() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (c Config) maxEmbedChars() int {
	return c.MaxEmbedChars
}
