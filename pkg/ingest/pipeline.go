package ingest

import (
	"context"
	"strings"
	"sync"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/catalog"
	"github.com/standards-engine/retrieval/pkg/embed"
	"github.com/standards-engine/retrieval/pkg/knowledge"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// Pipeline runs the bounded ingestion pipeline against a vector store, an
// optional knowledge graph constructor, and an embedding provider.
type Pipeline struct {
	vector     vectorstore.Store
	embedder   embed.Provider
	graph      *knowledge.Constructor // nil disables graph sync; vector-only ingest
	catalog    *catalog.Editor        // nil disables stored-metadata fallback
	collection string
	cfg        Config
}

// NewPipeline builds a Pipeline. graph may be nil: chunks are then
// embedded and upserted but never linked into the knowledge graph.
func NewPipeline(vector vectorstore.Store, embedder embed.Provider, graph *knowledge.Constructor, collection string, cfg Config) (*Pipeline, error) {
	if vector == nil {
		return nil, apperrors.Config("ingestion pipeline requires a vector store", nil)
	}
	if embedder == nil {
		return nil, apperrors.Config("ingestion pipeline requires an embedding provider", nil)
	}
	if collection == "" {
		return nil, apperrors.Config("ingestion pipeline requires a collection name", nil)
	}
	return &Pipeline{vector: vector, embedder: embedder, graph: graph, collection: collection, cfg: cfg}, nil
}

// WithCatalog attaches a category/project mapping consulted whenever Options
// leaves a metadata field unset, mirroring parse_file's "prefer the
// parameter, fall back to the stored mapping" precedence. Returns p for
// chaining; a nil Editor disables the fallback (the zero-value default).
func (p *Pipeline) WithCatalog(e *catalog.Editor) *Pipeline {
	p.catalog = e
	return p
}

// Ingest runs the bounded-pipeline ingestion over paths, replacing
// ingestion.py's ad hoc async ingest_documents loop with an explicit
// worker pool (spec.md §9): files are parsed and persisted with bounded
// concurrency (default min(NumCPU, 8)); the cancellation token is checked
// between files, matching spec.md §5's cancellation granularity.
func (p *Pipeline) Ingest(ctx context.Context, paths []string, opts Options) (Report, error) {
	sem := make(chan struct{}, p.cfg.concurrency())

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]DocumentResult, 0, len(paths))

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		path := path
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			res := p.ingestOne(ctx, path, opts)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}
	wg.Wait()

	report := Report{Documents: results}
	for _, r := range results {
		report.TotalChunks += r.Chunks
	}
	return report, nil
}

// IngestFile runs the pipeline for a single file, mirroring
// ingestion.py's ingest_single_file entry point for interactive
// single-document indexing outside a bulk run.
func (p *Pipeline) IngestFile(ctx context.Context, path string, opts Options) DocumentResult {
	return p.ingestOne(ctx, path, opts)
}

func (p *Pipeline) ingestOne(ctx context.Context, path string, opts Options) DocumentResult {
	name := documentName(path)
	fileName := DocumentFileName(path)

	text, pageOf, err := readFile(path)
	if err != nil {
		return DocumentResult{Document: name, Status: StatusFailed, Error: err.Error()}
	}
	if strings.TrimSpace(text) == "" {
		return DocumentResult{Document: name, Status: StatusSkipped}
	}

	leaves := p.parseDocument(name, fileName, text, pageOf, opts)
	if len(leaves) == 0 {
		return DocumentResult{Document: name, Status: StatusSkipped}
	}

	if opts.ForceReindex {
		if err := p.vector.Delete(ctx, p.collection, nil, vectorstore.Eq("document_ref", name)); err != nil {
			return DocumentResult{Document: name, Status: StatusFailed, Error: err.Error()}
		}
	}

	if err := p.enrichLeaves(ctx, leaves); err != nil {
		return DocumentResult{Document: name, Status: StatusFailed, Error: err.Error()}
	}
	if ctx.Err() != nil {
		return DocumentResult{Document: name, Status: StatusFailed, Error: ctx.Err().Error()}
	}
	if err := p.embedLeaves(ctx, leaves); err != nil {
		return DocumentResult{Document: name, Status: StatusFailed, Error: err.Error()}
	}
	if err := p.upsertLeaves(ctx, leaves); err != nil {
		return DocumentResult{Document: name, Status: StatusFailed, Error: err.Error()}
	}

	return DocumentResult{
		Document: name,
		Chunks:   len(leaves),
		Status:   StatusIndexed,
		Metadata: p.documentMetadata(name, fileName, opts, len(leaves)),
	}
}
