// Package engine implements the boundary facade that every excluded
// outer layer (GUI/CLI/HTTP/export) calls through: the seven operations
// of spec.md §6 (Ingest, Query, Search, Stats, SubmitFeedback,
// AnalyzeCrossReference, RebuildGraph), each a thin pass-through onto the
// already-wired component packages.
//
// Grounded on original_source/src/api.py's FastAPI route handlers, which
// play exactly this role over the same seven operations against a single
// shared GraphRAG/DocumentIngestion instance.
package engine

import (
	"context"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/catalog"
	"github.com/standards-engine/retrieval/pkg/crossref"
	"github.com/standards-engine/retrieval/pkg/feedback"
	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/ingest"
	"github.com/standards-engine/retrieval/pkg/knowledge"
	"github.com/standards-engine/retrieval/pkg/model"
	"github.com/standards-engine/retrieval/pkg/query"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// Facade glues the already-constructed components together. Build one
// with New (for tests or custom wiring) or NewFromSettings (full
// production wiring from pkg/settings.Settings).
type Facade struct {
	vector      vectorstore.Store
	graph       graphstore.Store
	knowledge   *knowledge.Constructor
	catalogData *catalog.Editor
	ingestion   *ingest.Pipeline
	queryEngine *query.Engine
	analyzer    *crossref.Analyzer
	feedback    *feedback.Store
	learner     *feedback.Learner
	collection  string
}

// New builds a Facade from already-constructed components. Any component
// may be nil where its owning sub-package tolerates it (ingestion's
// graph sync, the query engine's cache/feedback/LLM); a nil ingestion,
// queryEngine, or analyzer disables the corresponding facade operation,
// returning a ConfigError.
func New(vector vectorstore.Store, graph graphstore.Store, kc *knowledge.Constructor, cat *catalog.Editor, ingestion *ingest.Pipeline, queryEngine *query.Engine, analyzer *crossref.Analyzer, feedbackStore *feedback.Store, learner *feedback.Learner, collection string) *Facade {
	return &Facade{
		vector:      vector,
		graph:       graph,
		knowledge:   kc,
		catalogData: cat,
		ingestion:   ingestion,
		queryEngine: queryEngine,
		analyzer:    analyzer,
		feedback:    feedbackStore,
		learner:     learner,
		collection:  collection,
	}
}

// Ingest runs §6's `ingest(paths, options) → IngestReport`. When a
// catalog.Editor is attached, the supplied metadata is written to the
// stored mapping before indexing begins, mirroring new_document_dialog's
// save_document_categories-then-index ordering: the mapping is durable
// even if indexing itself fails partway through.
func (f *Facade) Ingest(ctx context.Context, paths []string, opts ingest.Options) (ingest.Report, error) {
	if f.ingestion == nil {
		return ingest.Report{}, apperrors.Config("ingestion is not configured", nil)
	}

	if f.catalogData != nil && hasExplicitMetadata(opts) {
		for _, path := range paths {
			if err := f.catalogData.Set(ingest.DocumentFileName(path), catalog.Entry{
				Categories:  opts.Categories,
				Project:     opts.Project,
				StandardNo:  opts.StandardNo,
				Date:        opts.Date,
				Description: opts.Description,
			}); err != nil {
				return ingest.Report{}, err
			}
		}
	}

	return f.ingestion.Ingest(ctx, paths, opts)
}

func hasExplicitMetadata(opts ingest.Options) bool {
	return len(opts.Categories) > 0 || opts.Project != "" || opts.StandardNo != "" || opts.Date != "" || opts.Description != ""
}

// Query runs §6's `query(text, filters?, return_sources?) → {answer,
// sources[], metadata}`.
func (f *Facade) Query(ctx context.Context, text string, filter *vectorstore.Filter) (query.Result, error) {
	if f.queryEngine == nil {
		return query.Result{}, apperrors.Config("query engine is not configured", nil)
	}
	return f.queryEngine.Run(ctx, text, filter)
}

// Search runs §6's `search(text, k, filters?) → sources[]`: a pure
// retrieval call with no graph expansion, re-ranking, or LLM generation,
// for callers that only want the matching chunks (e.g. an export or
// citation-lookup flow).
func (f *Facade) Search(ctx context.Context, text string, k int, filter *vectorstore.Filter) ([]model.Source, error) {
	if f.queryEngine == nil {
		return nil, apperrors.Config("query engine is not configured", nil)
	}
	return f.queryEngine.Search(ctx, text, k, filter)
}

// Stats is §6's `stats() → {collection, total_chunks, storage_location, …}`.
type Stats struct {
	Collection      string
	TotalChunks     int
	StorageLocation string
	GraphStatistics graphstore.Statistics
}

// Stats runs §6's `stats()`.
func (f *Facade) Stats(ctx context.Context, storageLocation string) (Stats, error) {
	if f.vector == nil {
		return Stats{}, apperrors.Config("vector store is not configured", nil)
	}

	count, err := f.vector.Count(ctx, f.collection, nil)
	if err != nil {
		return Stats{}, apperrors.Store("failed to count chunks", err)
	}

	stats := Stats{Collection: f.collection, TotalChunks: count, StorageLocation: storageLocation}
	if f.graph != nil {
		gstats, err := f.graph.Statistics(ctx)
		if err != nil {
			return Stats{}, apperrors.Store("failed to read graph statistics", err)
		}
		stats.GraphStatistics = gstats
	}
	return stats, nil
}

// SubmitFeedback is §6's `submit_feedback(record) → id`.
func (f *Facade) SubmitFeedback(ctx context.Context, rec model.FeedbackRecord) (int64, error) {
	if f.feedback == nil {
		return 0, apperrors.Config("feedback store is not configured", nil)
	}
	id, err := f.feedback.Record(ctx, rec)
	if err != nil {
		return 0, err
	}

	if rec.LearningTimeRange != nil && f.learner != nil {
		if _, err := f.learner.Learn(ctx, nil); err != nil {
			return id, apperrors.Store("feedback recorded but learning pass failed", err)
		}
	}
	return id, nil
}

// AnalyzeCrossReference is §6's `analyze_cross_reference(source,
// references[], mode, focus?) → Report`.
func (f *Facade) AnalyzeCrossReference(ctx context.Context, source string, references []string, mode crossref.AnalysisMode, focusArea, sectionFilter string) (crossref.Report, error) {
	if f.analyzer == nil {
		return crossref.Report{}, apperrors.Config("cross-reference analyzer is not configured", nil)
	}
	return f.analyzer.Analyze(ctx, source, references, mode, focusArea, sectionFilter)
}
