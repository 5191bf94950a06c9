// Package query implements the blended query pipeline: semantic cache
// lookup, dense retrieval, graph-based context expansion, feedback
// re-ranking, context assembly, and LLM generation. Grounded on
// original_source/src/graph_rag.py's GraphRAG.get_answer_with_graph
// (the cache→retrieve→expand→assemble→generate ordering and the
// reasoning-chain idea) and the teacher's pkg/context/search.go family
// (SearchEngine, ParallelSearch, HyDE, multi-query) for the Go retrieval
// idiom.
package query

import (
	"context"
	"time"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/cache"
	"github.com/standards-engine/retrieval/pkg/embed"
	"github.com/standards-engine/retrieval/pkg/feedback"
	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/llm"
	"github.com/standards-engine/retrieval/pkg/model"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// Config tunes the pipeline's per-stage limits, all named directly in
// spec.md §4.N.
type Config struct {
	// TopKInitial is the number of leaves requested from the vector
	// store before re-ranking.
	TopKInitial int

	// MaxGraphResults caps the number of related graph nodes surfaced
	// in the assembled context's "Related Information" block.
	MaxGraphResults int

	// MaxHops bounds graph traversal depth from each query entity.
	MaxHops int

	// ContextCharCap is the hard character limit on the assembled
	// context string handed to the LLM.
	ContextCharCap int

	// GraphTraversalTimeout is the soft wall-clock budget for the
	// expand stage; on expiry the partial traversal collected so far
	// is used instead of failing the query.
	GraphTraversalTimeout time.Duration

	// EnableHyDE generates a hypothetical answer document with the LLM
	// and embeds that instead of the raw query, per HyDE.
	EnableHyDE bool

	// EnableMultiQuery expands the query into variations and merges
	// per-variation vector search results before re-ranking.
	EnableMultiQuery bool

	// MultiQueryVariations is the number of LLM-generated paraphrases
	// requested, in addition to the original query.
	MultiQueryVariations int

	PostProcess feedback.PostProcessConfig
}

// DefaultConfig matches the pipeline defaults named in spec.md §4.N/§5.
func DefaultConfig() Config {
	return Config{
		TopKInitial:           20,
		MaxGraphResults:       10,
		MaxHops:               2,
		ContextCharCap:        8000,
		GraphTraversalTimeout: 2 * time.Second,
		PostProcess:           feedback.DefaultPostProcessConfig(),
	}
}

// graphEdgeTypes is the fixed set of edge kinds the expand stage
// traverses, per spec.md §4.N step 3.
var graphEdgeTypes = []model.EdgeType{
	model.EdgeRefersTo,
	model.EdgeComplements,
	model.EdgeSupersedes,
	model.EdgeRelatedTo,
}

// Result is the structured response of a query, matching §6's
// `query(text, filters?, return_sources?) → {answer, sources[], metadata}`.
type Result struct {
	Answer         string
	Sources        []model.Source
	GraphNodes     []GraphNodeSummary
	ReasoningChain []string
	FromCache      bool
	Degraded       bool // true when the LLM stage failed; Answer carries assembled context instead

	// CachedSourceNames carries a cache hit's stored source document
	// refs (model.CacheEntry.Sources) when FromCache is true. The cache
	// only persists the ref strings, not full model.Source chunks/scores,
	// so this is separate from Sources rather than a lossy reconstruction
	// of it.
	CachedSourceNames []string
}

// GraphNodeSummary is a related-entity surfaced by the expand stage.
// graphstore.Traverse addresses nodes by (label, key) only, so this
// carries no property bag — unlike graph_rag.py's GraphNode.properties,
// which its Neo4j query result rows populated directly.
type GraphNodeSummary struct {
	Label string
	Key   string
}

// Engine wires every stage of the pipeline together.
type Engine struct {
	cache      *cache.Cache
	vector     vectorstore.Store
	graph      graphstore.Store
	embedder   embed.Provider
	feedback   *feedback.Store
	llmClient  llm.Client
	collection string
	cfg        Config
	expander   *MultiQueryExpander
	hyde       *HyDEGenerator
}

// NewEngine builds a query Engine. feedbackStore may be nil: feedback
// re-ranking is then a no-op pass-through. llmClient may be nil: the
// generate stage then returns the assembled context directly, flagged
// Degraded, matching spec.md §7's no-LLM degradation for ProviderError.
func NewEngine(vector vectorstore.Store, graph graphstore.Store, embedder embed.Provider, cache *cache.Cache, feedbackStore *feedback.Store, llmClient llm.Client, collection string, cfg Config) (*Engine, error) {
	if vector == nil {
		return nil, apperrors.Config("query engine requires a vector store", nil)
	}
	if embedder == nil {
		return nil, apperrors.Config("query engine requires an embedding provider", nil)
	}
	if collection == "" {
		return nil, apperrors.Config("query engine requires a collection name", nil)
	}

	e := &Engine{
		cache:      cache,
		vector:     vector,
		graph:      graph,
		embedder:   embedder,
		feedback:   feedbackStore,
		llmClient:  llmClient,
		collection: collection,
		cfg:        cfg,
	}
	if cfg.EnableMultiQuery && llmClient != nil {
		e.expander = NewMultiQueryExpander(llmClient)
	}
	if cfg.EnableHyDE && llmClient != nil {
		e.hyde = NewHyDEGenerator(llmClient)
	}
	return e, nil
}

// Run executes the full pipeline for query text against optional
// filters, implementing spec.md §4.N's state machine:
// received → cache_lookup → (hit→respond | miss→retrieve → rerank →
// expand → assemble → generate → cache_store → respond).
func (e *Engine) Run(ctx context.Context, queryText string, filter *vectorstore.Filter) (Result, error) {
	if queryText == "" {
		return Result{}, apperrors.Config("query text must not be empty", nil)
	}

	queryVec, err := e.embedSingle(ctx, queryText)
	if err != nil {
		return Result{}, apperrors.Provider("failed to embed query", err)
	}

	if e.cache != nil {
		if entry, hit, cerr := e.cache.Get(ctx, queryText, queryVec); cerr == nil && hit {
			return Result{
				Answer:            entry.Answer,
				FromCache:         true,
				CachedSourceNames: entry.Sources,
				ReasoningChain:    []string{"answered from semantic cache"},
			}, nil
		}
	}

	sources, err := e.retrieve(ctx, queryText, queryVec, filter)
	if err != nil {
		return Result{}, apperrors.Provider("retrieval failed", err)
	}

	if e.feedback != nil {
		if reranked, rerr := feedback.PostProcess(ctx, e.feedback, e.cfg.PostProcess, sources); rerr == nil {
			sources = reranked
		}
	}

	graphNodes, reasoningExpand := e.expand(ctx, queryText, sources)

	assembled := assembleContext(sources, graphNodes, e.cfg.ContextCharCap)
	reasoning := buildReasoningChain(queryText, sources, graphNodes)
	reasoning = append(reasoning, reasoningExpand...)

	answer, degraded := e.generate(ctx, queryText, assembled)

	if e.cache != nil && !degraded {
		sourceNames := make([]string, 0, len(sources))
		for _, s := range sources {
			sourceNames = append(sourceNames, s.Chunk.DocumentRef)
		}
		_ = e.cache.Set(ctx, queryText, queryVec, answer, sourceNames)
	}

	return Result{
		Answer:         answer,
		Sources:        sources,
		GraphNodes:     graphNodes,
		ReasoningChain: reasoning,
		Degraded:       degraded,
	}, nil
}

// Search runs §6's `search(text, k, filters?) → sources[]`: dense
// retrieval only, with no semantic-cache lookup, feedback re-ranking,
// graph expansion, or LLM generation — for callers that just want the
// matching chunks (e.g. a citation lookup).
func (e *Engine) Search(ctx context.Context, text string, k int, filter *vectorstore.Filter) ([]model.Source, error) {
	if text == "" {
		return nil, apperrors.Config("search text must not be empty", nil)
	}
	if k <= 0 {
		k = e.cfg.TopKInitial
	}

	vec, err := e.embedSingle(ctx, text)
	if err != nil {
		return nil, apperrors.Provider("failed to embed query", err)
	}

	results, err := e.vector.Query(ctx, e.collection, vec, k, filter)
	if err != nil {
		return nil, apperrors.Provider("search failed", err)
	}
	return sourcesFromResults(results), nil
}

func (e *Engine) embedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embedder.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, apperrors.Provider("embedding provider returned no vectors", nil)
	}
	return vecs[0], nil
}
