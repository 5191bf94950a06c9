package query

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/standards-engine/retrieval/pkg/model"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// retrieve runs spec.md §4.N step 2, optionally widened by HyDE and
// multi-query expansion per the [ADD] carried from graph_rag.py's
// query-rewriting behaviour.
func (e *Engine) retrieve(ctx context.Context, queryText string, queryVec []float32, filter *vectorstore.Filter) ([]model.Source, error) {
	vec := queryVec
	if e.hyde != nil {
		if hydeVec, err := e.hyde.Embed(ctx, queryText, e.embedder); err == nil {
			vec = hydeVec
		}
	}

	if e.expander != nil {
		return e.retrieveMultiQuery(ctx, queryText, filter)
	}

	results, err := e.vector.Query(ctx, e.collection, vec, e.cfg.TopKInitial, filter)
	if err != nil {
		return nil, err
	}
	return sourcesFromResults(results), nil
}

// retrieveMultiQuery embeds and searches the original query plus each
// LLM-generated variation in parallel, merging duplicate leaves by
// keeping the maximum score seen for each, mirroring the teacher's
// searchWithMultiQuery in pkg/context/multi_query.go.
func (e *Engine) retrieveMultiQuery(ctx context.Context, queryText string, filter *vectorstore.Filter) ([]model.Source, error) {
	variations, err := e.expander.Expand(ctx, queryText, e.cfg.MultiQueryVariations)
	if err != nil {
		variations = nil
	}
	queries := append([]string{queryText}, variations...)

	perQueryLimit := e.cfg.TopKInitial
	type queryResult struct {
		results []vectorstore.Result
		err     error
	}
	raw := make([]queryResult, len(queries))

	group, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		group.Go(func() error {
			vec, embErr := e.embedSingle(gctx, q)
			if embErr != nil {
				raw[i] = queryResult{err: embErr}
				return nil
			}
			results, searchErr := e.vector.Query(gctx, e.collection, vec, perQueryLimit, filter)
			raw[i] = queryResult{results: results, err: searchErr}
			return nil
		})
	}
	_ = group.Wait()

	merged := make(map[string]vectorstore.Result)
	order := make([]string, 0)
	for _, r := range raw {
		if r.err != nil {
			continue
		}
		for _, res := range r.results {
			if existing, ok := merged[res.ID]; ok {
				if res.Score > existing.Score {
					merged[res.ID] = res
				}
				continue
			}
			merged[res.ID] = res
			order = append(order, res.ID)
		}
	}

	all := make([]vectorstore.Result, 0, len(order))
	for _, id := range order {
		all = append(all, merged[id])
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if len(all) > e.cfg.TopKInitial {
		all = all[:e.cfg.TopKInitial]
	}

	return sourcesFromResults(all), nil
}

func sourcesFromResults(results []vectorstore.Result) []model.Source {
	sources := make([]model.Source, len(results))
	for i, r := range results {
		sources[i] = model.Source{Chunk: vectorstore.ChunkFromResult(r), Score: r.Score}
	}
	return sources
}
