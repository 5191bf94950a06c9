package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/extract"
	"github.com/standards-engine/retrieval/pkg/model"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// enrichLeaves runs the entity extractor over every leaf's original text
// as parallel per-chunk tasks, populating ReferencedStandards/SpecValues/
// RequirementStrengths in place. Mirrors spec.md §5: "within a document,
// chunking is single-threaded while embedding and entity extraction run
// as parallel tasks against per-chunk inputs", using the same
// errgroup.WithContext shape as pkg/query/retrieve.go's fan-out, bounded
// here with SetLimit since a document's leaf count is unbounded while a
// query's variation count is not.
func (p *Pipeline) enrichLeaves(ctx context.Context, leaves []model.Chunk) error {
	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.concurrency())

	for i := range leaves {
		i := i
		group.Go(func() error {
			text := leaves[i].TextOriginal
			extraction := extract.ExtractAll(text)
			leaves[i].ReferencedStandards = standardKeys(extraction.Standards)
			leaves[i].SpecValues = extract.ExtractSpecifications(text)
			leaves[i].RequirementStrengths = requirementStrengths(extraction.Requirements)
			return nil
		})
	}
	return group.Wait()
}

func standardKeys(refs []extract.StandardRef) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Canonical
	}
	return out
}

func requirementStrengths(reqs []extract.Requirement) []model.RequirementStrength {
	if len(reqs) == 0 {
		return nil
	}
	seen := make(map[model.RequirementStrength]bool, len(reqs))
	var out []model.RequirementStrength
	for _, r := range reqs {
		if !seen[r.Strength] {
			seen[r.Strength] = true
			out = append(out, r.Strength)
		}
	}
	return out
}

// embedLeaves embeds every leaf's enriched text in one batched call (the
// embedding provider itself sub-batches and retries, per pkg/embed's
// OpenAIProvider), truncating an oversize copy for the embedding request
// only. The stored text_original/text_enriched are never shortened,
// matching spec.md §5's backpressure note.
func (p *Pipeline) embedLeaves(ctx context.Context, leaves []model.Chunk) error {
	if len(leaves) == 0 {
		return nil
	}

	texts := make([]string, len(leaves))
	for i, l := range leaves {
		texts[i] = truncateForEmbedding(l.TextEnriched, p.cfg.maxEmbedChars())
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return apperrors.Provider("embedding failed", err)
	}
	if len(vectors) != len(leaves) {
		return apperrors.Consistency("embedding provider returned a mismatched vector count", nil)
	}
	for i := range leaves {
		leaves[i].Embedding = vectors[i]
	}
	return nil
}

func truncateForEmbedding(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	return text[:max]
}

// upsertLeaves writes every leaf's vector point, then — only once the
// vector upsert has succeeded — links its extracted entities into the
// knowledge graph. This ordering is the store-then-link guarantee of
// spec.md §5: readers must never observe a graph edge for a chunk that
// is not yet retrievable from the vector store.
func (p *Pipeline) upsertLeaves(ctx context.Context, leaves []model.Chunk) error {
	if len(leaves) == 0 {
		return nil
	}

	points := make([]vectorstore.Point, len(leaves))
	for i, l := range leaves {
		points[i] = vectorstore.Point{ID: l.ID, Vector: l.Embedding, Payload: vectorstore.PayloadFromChunk(l)}
	}
	if err := p.vector.Upsert(ctx, p.collection, points); err != nil {
		return apperrors.Store("vector upsert failed", err)
	}

	if p.graph == nil {
		return nil
	}
	for _, l := range leaves {
		if err := p.graph.ProcessChunk(ctx, l); err != nil {
			return apperrors.Store("graph sync failed", err)
		}
	}
	return nil
}
