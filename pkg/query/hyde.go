package query

import (
	"context"
	"fmt"

	"github.com/standards-engine/retrieval/pkg/embed"
	"github.com/standards-engine/retrieval/pkg/llm"
)

// HyDEGenerator implements Hypothetical Document Embeddings: instead of
// embedding the raw query, it asks an LLM to write a short hypothetical
// answer and embeds that instead, grounded on the teacher's
// searchWithHyDE/generateHypotheticalDocument (pkg/context/hyde.go).
type HyDEGenerator struct {
	client llm.Client
}

// NewHyDEGenerator builds a generator backed by client.
func NewHyDEGenerator(client llm.Client) *HyDEGenerator {
	return &HyDEGenerator{client: client}
}

// Embed generates a hypothetical document for query and returns its
// embedding under provider. Any failure (LLM or embedding) is returned
// to the caller, who is expected to fall back to embedding the raw query.
func (h *HyDEGenerator) Embed(ctx context.Context, query string, provider embed.Provider) ([]float32, error) {
	doc, err := h.generate(ctx, query)
	if err != nil {
		return nil, err
	}

	vecs, err := provider.EmbedBatch(ctx, []string{doc})
	if err != nil {
		return nil, fmt.Errorf("failed to embed hypothetical document: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vectors for hypothetical document")
	}
	return vecs[0], nil
}

func (h *HyDEGenerator) generate(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(`Write a concise, hypothetical document that would be highly relevant to answer the following query: %q

The document should be brief and directly address the core of the query.`, query)

	messages := []llm.Message{
		{Role: "system", Content: "You are an expert document writer. Your task is to generate a hypothetical document that directly answers a given query."},
		{Role: "user", Content: prompt},
	}

	response, err := h.client.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate hypothetical document: %w", err)
	}
	return response, nil
}
