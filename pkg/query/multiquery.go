package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/standards-engine/retrieval/pkg/llm"
)

// MultiQueryExpander generates paraphrased variations of a query with an
// LLM, grounded on the teacher's LLMQueryExpander
// (pkg/context/query_expansion.go), adapted from *pb.Message chat turns
// to pkg/llm.Message.
type MultiQueryExpander struct {
	client llm.Client
}

// NewMultiQueryExpander builds an expander backed by client.
func NewMultiQueryExpander(client llm.Client) *MultiQueryExpander {
	return &MultiQueryExpander{client: client}
}

// Expand returns up to numVariations paraphrases of query; a non-positive
// numVariations defaults to 3 and values above 5 are capped at 5. A
// malformed LLM response degrades to the original query; a failed LLM
// call is returned as an error.
func (e *MultiQueryExpander) Expand(ctx context.Context, query string, numVariations int) ([]string, error) {
	if numVariations <= 0 {
		numVariations = 3
	}
	if numVariations > 5 {
		numVariations = 5
	}

	prompt := fmt.Sprintf(`Generate %d different query variations for the following search query. Each variation should:
1. Use different wording or phrasing
2. Focus on different aspects or perspectives
3. Be semantically similar but not identical
4. Be suitable for document retrieval

Original query: %s

Return only a JSON array of query strings, without any additional text or explanation.
Example format: ["query 1", "query 2", "query 3"]`, numVariations, query)

	response, err := e.client.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query variations: %w", err)
	}

	queries := parseQueryArray(response)
	if len(queries) == 0 {
		queries = []string{query}
	}
	if len(queries) > numVariations {
		queries = queries[:numVariations]
	}
	return queries, nil
}

// parseQueryArray extracts the quoted strings from a `["a", "b"]`-shaped
// LLM response, tolerating leading/trailing prose around the array.
func parseQueryArray(response string) []string {
	start := strings.IndexByte(response, '[')
	end := strings.LastIndexByte(response, ']')
	if start == -1 || end == -1 || end < start {
		return nil
	}
	body := response[start+1 : end]

	var queries []string
	var current strings.Builder
	inQuotes := false
	escape := false

	for _, r := range body {
		if escape {
			current.WriteRune(r)
			escape = false
			continue
		}
		if r == '\\' {
			escape = true
			continue
		}
		if r == '"' {
			if inQuotes {
				queries = append(queries, current.String())
				current.Reset()
			}
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			current.WriteRune(r)
		}
	}

	return queries
}
