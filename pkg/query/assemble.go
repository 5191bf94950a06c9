package query

import (
	"fmt"
	"strings"

	"github.com/standards-engine/retrieval/pkg/model"
)

// assembleContext builds the deterministic context string handed to the
// LLM: a "Relevant Document Sections" block with document/section/page
// headers per source, followed by a "Related Information" block
// summarising graph nodes, hard-capped at charCap characters. Grounded
// on graph_rag.py's _build_combined_context, generalised from the
// original's "document_name (Section X)" header to also carry the page
// number per spec.md §4.N step 5.
func assembleContext(sources []model.Source, graphNodes []GraphNodeSummary, charCap int) string {
	var b strings.Builder

	if len(sources) > 0 {
		b.WriteString("=== Relevant Document Sections ===\n")
		for i, src := range sources {
			header := fmt.Sprintf("\n[%d] %s", i+1, src.Chunk.DocumentRef)
			if src.Chunk.SectionNumber != "" {
				header += fmt.Sprintf(" (Section %s)", src.Chunk.SectionNumber)
			}
			if src.Chunk.Page > 0 {
				header += fmt.Sprintf(", p.%d", src.Chunk.Page)
			}
			b.WriteString(header)
			b.WriteString("\n")
			b.WriteString(src.Chunk.TextOriginal)
			b.WriteString("\n")
		}
	}

	if len(graphNodes) > 0 {
		b.WriteString("\n\n=== Related Information from Knowledge Graph ===")
		for _, node := range graphNodes {
			b.WriteString(fmt.Sprintf("\n• %s: %s", node.Label, node.Key))
		}
	}

	out := b.String()
	if len(out) > charCap {
		out = out[:charCap]
	}
	return out
}

// buildReasoningChain narrates the pipeline's decisions for transparency,
// grounded on graph_rag.py's _generate_reasoning_chain.
func buildReasoningChain(queryText string, sources []model.Source, graphNodes []GraphNodeSummary) []string {
	var chain []string

	entities := extractEntityRefs(queryText, nil)
	if len(entities) > 0 {
		names := make([]string, len(entities))
		for i, e := range entities {
			names[i] = e.name
		}
		chain = append(chain, "identified entities in query: "+strings.Join(names, ", "))
	} else {
		chain = append(chain, "no specific standards/sections identified in query")
	}

	if len(sources) > 0 {
		docs := make(map[string]bool)
		var order []string
		limit := len(sources)
		if limit > 3 {
			limit = 3
		}
		for _, src := range sources[:limit] {
			if !docs[src.Chunk.DocumentRef] {
				docs[src.Chunk.DocumentRef] = true
				order = append(order, src.Chunk.DocumentRef)
			}
		}
		chain = append(chain, "found relevant content in: "+strings.Join(order, ", "))
	}

	if len(graphNodes) > 0 {
		standards := make(map[string]bool)
		var order []string
		for _, node := range graphNodes {
			if node.Label == "Standard" && !standards[node.Key] {
				standards[node.Key] = true
				order = append(order, node.Key)
			}
		}
		if len(order) > 0 {
			chain = append(chain, "related standards identified: "+strings.Join(order, ", "))
		}
	}

	return chain
}
