// Package knowledge orchestrates pkg/extract and pkg/graphstore to
// persist each ingested chunk's entities and relationships, grounded on
// original_source/src/graph_builder.py's GraphBuilder (document/section/
// standard node creation, REFERS_TO wiring) and knowledge_graph.py's
// AdvancedEntityExtractor/detect_conflicts.
package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/standards-engine/retrieval/pkg/extract"
	"github.com/standards-engine/retrieval/pkg/graphstore"
	"github.com/standards-engine/retrieval/pkg/model"
)

// Constructor persists the entities and relationships extracted from a
// chunk of text into a graphstore.Store.
type Constructor struct {
	store graphstore.Store
}

// NewConstructor builds a Constructor writing to store.
func NewConstructor(store graphstore.Store) *Constructor {
	return &Constructor{store: store}
}

func docRef(documentRef string) graphstore.NodeRef {
	return graphstore.NodeRef{Label: "Document", Key: documentRef}
}

func sectionRef(documentRef, sectionNumber string) graphstore.NodeRef {
	return graphstore.NodeRef{Label: "Section", Key: documentRef + "#" + sectionNumber}
}

func standardRef(canonicalName string) graphstore.NodeRef {
	return graphstore.NodeRef{Label: "Standard", Key: canonicalName}
}

func requirementRef(id string) graphstore.NodeRef {
	return graphstore.NodeRef{Label: "Requirement", Key: id}
}

func specRef(id string) graphstore.NodeRef {
	return graphstore.NodeRef{Label: "Specification", Key: id}
}

// ProcessChunk runs the four-step algorithm from spec.md §4.I against a
// single chunk: ensure Document/Section nodes, link extracted standards,
// create Requirement/Specification nodes and their edges, then wire the
// cross-reference-phrase detector's edges.
func (c *Constructor) ProcessChunk(ctx context.Context, chunk model.Chunk) error {
	if err := c.store.UpsertNode(ctx, docRef(chunk.DocumentRef), map[string]any{"name": chunk.DocumentRef}); err != nil {
		return err
	}

	hasSection := chunk.SectionNumber != ""
	if hasSection {
		secRef := sectionRef(chunk.DocumentRef, chunk.SectionNumber)
		if err := c.store.UpsertNode(ctx, secRef, map[string]any{
			"number":   chunk.SectionNumber,
			"title":    chunk.SectionTitle,
			"document": chunk.DocumentRef,
		}); err != nil {
			return err
		}
		if err := c.store.UpsertEdge(ctx, docRef(chunk.DocumentRef), secRef, model.EdgeContains, nil, true); err != nil {
			return err
		}
	}

	extraction := extract.ExtractAll(chunk.TextOriginal)

	// Step 2: standard references.
	for _, std := range extraction.Standards {
		stdRef := standardRef(std.Canonical)
		if err := c.store.UpsertNode(ctx, stdRef, map[string]any{
			"family": string(std.Family),
			"name":   std.Canonical,
		}); err != nil {
			return err
		}
		if err := c.store.UpsertEdge(ctx, docRef(chunk.DocumentRef), stdRef, model.EdgeRefersTo, nil, true); err != nil {
			return err
		}
		if hasSection {
			secRef := sectionRef(chunk.DocumentRef, chunk.SectionNumber)
			if err := c.store.UpsertEdge(ctx, secRef, stdRef, model.EdgeRefersTo, nil, true); err != nil {
				return err
			}
		}
	}

	// Step 3: requirement sentences, their specifications and cited standards.
	for i, req := range extraction.Requirements {
		reqID := fmt.Sprintf("%s#req%d", chunk.ID, i)
		reqRef := requirementRef(reqID)
		if err := c.store.UpsertNode(ctx, reqRef, map[string]any{
			"strength":        string(req.Strength),
			"full_text":       req.Text,
			"source_document": chunk.DocumentRef,
			"source_section":  chunk.SectionNumber,
		}); err != nil {
			return err
		}

		sentenceSpecs := extract.ExtractSpecifications(req.Text)
		for j, spec := range sentenceSpecs {
			specID := fmt.Sprintf("%s-spec%d", reqID, j)
			base, baseUnit, ok := extract.BaseUnitValue(spec.Value, spec.Unit)
			if !ok {
				base, baseUnit = spec.Value, spec.Unit
			}
			sRef := specRef(specID)
			if err := c.store.UpsertNode(ctx, sRef, map[string]any{
				"param_type": spec.Type,
				"value":      spec.Value,
				"unit":       spec.Unit,
				"base_unit":  baseUnit,
				"base_value": base,
			}); err != nil {
				return err
			}
			if err := c.store.UpsertEdge(ctx, reqRef, sRef, model.EdgeSpecifies, nil, true); err != nil {
				return err
			}
		}

		for _, std := range extract.ExtractStandards(req.Text) {
			stdRef := standardRef(std.Canonical)
			if err := c.store.UpsertEdge(ctx, reqRef, stdRef, model.EdgeRequires, nil, true); err != nil {
				return err
			}
		}
	}

	// Step 4: cross-reference phrases.
	for _, xref := range extraction.CrossReferences {
		edgeType := crossRefEdgeType(xref.ContextPhrase)
		for _, std := range xref.Standards {
			stdRef := standardRef(std.Canonical)
			if err := c.store.UpsertNode(ctx, stdRef, map[string]any{"family": string(std.Family), "name": std.Canonical}); err != nil {
				return err
			}
			if err := c.store.UpsertEdge(ctx, docRef(chunk.DocumentRef), stdRef, edgeType, map[string]any{"context": xref.ReferencedText}, true); err != nil {
				return err
			}
		}
	}

	return nil
}

// crossRefEdgeType maps a cross-reference phrase to the relationship type
// per spec.md §4.I step 4: "complying with" implies REQUIRES, "supersedes"/
// "replaces" implies SUPERSEDES, every other phrase ("as specified in",
// "according to", "see", "refer to", "defined in", ...) implies REFERS_TO.
func crossRefEdgeType(phrase string) model.EdgeType {
	lower := strings.ToLower(phrase)
	switch {
	case strings.Contains(lower, "comply") || strings.Contains(lower, "complies"):
		return model.EdgeRequires
	case strings.Contains(lower, "supersede") || strings.Contains(lower, "replac"):
		return model.EdgeSupersedes
	default:
		return model.EdgeRefersTo
	}
}
