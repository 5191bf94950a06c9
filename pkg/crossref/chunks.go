package crossref

import (
	"context"
	"strconv"
	"strings"

	"github.com/standards-engine/retrieval/pkg/extract"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// fetchDocumentChunks scrolls every leaf chunk belonging to docName,
// applying an optional section-number-prefix filter and an optional
// focus-area keyword filter, and reduces each to the fields the analyses
// below need. Grounded on cross_reference_v2.py's _get_document_chunks,
// adapted from a Qdrant-specific scroll_filter onto pkg/vectorstore's
// backend-neutral Filter/Scroll.
func (a *Analyzer) fetchDocumentChunks(ctx context.Context, docName, focusArea, sectionFilter string) ([]docChunk, error) {
	filter := vectorstore.Eq("document_ref", docName)

	var chunks []docChunk
	cursor := ""
	for {
		page, err := a.store.Scroll(ctx, a.collection, filter, 100, cursor)
		if err != nil {
			return nil, err
		}

		for _, point := range page.Points {
			c := vectorstore.ChunkFromResult(vectorstore.Result{Point: point})
			if c.TextOriginal == "" {
				continue
			}
			if sectionFilter != "" && !strings.HasPrefix(c.SectionNumber, sectionFilter) {
				continue
			}
			if focusArea != "" && !matchesFocus(c.TextOriginal, focusArea) {
				continue
			}

			chunks = append(chunks, docChunk{
				text:                c.TextOriginal,
				page:                strconv.Itoa(c.Page),
				sectionNumber:       c.SectionNumber,
				sectionTitle:        c.SectionTitle,
				hasMandatory:        hasMandatoryRequirement(c.TextOriginal),
				referencedStandards: c.ReferencedStandards,
			})
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return chunks, nil
}

func hasMandatoryRequirement(text string) bool {
	for _, req := range extract.ExtractRequirements(text) {
		if req.Strength == "mandatory" {
			return true
		}
	}
	return false
}

// focusKeywordExpansions mirrors _matches_focus's topic → synonym table.
var focusKeywordExpansions = map[string][]string{
	"cable":        {"cable", "wire", "conductor", "wiring", "core"},
	"sizing":       {"sizing", "size", "cross-section", "cross section", "csa", "mm²", "mm2", "area", "section"},
	"cross":        {"cross-section", "cross section", "csa", "area"},
	"fire":         {"fire", "smoke", "alarm", "detection"},
	"earthing":     {"earthing", "grounding", "earth", "ground"},
	"lighting":     {"lighting", "lux", "luminaire", "lamp"},
	"ups":          {"ups", "uninterruptible", "battery", "backup"},
	"generator":    {"generator", "genset", "diesel", "standby"},
	"hvac":         {"hvac", "ventilation", "cooling", "heating", "air"},
	"security":     {"security", "access", "cctv", "camera"},
	"conduit":      {"conduit", "duct", "ducting", "trunking", "containment"},
	"distribution": {"distribution", "panel", "board", "switchgear", "mcc"},
	"socket":       {"socket", "outlet", "receptacle"},
	"motor":        {"motor", "drive", "vfd", "inverter"},
	"transformer":  {"transformer", "tx"},
}

func matchesFocus(text, focusArea string) bool {
	focusLower := strings.ToLower(focusArea)
	textLower := strings.ToLower(text)

	keywords := map[string]bool{focusLower: true}
	for _, word := range strings.Fields(focusLower) {
		keywords[word] = true
		for key, expansions := range focusKeywordExpansions {
			if strings.Contains(word, key) || containsString(expansions, word) {
				for _, e := range expansions {
					keywords[e] = true
				}
			}
		}
	}
	for key, expansions := range focusKeywordExpansions {
		if strings.Contains(focusLower, key) {
			for _, e := range expansions {
				keywords[e] = true
			}
		}
	}

	for kw := range keywords {
		if kw != "" && strings.Contains(textLower, kw) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
