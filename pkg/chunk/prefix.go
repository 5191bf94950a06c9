package chunk

import (
	"fmt"
	"strings"

	"github.com/standards-engine/retrieval/pkg/model"
)

// DocumentSummary renders the "[Document: ...]" bracket line's payload,
// preferring an explicit description, then a standard-number-derived
// summary, then a bare name — each optionally extended with categories.
func DocumentSummary(doc model.Document) string {
	categories := strings.Join(doc.Categories, ", ")

	if doc.Description != "" {
		return fmt.Sprintf("Document '%s': %s", doc.Name, doc.Description)
	}

	if doc.StandardNo != "" {
		summary := fmt.Sprintf("Technical standard %s (%s)", doc.StandardNo, doc.Name)
		if categories != "" {
			summary += " covering " + categories
		}
		return summary
	}

	summary := fmt.Sprintf("Document '%s'", doc.Name)
	if categories != "" {
		summary += " categorized as " + categories
	}
	return summary
}

// position classifies a leaf's place among its parent's children, per
// the <first|middle(idx/total)|end> bracket format.
func position(index, total int) string {
	switch {
	case total <= 1:
		return ""
	case index == 0:
		return "first"
	case index == total-1:
		return "end"
	default:
		return fmt.Sprintf("middle(%d/%d)", index+1, total)
	}
}

// tableContext describes a leaf's embedded table(s) for the context
// prefix, or "" if the leaf carries none.
func tableContext(payload *model.TablePayload) string {
	if payload == nil {
		return ""
	}
	if payload.Summary != "" {
		return payload.Summary
	}
	return "Contains tabular data"
}

// buildContextPrefix assembles the bracketed context prefix: Document,
// Section, Page, table context, and Position lines, each optional except
// Document. If the assembled prefix exceeds cap, only the first three
// assembled lines survive: Document, then Section and Page when present;
// when either is absent, the next line in the order above takes its place.
func buildContextPrefix(doc model.Document, sectionPath, sectionTitle string, page int, tableCtx, pos string, cap int) string {
	var lines []string
	lines = append(lines, "[Document: "+DocumentSummary(doc)+"]")

	switch {
	case sectionPath != "":
		lines = append(lines, "[Section: "+sectionPath+"]")
	case sectionTitle != "":
		lines = append(lines, "[Section: "+sectionTitle+"]")
	}

	if page > 0 {
		lines = append(lines, fmt.Sprintf("[Page: %d]", page))
	}

	if tableCtx != "" {
		lines = append(lines, "["+tableCtx+"]")
	}

	if pos != "" {
		lines = append(lines, "[Position: "+pos+"]")
	}

	prefix := strings.Join(lines, "\n")
	if len(prefix) > cap && len(lines) > 3 {
		prefix = strings.Join(lines[:3], "\n")
	}
	return prefix
}

// enrich prepends the context prefix to original, separated by a blank
// line, to form text_enriched.
func enrich(prefix, original string) string {
	if prefix == "" {
		return original
	}
	return prefix + "\n\n" + original
}
