package crossref

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/vectorstore"
)

// Analyzer runs cross-document compliance analyses against a vector
// store's chunk collection.
type Analyzer struct {
	store      vectorstore.Store
	collection string
}

// NewAnalyzer builds an Analyzer over the given collection.
func NewAnalyzer(store vectorstore.Store, collection string) (*Analyzer, error) {
	if store == nil {
		return nil, apperrors.Config("cross-reference analyzer requires a vector store", nil)
	}
	if collection == "" {
		return nil, apperrors.Config("cross-reference analyzer requires a collection name", nil)
	}
	return &Analyzer{store: store, collection: collection}, nil
}

// Analyze runs the requested mode(s) against sourceDoc and referenceDocs,
// returning an aggregated Report. Grounded on
// CrossReferenceEngineV2.analyze: the per-mode dispatch, the final
// deduplication, and the compliance-score formula all carry over
// unchanged.
func (a *Analyzer) Analyze(ctx context.Context, sourceDoc string, referenceDocs []string, mode AnalysisMode, focusArea, sectionFilter string) (Report, error) {
	report := Report{
		Mode:               mode,
		SourceDocument:     sourceDoc,
		ReferenceDocuments: referenceDocs,
		FocusArea:          focusArea,
	}

	sourceChunks, err := a.fetchDocumentChunks(ctx, sourceDoc, focusArea, sectionFilter)
	if err != nil {
		return report, apperrors.Store("failed to load source document chunks", err)
	}

	referenceChunks := make(map[string][]docChunk, len(referenceDocs))
	for _, refDoc := range referenceDocs {
		chunks, err := a.fetchDocumentChunks(ctx, refDoc, focusArea, sectionFilter)
		if err != nil {
			return report, apperrors.Store(fmt.Sprintf("failed to load reference document chunks for %s", refDoc), err)
		}
		referenceChunks[refDoc] = chunks
	}

	if mode == ModeComplianceCheck || mode == ModeFullAudit {
		report.ComplianceIssues = append(report.ComplianceIssues, checkCompliance(sourceChunks, referenceChunks, focusArea)...)
	}
	if mode == ModeGapAnalysis || mode == ModeFullAudit {
		report.Gaps = append(report.Gaps, analyzeGaps(sourceChunks, referenceChunks, focusArea)...)
	}
	if mode == ModeValueComparison || mode == ModeFullAudit {
		report.ValueComparisons = append(report.ValueComparisons, compareValues(sourceChunks, referenceChunks, focusArea)...)
	}
	if mode == ModeStandardCoverage || mode == ModeFullAudit {
		referenced, missing, standardGaps := checkStandardCoverage(sourceChunks, referenceChunks)
		report.StandardsReferenced = referenced
		report.StandardsMissing = missing
		report.Gaps = append(report.Gaps, standardGaps...)
	}

	calculateSummary(&report)
	return report, nil
}

// calculateSummary deduplicates every result slice, tallies severity
// counts, and computes the compliance score and textual summary.
// Grounded on _calculate_summary.
func calculateSummary(report *Report) {
	report.ComplianceIssues = dedupIssuesByDescription(report.ComplianceIssues)
	report.Gaps = dedupGapsByTopic(report.Gaps)
	report.ValueComparisons = dedupValueComparisons(report.ValueComparisons)

	count := func(sev IssueSeverity) int {
		n := 0
		for _, i := range report.ComplianceIssues {
			if i.Severity == sev {
				n++
			}
		}
		for _, g := range report.Gaps {
			if g.Severity == sev {
				n++
			}
		}
		return n
	}

	report.CriticalCount = count(SeverityCritical)
	report.HighCount = count(SeverityHigh)
	report.MediumCount = count(SeverityMedium)
	report.LowCount = count(SeverityLow)

	penalty := report.CriticalCount*20 + report.HighCount*10 + report.MediumCount*5 + report.LowCount
	score := 100 - penalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	report.ComplianceScore = float64(score)

	report.Summary = buildSummary(report)
}

func dedupIssuesByDescription(issues []ComplianceIssue) []ComplianceIssue {
	seen := make(map[string]bool)
	var out []ComplianceIssue
	for _, issue := range issues {
		key := strings.ToLower(strings.TrimSpace(truncate(issue.Description, 100)))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, issue)
	}
	return out
}

func dedupValueComparisons(comparisons []ValueComparison) []ValueComparison {
	seen := make(map[string]bool)
	var out []ValueComparison
	for _, vc := range comparisons {
		key := fmt.Sprintf("%s|%v|%v", vc.Parameter, vc.SourceValue, vc.ReferenceValue)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, vc)
	}
	return out
}

func buildSummary(report *Report) string {
	focus := report.FocusArea
	if focus == "" {
		focus = "All areas"
	}

	lines := []string{
		"Compliance Analysis Complete",
		"",
		fmt.Sprintf("Source: %s", report.SourceDocument),
		fmt.Sprintf("References: %s", strings.Join(report.ReferenceDocuments, ", ")),
		fmt.Sprintf("Focus: %s", focus),
		"",
		fmt.Sprintf("Compliance Score: %.0f%%", report.ComplianceScore),
		"",
		fmt.Sprintf("Critical Issues: %d", report.CriticalCount),
		fmt.Sprintf("High Priority: %d", report.HighCount),
		fmt.Sprintf("Medium Priority: %d", report.MediumCount),
		fmt.Sprintf("Low Priority: %d", report.LowCount),
		"",
		fmt.Sprintf("Total Issues: %d", len(report.ComplianceIssues)),
		fmt.Sprintf("Gaps Found: %d", len(report.Gaps)),
		fmt.Sprintf("Value Comparisons: %d", len(report.ValueComparisons)),
	}

	if len(report.StandardsMissing) > 0 {
		sorted := append([]string{}, report.StandardsMissing...)
		sort.Strings(sorted)
		lines = append(lines, "", fmt.Sprintf("Standards not referenced: %d", len(sorted)))
	}

	return strings.Join(lines, "\n")
}
