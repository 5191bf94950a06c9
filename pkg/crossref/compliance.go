package crossref

import (
	"fmt"
	"strconv"
	"strings"
)

// checkCompliance walks every reference document's mandatory requirement
// sentences, finds the best-matching source chunk by topic overlap, and
// emits a value_mismatch issue wherever both sides state a value of the
// same parameter type that disagrees. Grounded on _check_compliance.
func checkCompliance(sourceChunks []docChunk, referenceChunks map[string][]docChunk, focusArea string) []ComplianceIssue {
	priority := priorityTypesForFocus(focusArea)
	var issues []ComplianceIssue

	for refDoc, refChunks := range referenceChunks {
		for _, refChunk := range refChunks {
			if !refChunk.hasMandatory {
				continue
			}

			for _, req := range extractRequirementsFromText(refChunk.text, priority) {
				if priority != nil && len(req.Values) == 0 {
					continue
				}

				matching := findMatchingContent(req.Topic, sourceChunks)
				if matching == nil {
					continue
				}

				if issue := detectValueConflict(*matching, refChunk, req, refDoc, priority); issue != nil {
					issues = append(issues, *issue)
				}
			}
		}
	}

	return issues
}

// detectValueConflict compares the first value in the requirement whose
// parameter type also appears in the source chunk; a differing value
// produces a ComplianceIssue with severity from the percentage-difference
// ladder. Grounded on _detect_value_conflict.
func detectValueConflict(sourceChunk, refChunk docChunk, req crossrefRequirement, refDoc string, priority map[string]bool) *ComplianceIssue {
	refValues := req.Values
	if len(refValues) == 0 {
		return nil
	}

	sourceValues := extractAllValues(sourceChunk.text)
	if priority != nil {
		sourceValues = filterByPriority(sourceValues, priority)
		refValues = filterByPriority(refValues, priority)
	}
	if len(refValues) == 0 {
		return nil
	}

	for _, refVal := range refValues {
		var sourceMatch *valueMatch
		for i := range sourceValues {
			if sourceValues[i].Type == refVal.Type {
				sourceMatch = &sourceValues[i]
				break
			}
		}
		if sourceMatch == nil || sourceMatch.Value == refVal.Value {
			continue
		}

		diffPct := 0.0
		if refVal.Value != 0 {
			diffPct = abs(sourceMatch.Value-refVal.Value) / refVal.Value * 100
		}
		severity := severityFromPercentDiff(diffPct)

		subjectDesc := sourceMatch.Subject
		if subjectDesc == refVal.Type {
			subjectDesc = refVal.Subject
		}
		paramName := strings.Title(strings.ReplaceAll(refVal.Type, "_", " "))

		return &ComplianceIssue{
			Severity: severity,
			Category: CategoryValueMismatch,
			Topic:    fmt.Sprintf("%s - %s", paramName, subjectDesc),
			Description: fmt.Sprintf("%s (%s): your spec has %s, but %s requires %s",
				paramName, subjectDesc, formatValue(sourceMatch.Value), refDoc, formatValue(refVal.Value)),
			SourceDoc:        "",
			SourceSection:    sourceChunk.sectionNumber,
			SourceText:       truncate(sourceChunk.text, 300),
			SourcePage:       sourceChunk.page,
			ReferenceDoc:     refDoc,
			ReferenceSection: refChunk.sectionNumber,
			ReferenceText:    truncate(refChunk.text, 300),
			ReferencePage:    refChunk.page,
			SourceValue:      formatValue(sourceMatch.Value),
			ReferenceValue:   formatValue(refVal.Value),
			Recommendation:   fmt.Sprintf("Review and align %s value with %s requirements", subjectDesc, refDoc),
		}
	}

	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
