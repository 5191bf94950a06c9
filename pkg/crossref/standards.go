package crossref

import (
	"fmt"
	"strings"

	"github.com/standards-engine/retrieval/pkg/extract"
)

// checkStandardCoverage reports which standards the source document
// references versus what the reference documents expect, and emits a
// medium-severity gap for every missing standard from one of the four
// "primary" families. Grounded on _check_standard_coverage.
func checkStandardCoverage(sourceChunks []docChunk, referenceChunks map[string][]docChunk) (referenced, missing []string, gaps []GapItem) {
	sourceStandards := make(map[string]bool)
	for _, chunk := range sourceChunks {
		for _, s := range chunk.referencedStandards {
			sourceStandards[extract.CanonicalStandardKey(s)] = true
		}
		for _, m := range standardPattern.FindAllString(chunk.text, -1) {
			sourceStandards[extract.CanonicalStandardKey(m)] = true
		}
	}

	refStandards := make(map[string]bool)
	for _, chunks := range referenceChunks {
		for _, chunk := range chunks {
			for _, s := range chunk.referencedStandards {
				refStandards[extract.CanonicalStandardKey(s)] = true
			}
		}
	}

	for s := range sourceStandards {
		if s != "" {
			referenced = append(referenced, s)
		}
	}
	for s := range refStandards {
		if s != "" && !sourceStandards[s] {
			missing = append(missing, s)
		}
	}

	for _, std := range missing {
		if !hasAnyPrimaryPrefix(std) {
			continue
		}
		gaps = append(gaps, GapItem{
			Severity:           SeverityMedium,
			Topic:              fmt.Sprintf("Standard Reference: %s", std),
			Description:        fmt.Sprintf("Standard %s is referenced in requirements but not in your spec", std),
			MissingRequirement: fmt.Sprintf("Reference to %s", std),
			ReferenceDoc:       "Multiple",
			ReferenceSection:   "Various",
			ReferenceText:      fmt.Sprintf("Standard %s appears in reference documents", std),
			ReferencePage:      "N/A",
			Impact:             "May indicate incomplete coverage of requirements",
			Recommendation:     fmt.Sprintf("Review if %s is applicable to your specification", std),
			Mandatory:          false,
		})
	}

	return referenced, missing, gaps
}

func hasAnyPrimaryPrefix(standard string) bool {
	for _, prefix := range []string{"BS", "EN", "IEC", "IS"} {
		if strings.Contains(standard, prefix) {
			return true
		}
	}
	return false
}
