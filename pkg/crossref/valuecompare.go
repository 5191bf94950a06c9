package crossref

import (
	"fmt"
	"sort"
	"strings"
)

// contextKeywords are the technical terms used to decide whether two
// chunks are describing the same kind of equipment/installation before
// their numeric values are compared, avoiding spurious comparisons
// between unrelated sentences that happen to share a parameter type.
// Grounded on _compare_values' context_keywords set.
var contextKeywords = setOf(
	"cable", "conductor", "wire", "core", "armour", "sheath", "insulation",
	"duct", "conduit", "trunking", "tray", "ladder", "basket",
	"socket", "outlet", "switch", "breaker", "fuse", "mcb", "rcbo", "rcd",
	"panel", "board", "switchgear", "distribution", "mcc",
	"transformer", "motor", "generator", "ups", "inverter",
	"lighting", "luminaire", "lamp", "lux", "emergency",
	"earthing", "grounding", "bonding", "lightning", "protection",
	"trench", "excavation", "backfill", "sand", "bedding",
	"voltage", "current", "power", "factor", "frequency",
	"temperature", "ambient", "rating", "derating",
	"size", "cross-section", "diameter", "thickness", "depth", "width",
)

type contextMatch struct {
	chunk          docChunk
	contextOverlap int
	wordOverlap    int
}

// compareValues pairs reference chunks with up to two source chunks that
// share sufficient technical context and word overlap, then emits a
// ValueComparison for every pair of matching-type, subject-related values
// that differ. Grounded on _compare_values.
func compareValues(sourceChunks []docChunk, referenceChunks map[string][]docChunk, focusArea string) []ValueComparison {
	priority := priorityTypesForFocus(focusArea)
	seen := make(map[string]bool)
	var comparisons []ValueComparison

	for refDoc, refChunks := range referenceChunks {
		for _, refChunk := range refChunks {
			refValues := extractAllValues(refChunk.text)
			if priority != nil {
				refValues = filterByPriority(refValues, priority)
			}
			if len(refValues) == 0 {
				continue
			}

			refWords := wordSetFields(strings.ToLower(refChunk.text))
			refContext := intersectKeywords(refWords)
			if len(refContext) == 0 {
				continue
			}

			var matches []contextMatch
			for _, srcChunk := range sourceChunks {
				srcWords := wordSetFields(strings.ToLower(srcChunk.text))
				srcContext := intersectKeywords(srcWords)

				overlap := 0
				for k := range refContext {
					if srcContext[k] {
						overlap++
					}
				}
				if overlap < 2 {
					continue
				}
				wordOverlap := 0
				for w := range refWords {
					if srcWords[w] {
						wordOverlap++
					}
				}
				if wordOverlap < 5 {
					continue
				}

				matches = append(matches, contextMatch{chunk: srcChunk, contextOverlap: overlap, wordOverlap: wordOverlap})
			}

			sort.Slice(matches, func(i, j int) bool {
				if matches[i].contextOverlap != matches[j].contextOverlap {
					return matches[i].contextOverlap > matches[j].contextOverlap
				}
				return matches[i].wordOverlap > matches[j].wordOverlap
			})
			if len(matches) > 2 {
				matches = matches[:2]
			}

			for _, match := range matches {
				srcValues := extractAllValues(match.chunk.text)
				if priority != nil {
					srcValues = filterByPriority(srcValues, priority)
				}

				for _, refVal := range refValues {
					for _, srcVal := range srcValues {
						if srcVal.Type != refVal.Type {
							continue
						}
						if !subjectsMatch(srcVal.Subject, refVal.Subject) {
							continue
						}

						key := fmt.Sprintf("%s|%v|%v|%s", refVal.Type, srcVal.Value, refVal.Value, srcVal.Subject)
						if seen[key] {
							continue
						}
						seen[key] = true

						if srcVal.Value == refVal.Value {
							continue
						}

						diff := srcVal.Value - refVal.Value
						pctDiff := 0.0
						if refVal.Value != 0 {
							pctDiff = diff / refVal.Value * 100
						}
						status := "LOWER"
						if srcVal.Value > refVal.Value {
							status = "HIGHER"
						}
						severity := severityFromPercentDiff(pctDiff)

						subjectDesc := srcVal.Subject
						if subjectDesc == refVal.Type {
							subjectDesc = refVal.Subject
						}

						comparisons = append(comparisons, ValueComparison{
							Parameter:        fmt.Sprintf("%s (%s)", strings.Title(strings.ReplaceAll(refVal.Type, "_", " ")), subjectDesc),
							Unit:             srcVal.Unit,
							SourceValue:      srcVal.Value,
							SourceSection:    orTitle(match.chunk.sectionNumber, match.chunk.sectionTitle),
							ReferenceDoc:     refDoc,
							ReferenceValue:   refVal.Value,
							ReferenceSection: orTitle(refChunk.sectionNumber, refChunk.sectionTitle),
							Difference:       diff,
							PercentageDiff:   pctDiff,
							Status:           status,
							Severity:         severity,
							Note: fmt.Sprintf("%s: your spec %g%s, %s requires %g%s",
								subjectDesc, srcVal.Value, srcVal.Unit, refDoc, refVal.Value, refVal.Unit),
						})
					}
				}
			}
		}
	}

	return comparisons
}

func intersectKeywords(words map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for w := range words {
		if contextKeywords[w] {
			out[w] = true
		}
	}
	return out
}

func orTitle(section, title string) string {
	if section != "" {
		return section
	}
	return title
}
