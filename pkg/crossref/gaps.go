package crossref

import (
	"fmt"
	"regexp"
	"strings"
)

// analyzeGaps finds mandatory reference requirements with no matching
// topic anywhere in the source document, deduplicated by topic. Grounded
// on _analyze_gaps.
func analyzeGaps(sourceChunks []docChunk, referenceChunks map[string][]docChunk, focusArea string) []GapItem {
	sourceTopics := make(map[string]bool)
	for _, chunk := range sourceChunks {
		if chunk.sectionTitle != "" {
			sourceTopics[strings.ToLower(chunk.sectionTitle)] = true
		}
		for _, w := range topicTermPattern.FindAllString(strings.ToLower(chunk.text), -1) {
			sourceTopics[w] = true
		}
	}

	var gaps []GapItem
	for refDoc, refChunks := range referenceChunks {
		for _, refChunk := range refChunks {
			if !refChunk.hasMandatory {
				continue
			}

			if topicExistsInSource(refChunk.text, sourceTopics) {
				continue
			}

			topic := extractTopic(refChunk)
			lowerText := strings.ToLower(refChunk.text)

			severity := SeverityMedium
			if strings.Contains(lowerText, "shall") {
				severity = SeverityHigh
			}

			gaps = append(gaps, GapItem{
				Severity:           severity,
				Topic:              topic,
				Description:        fmt.Sprintf("Requirement from %s may not be addressed in your spec", refDoc),
				MissingRequirement: truncate(refChunk.text, 400),
				ReferenceDoc:       refDoc,
				ReferenceSection:   refChunk.sectionNumber,
				ReferenceText:      truncate(refChunk.text, 300),
				ReferencePage:      refChunk.page,
				Impact:             "Potential non-compliance with requirements",
				Recommendation:     fmt.Sprintf("Review %s Section %s and ensure your spec addresses this requirement", refDoc, orNA(refChunk.sectionNumber)),
				Mandatory:          strings.Contains(lowerText, "shall") || strings.Contains(lowerText, "must"),
			})
		}
	}

	return dedupGapsByTopic(gaps)
}

var topicTermPattern = regexp.MustCompile(`[a-z]{4,}`)

func topicExistsInSource(refText string, sourceTopics map[string]bool) bool {
	refTerms := make(map[string]bool)
	for _, w := range topicTermPattern.FindAllString(strings.ToLower(refText), -1) {
		refTerms[w] = true
	}

	overlap := 0
	for w := range refTerms {
		if sourceTopics[w] {
			overlap++
		}
	}
	return overlap >= 3
}

var capitalizedPhrase = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Za-z]+){0,3}`)

func extractTopic(chunk docChunk) string {
	if chunk.sectionTitle != "" {
		return chunk.sectionTitle
	}
	head := truncate(chunk.text, 100)
	if m := capitalizedPhrase.FindString(head); m != "" {
		return m
	}
	return truncate(chunk.text, 50)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func dedupGapsByTopic(gaps []GapItem) []GapItem {
	seen := make(map[string]bool)
	var out []GapItem
	for _, g := range gaps {
		key := strings.ToLower(truncate(g.Topic, 50))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, g)
	}
	return out
}
