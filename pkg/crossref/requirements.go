package crossref

import (
	"regexp"
	"strings"
)

// crossrefRequirement is a mandatory sentence pulled from a reference
// chunk, carrying the topic phrase used to find matching source content
// and any numeric values the sentence itself states.
type crossrefRequirement struct {
	Text   string
	Topic  string
	Values []valueMatch
}

var sentenceSplitPattern = regexp.MustCompile(`[.;]\s+`)

// mandatoryPhrase mirrors cross_reference_v2.py's mandatory_patterns —
// broader than extract.ExtractRequirements' strength classifier, since
// here any sentence containing one of these words counts, regardless of
// whether it is also prohibitive.
var mandatoryPhrases = []string{"shall", "must", "required", "mandatory", "compulsory", "essential"}

func isMandatorySentence(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, p := range mandatoryPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

var topicWordPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[a-z]+)*\b`)

// extractRequirementsFromText splits reference text into sentences and
// returns every mandatory one with its topic phrase and numeric values,
// the latter filtered to priority parameter types when focus-scoped.
// Grounded on _extract_requirements.
func extractRequirementsFromText(text string, priority map[string]bool) []crossrefRequirement {
	var out []crossrefRequirement

	for _, sentence := range sentenceSplitPattern.Split(text, -1) {
		if !isMandatorySentence(sentence) {
			continue
		}

		words := topicWordPattern.FindAllString(sentence, -1)
		if len(words) > 3 {
			words = words[:3]
		}
		topic := strings.Join(words, " ")
		if topic == "" {
			topic = truncate(sentence, 50)
		}

		values := extractAllValues(sentence)
		if priority != nil && len(values) > 0 {
			values = filterByPriority(values, priority)
		}

		out = append(out, crossrefRequirement{
			Text:   strings.TrimSpace(sentence),
			Topic:  topic,
			Values: values,
		})
	}

	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// findMatchingContent returns the source chunk with the highest token
// overlap against topic, requiring at least 2 overlapping tokens.
// Grounded on _find_matching_content.
func findMatchingContent(topic string, sourceChunks []docChunk) *docChunk {
	topicWords := wordSetFields(strings.ToLower(topic))

	var best *docChunk
	bestScore := 0
	for i := range sourceChunks {
		textWords := wordSetFields(strings.ToLower(sourceChunks[i].text))
		overlap := 0
		for w := range topicWords {
			if textWords[w] {
				overlap++
			}
		}
		if overlap > bestScore {
			bestScore = overlap
			best = &sourceChunks[i]
		}
	}

	if bestScore >= 2 {
		return best
	}
	return nil
}

func wordSetFields(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		out[w] = true
	}
	return out
}
