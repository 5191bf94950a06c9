package extract

import (
	"regexp"
	"strings"

	"github.com/standards-engine/retrieval/pkg/model"
)

// sentenceSplit is a plain-heuristic splitter (., !, ? followed by
// whitespace and a capital letter or end of string); good enough for
// technical prose where requirement keywords sit inside one sentence.
var sentenceSplit = regexp.MustCompile(`(?:[.!?])\s+(?:[A-Z]|$)`)

// keyword lists are ordered by the priority used to resolve a sentence that
// matches more than one strength: prohibited > mandatory > recommended >
// optional.
var (
	prohibitedKeywords  = []string{"shall not", "must not", "prohibited", "not permitted", "not allowed"}
	mandatoryKeywords   = []string{"shall", "must", "required", "mandatory"}
	recommendedKeywords = []string{"should", "recommended", "preferred"}
	optionalKeywords    = []string{"may", "optional", "permitted", "can"}
)

// Requirement is a sentence tagged with its requirement strength.
type Requirement struct {
	Strength model.RequirementStrength
	Text     string
	Position int
}

// ExtractRequirements splits text into sentences and classifies each one
// that matches a requirement keyword. A sentence with no matching keyword
// produces no Requirement.
func ExtractRequirements(text string) []Requirement {
	var out []Requirement

	offset := 0
	for _, sentence := range splitSentences(text) {
		pos := offset
		offset += len(sentence)

		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		strength, ok := classifySentence(trimmed)
		if !ok {
			continue
		}
		out = append(out, Requirement{Strength: strength, Text: trimmed, Position: pos})
	}

	return out
}

func splitSentences(text string) []string {
	idxs := sentenceSplit.FindAllStringIndex(text, -1)
	if len(idxs) == 0 {
		return []string{text}
	}

	var sentences []string
	start := 0
	for _, loc := range idxs {
		end := loc[0] + 1 // keep the terminator with the sentence
		sentences = append(sentences, text[start:end])
		start = loc[1] - 1 // resume at the capital/EOF the lookahead consumed
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func classifySentence(sentence string) (model.RequirementStrength, bool) {
	lower := strings.ToLower(sentence)

	if containsAny(lower, prohibitedKeywords) {
		return model.StrengthProhibited, true
	}
	if containsAny(lower, mandatoryKeywords) {
		return model.StrengthMandatory, true
	}
	if containsAny(lower, recommendedKeywords) {
		return model.StrengthRecommended, true
	}
	if containsAny(lower, optionalKeywords) {
		return model.StrengthOptional, true
	}
	return "", false
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
