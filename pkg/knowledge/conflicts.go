package knowledge

import (
	"strings"

	"github.com/standards-engine/retrieval/pkg/model"
)

// Conflict is a detected strength disagreement between two requirements,
// grounded on knowledge_graph.py's AdvancedEntityExtractor._check_conflict.
type Conflict struct {
	Requirement1 model.Requirement
	Requirement2 model.Requirement
	OverlapScore float64
	Severity     string
}

// DetectConflicts pairs every requirement in a with every requirement in
// b, emitting a strength_conflict for each pair whose strengths are
// {mandatory, prohibited} (in either order) and whose token sets overlap
// at or above 0.3 (the overlap denominator is max(|a|,|b|), matching the
// original's word-overlap check rather than a strict union-based
// Jaccard).
func DetectConflicts(a, b []model.Requirement) []Conflict {
	var conflicts []Conflict
	for _, r1 := range a {
		for _, r2 := range b {
			if !isStrengthConflict(r1.Strength, r2.Strength) {
				continue
			}
			overlap := tokenOverlap(r1.Text, r2.Text)
			if overlap >= 0.3 {
				conflicts = append(conflicts, Conflict{
					Requirement1: r1,
					Requirement2: r2,
					OverlapScore: overlap,
					Severity:     "high",
				})
			}
		}
	}
	return conflicts
}

func isStrengthConflict(s1, s2 model.RequirementStrength) bool {
	return (s1 == model.StrengthMandatory && s2 == model.StrengthProhibited) ||
		(s1 == model.StrengthProhibited && s2 == model.StrengthMandatory)
}

// tokenOverlap computes |words1 ∩ words2| / max(|words1|,|words2|).
func tokenOverlap(text1, text2 string) float64 {
	words1 := tokenSet(text1)
	words2 := tokenSet(text2)
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}

	overlap := 0
	for w := range words1 {
		if words2[w] {
			overlap++
		}
	}

	denom := len(words1)
	if len(words2) > denom {
		denom = len(words2)
	}
	return float64(overlap) / float64(denom)
}

func tokenSet(text string) map[string]bool {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
