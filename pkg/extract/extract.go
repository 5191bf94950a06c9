package extract

import (
	"regexp"
	"strings"
)

var crossRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as\s+specified\s+in\s+([^.,;]+)`),
	regexp.MustCompile(`(?i)according\s+to\s+([^.,;]+)`),
	regexp.MustCompile(`(?i)in\s+accordance\s+with\s+([^.,;]+)`),
	regexp.MustCompile(`(?i)complies?\s+with\s+([^.,;]+)`),
	regexp.MustCompile(`(?i)refer\s+to\s+([^.,;]+)`),
	regexp.MustCompile(`(?i)see\s+([^.,;]+)`),
	regexp.MustCompile(`(?i)defined\s+in\s+([^.,;]+)`),
}

// CrossReference is a located phrase pointing at another standard/section,
// with whatever standards/sections could be extracted from the pointed-at
// text.
type CrossReference struct {
	ContextPhrase string
	ReferencedText string
	Standards      []StandardRef
	Sections       []SectionMention
	Position       int
}

// ExtractCrossReferences finds phrases like "as specified in ..." and
// "refer to ..." and resolves any standards/sections named in the
// referenced span. A phrase whose referenced text names neither is dropped:
// it is not informative for relationship inference.
func ExtractCrossReferences(text string) []CrossReference {
	var out []CrossReference

	for _, pattern := range crossRefPatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			phrase := text[m[0]:m[1]]
			referenced := strings.TrimSpace(text[m[2]:m[3]])

			standards := ExtractStandards(referenced)
			sections := ExtractSections(referenced)
			if len(standards) == 0 && len(sections) == 0 {
				continue
			}

			out = append(out, CrossReference{
				ContextPhrase:  phrase,
				ReferencedText: referenced,
				Standards:      standards,
				Sections:       sections,
				Position:       m[0],
			})
		}
	}

	return out
}

// Extraction aggregates every extractor's output for one chunk's text.
type Extraction struct {
	Standards       []StandardRef
	Sections        []SectionMention
	Requirements    []Requirement
	CrossReferences []CrossReference
}

// ExtractAll runs every extractor over text. It is total: any input,
// including the empty string, returns a zero-value-populated Extraction
// with no error.
func ExtractAll(text string) Extraction {
	return Extraction{
		Standards:       ExtractStandards(text),
		Sections:        ExtractSections(text),
		Requirements:    ExtractRequirements(text),
		CrossReferences: ExtractCrossReferences(text),
	}
}
