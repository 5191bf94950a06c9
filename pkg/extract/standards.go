// Package extract implements deterministic, regex-driven extraction of
// standard references, specification values, requirement sentences, and
// section mentions from chunk text.
//
// Every function here is total: it returns a (possibly empty) result and
// never an error, regardless of input. This mirrors the zero-cost,
// regex-over-LLM extraction approach described in the teacher's reference
// extraction module, reshaped around the capability-registry idiom of
// pkg/rag/extractor.go.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/standards-engine/retrieval/pkg/model"
)

// StandardRef is a single standard reference found in text.
type StandardRef struct {
	Family    model.StandardFamily
	Canonical string // e.g. "IEC60364-5-52"
	Raw       string // e.g. "IEC 60364-5-52"
	Position  int    // byte offset of the match start
}

var standardPatterns = []struct {
	family  model.StandardFamily
	pattern *regexp.Regexp
}{
	{model.FamilyIS, regexp.MustCompile(`(?i)IS\s*\d+(?:\.\d+)?`)},
	{model.FamilyEN, regexp.MustCompile(`(?i)EN\s*\d+(?:[-\d]+)?(?:\.\d+)?`)},
	{model.FamilyIEC, regexp.MustCompile(`(?i)IEC\s*\d+(?:[-\d]+)?(?:\.\d+)?`)},
	{model.FamilyBS, regexp.MustCompile(`(?i)BS\s*\d+(?:[-\d]+)?`)},
	{model.FamilyNFPA, regexp.MustCompile(`(?i)NFPA\s*\d+`)},
	{model.FamilyIEEE, regexp.MustCompile(`(?i)IEEE\s*\d+(?:\.\d+)?`)},
	{model.FamilyISO, regexp.MustCompile(`(?i)ISO\s*\d+(?:[-\d]+)?`)},
	{model.FamilyASTM, regexp.MustCompile(`(?i)ASTM\s*[A-Z]?\d+(?:[-\d]+)?`)},
	{model.FamilyNEC, regexp.MustCompile(`(?i)NEC\s*(?:Article\s*)?\d+`)},
	{model.FamilyDIN, regexp.MustCompile(`(?i)DIN\s*\d+(?:[-\d]+)?`)},
}

var whitespaceRun = regexp.MustCompile(`\s+`)
var prefixSeparator = regexp.MustCompile(`([A-Z])[\s_-]+(\d)`)
var separatorRun = regexp.MustCompile(`[\s_]+`)
var hyphenRun = regexp.MustCompile(`-+`)

// CanonicalStandardKey normalises a raw standard reference to a stable key:
// the family-letter/number boundary separator is dropped and any remaining
// whitespace or underscore separator between number segments becomes a
// hyphen, so "IEC 60364-5-52" and "iec_60364_5_52" both canonicalize to
// "IEC60364-5-52" — hyphens delimiting part/section numbers are preserved
// rather than stripped. It is idempotent: canon(canon(x)) == canon(x).
func CanonicalStandardKey(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	upper = prefixSeparator.ReplaceAllString(upper, "${1}${2}")
	upper = separatorRun.ReplaceAllString(upper, "-")
	upper = hyphenRun.ReplaceAllString(upper, "-")
	return strings.Trim(upper, "-")
}

// ExtractStandards finds every recognised standard reference in text,
// deduplicated by canonical key (first occurrence wins) and ordered by
// position.
func ExtractStandards(text string) []StandardRef {
	seen := make(map[string]bool)
	var out []StandardRef

	for _, sp := range standardPatterns {
		for _, loc := range sp.pattern.FindAllStringIndex(text, -1) {
			raw := whitespaceRun.ReplaceAllString(strings.TrimSpace(text[loc[0]:loc[1]]), " ")
			key := CanonicalStandardKey(raw)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, StandardRef{
				Family:    sp.family,
				Canonical: key,
				Raw:       raw,
				Position:  loc[0],
			})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
