package crossref

import (
	"regexp"
	"strconv"
	"strings"
)

// valueMatch is one numeric (type, value) extraction from a chunk of text,
// carrying enough surrounding context to later judge whether two matches
// describe "the same thing" across documents.
type valueMatch struct {
	Type    string
	Value   float64
	Unit    string
	Raw     string
	Subject string
	Context string
}

// valuePattern pairs a parameter type with the regex that recognises it and
// a sanity window validator. Units are kept loose (matching any of several
// surface spellings) since this module only needs the numeric magnitude,
// not the normalised base-unit conversion pkg/extract performs for
// chunk-time specification values.
type valuePattern struct {
	paramType string
	pattern   *regexp.Regexp
	unit      string
	valid     func(float64) bool
}

func rangeCheck(min, max float64) func(float64) bool {
	return func(v float64) bool { return v >= min && v <= max }
}

func always(float64) bool { return true }

var valuePatterns = []valuePattern{
	{"temperature", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*°?C\b`), "°C", rangeCheck(-50, 500)},
	{"voltage", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*V(?:olts?)?\b`), "V", rangeCheck(0, 50000)},
	{"current", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*A(?:mps?)?\b`), "A", rangeCheck(0, 1000)},
	{"power", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kW|MW|W|VA|kVA|MVA)\b`), "W", always},
	{"resistance", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:ohms?\b|Ω)`), "ohm", always},
	{"cable_size", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*mm\s*[²2]`), "mm²", rangeCheck(0, 1000)},
	{"frequency", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*Hz\b`), "Hz", always},
	{"pressure", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:bar|psi|kPa|MPa|Pa)\b`), "kPa", always},
	{"flow_rate", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:l/s|L/s|m³/h|m3/h|l/min|L/min)\b`), "l/s", always},
	{"speed", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:rpm|RPM|rev/min)\b`), "rpm", always},
	{"torque", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:Nm|N\.m|kNm)\b`), "Nm", always},
	{"percentage", regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`), "%", rangeCheck(0, 100)},
	{"area", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:m²|m2\b|sq\.?\s*m\b)`), "m²", always},
	{"length", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:m|mm|km)\b`), "m", rangeCheck(0, 5000)},
	{"time", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:ms|s|sec|min|hours?|hrs?)\b`), "s", rangeCheck(0, 1000)},
	{"weight", regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:kg|ton|tonne|lbs?)\b`), "kg", always},
}

var standardPattern = regexp.MustCompile(`(?i)\b(IS|EN|IEC|BS|NFPA|IEEE|ISO|ASTM|DIN)[\s-]?\d+(?:[-/:]\d+)*`)
var yearPattern = regexp.MustCompile(`\b(19[89]\d|20[0-3]\d)\b`)
var digitsPattern = regexp.MustCompile(`\d+`)

// standardPrefixContext lists the standard-family prefixes looked for in
// the window from 25 characters before to 10 characters after a round 4-5
// digit number that might be a standalone standard number rather than a
// measured quantity.
var standardPrefixContext = []string{"en ", "en-", "bs ", "bs-", "is ", "is-", "iec ", "iec-", "iso "}

// extractAllValues finds every recognised numeric value in text, excluding
// numbers that are part of a standard reference (detected within the
// standard-family context) and year-like numbers, then applies a
// per-parameter sanity window. Grounded on
// cross_reference_v2.py's _extract_all_values.
func extractAllValues(text string) []valueMatch {
	standardNumbers := make(map[float64]bool)
	for _, m := range standardPattern.FindAllString(text, -1) {
		for _, n := range digitsPattern.FindAllString(m, -1) {
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				standardNumbers[f] = true
			}
		}
	}

	years := make(map[float64]bool)
	for _, y := range yearPattern.FindAllString(text, -1) {
		if f, err := strconv.ParseFloat(y, 64); err == nil {
			years[f] = true
		}
	}

	var out []valueMatch
	for _, vp := range valuePatterns {
		for _, loc := range vp.pattern.FindAllStringSubmatchIndex(text, -1) {
			raw := text[loc[0]:loc[1]]
			numStr := text[loc[2]:loc[3]]
			value, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				continue
			}

			if standardNumbers[value] {
				continue
			}
			if years[value] {
				continue
			}
			if value >= 1000 && value == float64(int64(value)) && value <= 99999 {
				ctxStart := max0(loc[0] - 25)
				ctxEnd := minLen(loc[1]+10, len(text))
				context := strings.ToLower(text[ctxStart:ctxEnd])
				if containsAnyPrefix(context, standardPrefixContext) {
					continue
				}
			}
			if vp.valid != nil && !vp.valid(value) {
				continue
			}

			ctxStart := max0(loc[0] - 60)
			ctxEnd := minLen(loc[1]+20, len(text))
			surrounding := strings.ToLower(strings.TrimSpace(text[ctxStart:ctxEnd]))

			out = append(out, valueMatch{
				Type:    vp.paramType,
				Value:   value,
				Unit:    vp.unit,
				Raw:     raw,
				Subject: extractValueSubject(surrounding, vp.paramType),
				Context: surrounding,
			})
		}
	}
	return out
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func minLen(n, l int) int {
	if n > l {
		return l
	}
	return n
}

func containsAnyPrefix(haystack string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.Contains(haystack, p) {
			return true
		}
	}
	return false
}

// subjectPatterns mirror _extract_value_subject's per-type phrase lists.
var subjectPatterns = map[string][]*regexp.Regexp{
	"length": {
		regexp.MustCompile(`(?i)(cable|conductor|wire|core|run|route|trench|duct|conduit|pipe|branch|main)\s+(?:length|run|distance)`),
		regexp.MustCompile(`(?i)(maximum|minimum|min|max)\s+(?:length|distance|run)`),
		regexp.MustCompile(`(?i)(depth|height|width|spacing|clearance|distance)`),
	},
	"cable_size": {
		regexp.MustCompile(`(?i)(cable|conductor|wire|core)\s+(?:size|cross.?section|area|csa)`),
		regexp.MustCompile(`(?i)(minimum|maximum|min|max)\s+(?:size|cross.?section|csa)`),
	},
	"current": {
		regexp.MustCompile(`(?i)(rated|nominal|maximum|minimum|full.?load|fault)\s+current`),
		regexp.MustCompile(`(?i)(breaker|fuse|mcb|rcbo|rcd)\s+(?:rating|current)`),
		regexp.MustCompile(`(?i)current\s+(?:rating|capacity)`),
	},
	"voltage": {
		regexp.MustCompile(`(?i)(rated|nominal|supply|operating|system)\s+voltage`),
		regexp.MustCompile(`(?i)(low|medium|high)\s+voltage`),
		regexp.MustCompile(`(?i)voltage\s+(?:rating|drop|level)`),
	},
	"temperature": {
		regexp.MustCompile(`(?i)(ambient|operating|maximum|minimum)\s+temperature`),
		regexp.MustCompile(`(?i)temperature\s+(?:rating|range|limit)`),
	},
	"percentage": {
		regexp.MustCompile(`(?i)(voltage|power|load)\s+(?:drop|factor|efficiency)`),
		regexp.MustCompile(`(?i)(minimum|maximum)\s+(?:fill|capacity|efficiency)`),
	},
	"time": {
		regexp.MustCompile(`(?i)(response|reaction|clearing|operating)\s+time`),
		regexp.MustCompile(`(?i)(delay|duration|period)`),
	},
}

var subjectFallbackWords = []string{
	"cable", "conductor", "wire", "core", "duct", "conduit", "trunking",
	"breaker", "fuse", "mcb", "rcd", "rcbo", "panel", "board",
	"socket", "outlet", "lighting", "motor", "transformer",
	"trench", "depth", "height", "spacing", "clearance",
	"maximum", "minimum", "rated", "nominal", "operating",
}

var wordToken = regexp.MustCompile(`\b[a-z]{4,}\b`)

// extractValueSubject identifies what a matched value is describing, e.g.
// "cable length" vs. "breaker current".
func extractValueSubject(context, paramType string) string {
	for _, pat := range subjectPatterns[paramType] {
		if m := pat.FindString(context); m != "" {
			return strings.ToLower(strings.TrimSpace(m))
		}
	}

	for _, word := range wordToken.FindAllString(context, -1) {
		for _, tech := range subjectFallbackWords {
			if word == tech {
				return tech + " " + strings.ReplaceAll(paramType, "_", " ")
			}
		}
	}

	return paramType
}

// subjectsMatch reports whether two value subjects plausibly describe the
// same quantity, mirroring _subjects_match's direct/substring/shared-word/
// related-group checks.
func subjectsMatch(s1, s2 string) bool {
	a, b := strings.ToLower(s1), strings.ToLower(s2)
	if a == b {
		return true
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return true
	}

	words1 := wordSet(a)
	words2 := wordSet(b)
	for w := range words1 {
		if words2[w] {
			return true
		}
	}

	for _, group := range relatedSubjectGroups {
		if intersects(words1, group) && intersects(words2, group) {
			return true
		}
	}
	return false
}

var relatedSubjectGroups = []map[string]bool{
	setOf("cable", "conductor", "wire", "core"),
	setOf("duct", "conduit", "pipe", "trunking"),
	setOf("trench", "excavation", "depth", "backfill"),
	setOf("breaker", "mcb", "fuse", "rcbo", "rcd", "protection"),
	setOf("socket", "outlet", "receptacle"),
	setOf("panel", "board", "switchgear", "distribution"),
	setOf("maximum", "max", "minimum", "min"),
	setOf("length", "distance", "run"),
	setOf("size", "cross-section", "area", "csa"),
}

var wordBoundary = regexp.MustCompile(`\b\w{3,}\b`)

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range wordBoundary.FindAllString(s, -1) {
		out[w] = true
	}
	return out
}

func setOf(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

func intersects(a, b map[string]bool) bool {
	small, big := a, b
	if len(b) < len(a) {
		small, big = b, a
	}
	for k := range small {
		if big[k] {
			return true
		}
	}
	return false
}
