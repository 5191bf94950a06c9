package extract

import "strings"

// unitDef is one entry in the closed unit taxonomy: a surface form maps to
// a (parameter type, base unit, multiplier into the base unit).
type unitDef struct {
	paramType string
	baseUnit  string
	factor    float64
}

// unitTaxonomy is deliberately closed: an unrecognised unit token is simply
// not a SpecValue match, rather than an error. Lookup is by exact token,
// not prefix, so the order of entries here carries no meaning.
var unitTaxonomy = map[string]unitDef{
	"v":     {"voltage", "V", 1},
	"volt":  {"voltage", "V", 1},
	"volts": {"voltage", "V", 1},
	"kv":    {"voltage", "V", 1000},

	"a":     {"current", "A", 1},
	"amp":   {"current", "A", 1},
	"amps":  {"current", "A", 1},
	"ma":    {"current", "A", 0.001},

	"w":     {"power", "W", 1},
	"watt":  {"power", "W", 1},
	"watts": {"power", "W", 1},
	"kw":    {"power", "W", 1000},
	"mw":    {"power", "W", 1_000_000},

	"ohm":  {"resistance", "ohm", 1},
	"ohms": {"resistance", "ohm", 1},
	"Ω":    {"resistance", "ohm", 1},
	"kohm": {"resistance", "ohm", 1000},

	"hz":  {"frequency", "Hz", 1},
	"khz": {"frequency", "Hz", 1000},

	"mm": {"length", "m", 0.001},
	"cm": {"length", "m", 0.01},
	"m":  {"length", "m", 1},
	"km": {"length", "m", 1000},
	"in": {"length", "m", 0.0254},
	"ft": {"length", "m", 0.3048},

	"m2":  {"area", "m2", 1},
	"mm2": {"area", "m2", 0.000001},
	"cm2": {"area", "m2", 0.0001},
	"ft2": {"area", "m2", 0.09290304},
	"sqm": {"area", "m2", 1},

	"s":   {"time", "s", 1},
	"sec": {"time", "s", 1},
	"min": {"time", "s", 60},
	"h":   {"time", "s", 3600},
	"hr":  {"time", "s", 3600},

	"c":    {"temperature", "C", 1},
	"°c":   {"temperature", "C", 1},
	"f":    {"temperature", "F", 1},
	"°f":   {"temperature", "F", 1},
	"%":    {"percentage", "%", 1},
	"pct":  {"percentage", "%", 1},
	"lux":  {"illuminance", "lux", 1},
	"db":   {"sound_level", "dB", 1},
	"db(a)": {"sound_level", "dB", 1},
}

// lookupUnit resolves a surface-form unit token, trimming surrounding
// punctuation and case-folding. "Ω" is matched verbatim before case-folding
// since it has no uppercase/lowercase distinction worth normalising.
func lookupUnit(token string) (unitDef, bool) {
	trimmed := strings.Trim(token, " .,;:()")
	if trimmed == "Ω" {
		d := unitTaxonomy["Ω"]
		return d, true
	}
	d, ok := unitTaxonomy[strings.ToLower(trimmed)]
	return d, ok
}
