package extract

import (
	"regexp"
	"strconv"

	"github.com/standards-engine/retrieval/pkg/model"
)

// numberUnitPattern matches a signed/decimal number immediately followed
// (with optional single space) by a unit token drawn loosely from the
// taxonomy's alphabet; lookupUnit rejects anything not actually in the
// taxonomy, so this pattern is intentionally permissive.
var numberUnitPattern = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(°?[A-Za-z%Ω]+(?:\([A-Za-z]+\))?|°[CF])`)

// ExtractSpecifications finds (value, unit) pairs matched against the
// closed unit taxonomy, resolving the base unit for downstream comparison.
func ExtractSpecifications(text string) []model.SpecValue {
	var out []model.SpecValue

	for _, m := range numberUnitPattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		def, ok := lookupUnit(m[2])
		if !ok {
			continue
		}
		out = append(out, model.SpecValue{
			Type:  def.paramType,
			Value: value * def.factor,
			Unit:  def.baseUnit,
		})
	}

	return out
}

// BaseUnitValue converts a SpecValue's display value into to base-unit terms
// using the same taxonomy ExtractSpecifications consulted; it exists for
// callers (e.g. pkg/crossref) that hold a raw unit string distinct from the
// SpecValue.Unit already-normalised form.
func BaseUnitValue(value float64, unit string) (float64, string, bool) {
	def, ok := lookupUnit(unit)
	if !ok {
		return 0, "", false
	}
	return value * def.factor, def.baseUnit, true
}
