package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSpecifications_VoltageAndCurrent(t *testing.T) {
	values := ExtractSpecifications("The circuit is rated 230V at 16A with a 1500W load.")

	byType := make(map[string]float64)
	for _, v := range values {
		byType[v.Type] = v.Value
	}

	assert.Equal(t, 230.0, byType["voltage"])
	assert.Equal(t, 16.0, byType["current"])
	assert.Equal(t, 1500.0, byType["power"])
}

func TestExtractSpecifications_OhmVsOhmSymbolDisambiguation(t *testing.T) {
	values := ExtractSpecifications("Resistance shall not exceed 50 ohm, or equivalently 50Ω.")
	assert.Len(t, values, 2)
	for _, v := range values {
		assert.Equal(t, "resistance", v.Type)
		assert.Equal(t, "ohm", v.Unit)
		assert.Equal(t, 50.0, v.Value)
	}
}

func TestExtractSpecifications_UnrecognisedUnitIsSkipped(t *testing.T) {
	values := ExtractSpecifications("The widget costs 42 zorkmids.")
	assert.Empty(t, values)
}

func TestBaseUnitValue_ConvertsToBase(t *testing.T) {
	v, unit, ok := BaseUnitValue(1, "kV")
	assert.True(t, ok)
	assert.Equal(t, "V", unit)
	assert.Equal(t, 1000.0, v)
}

func TestBaseUnitValue_UnknownUnit(t *testing.T) {
	_, _, ok := BaseUnitValue(1, "zorkmids")
	assert.False(t, ok)
}
