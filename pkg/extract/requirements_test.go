package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standards-engine/retrieval/pkg/model"
)

func TestExtractRequirements_PriorityOrder(t *testing.T) {
	cases := []struct {
		sentence string
		want     model.RequirementStrength
	}{
		{"Cables shall not be installed within 50mm of gas pipes.", model.StrengthProhibited},
		{"The panel shall be accessible at all times.", model.StrengthMandatory},
		{"Conductors should be colour coded per the local scheme.", model.StrengthRecommended},
		{"Additional labelling may be provided for clarity.", model.StrengthOptional},
	}

	for _, c := range cases {
		reqs := ExtractRequirements(c.sentence)
		assert.Len(t, reqs, 1)
		assert.Equal(t, c.want, reqs[0].Strength)
	}
}

func TestExtractRequirements_CollidingKeywordsPreferHigherPriority(t *testing.T) {
	reqs := ExtractRequirements("Equipment may be installed but shall not obstruct the exit.")
	assert.Len(t, reqs, 1)
	assert.Equal(t, model.StrengthProhibited, reqs[0].Strength)
}

func TestExtractRequirements_NonRequirementSentenceYieldsNothing(t *testing.T) {
	assert.Empty(t, ExtractRequirements("The building has three floors."))
}

func TestExtractRequirements_EmptyInputIsTotal(t *testing.T) {
	assert.Empty(t, ExtractRequirements(""))
}
