package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCrossReferences_FindsContextAndTarget(t *testing.T) {
	refs := ExtractCrossReferences("Cable sizing shall be as specified in IEC 60364-5-52, clause 6.5.1.")

	assert.NotEmpty(t, refs)
	assert.NotEmpty(t, refs[0].Standards)
}

func TestExtractCrossReferences_DropsPhrasesWithNoResolvedTarget(t *testing.T) {
	refs := ExtractCrossReferences("Refer to the appendix for general guidance.")
	assert.Empty(t, refs)
}

func TestExtractAll_AggregatesEveryExtractor(t *testing.T) {
	text := "Section 6.5.1: Conductors shall comply with IEC 60364-5-52 and be rated at least 230V."
	ex := ExtractAll(text)

	assert.NotEmpty(t, ex.Standards)
	assert.NotEmpty(t, ex.Sections)
	assert.NotEmpty(t, ex.Requirements)
}

func TestExtractAll_EmptyInputIsTotal(t *testing.T) {
	ex := ExtractAll("")
	assert.Empty(t, ex.Standards)
	assert.Empty(t, ex.Sections)
	assert.Empty(t, ex.Requirements)
	assert.Empty(t, ex.CrossReferences)
}
