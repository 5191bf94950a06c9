package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standards-engine/retrieval/pkg/model"
)

func TestCanonicalStandardKey_Idempotent(t *testing.T) {
	cases := []string{"IEC 60364-5-52", "iec60364-5-52", "EN 54-11", "NFPA   72", "NEC Article 310"}
	for _, raw := range cases {
		once := CanonicalStandardKey(raw)
		twice := CanonicalStandardKey(once)
		assert.Equal(t, once, twice, "canon(canon(%q)) should equal canon(%q)", raw, raw)
	}
}

func TestCanonicalStandardKey_NormalisesVariants(t *testing.T) {
	assert.Equal(t, CanonicalStandardKey("IEC 60364-5-52"), CanonicalStandardKey("iec60364-5-52"))
	assert.Equal(t, CanonicalStandardKey("NFPA 72"), CanonicalStandardKey("nfpa-72"))
}

func TestExtractStandards_AllTenFamilies(t *testing.T) {
	text := "Per IS 3218, EN 54-11, IEC 60364-5-52, BS 5839-1, NFPA 72, " +
		"IEEE 519, ISO 9001, ASTM A36, NEC Article 310, and DIN 18040, comply."

	refs := ExtractStandards(text)

	families := make(map[model.StandardFamily]bool)
	for _, r := range refs {
		families[r.Family] = true
	}

	for _, f := range []model.StandardFamily{
		model.FamilyIS, model.FamilyEN, model.FamilyIEC, model.FamilyBS,
		model.FamilyNFPA, model.FamilyIEEE, model.FamilyISO, model.FamilyASTM,
		model.FamilyNEC, model.FamilyDIN,
	} {
		assert.True(t, families[f], "expected family %s to be detected", f)
	}
}

func TestExtractStandards_DeduplicatesAndOrdersByPosition(t *testing.T) {
	text := "See NFPA 72 first, then NFPA72 again, then IEC 60364."
	refs := ExtractStandards(text)

	assert.Len(t, refs, 2)
	assert.Equal(t, "NFPA72", refs[0].Canonical)
	assert.Equal(t, "IEC60364", refs[1].Canonical)
	assert.Less(t, refs[0].Position, refs[1].Position)
}

func TestExtractStandards_EmptyInputIsTotal(t *testing.T) {
	assert.Empty(t, ExtractStandards(""))
}
