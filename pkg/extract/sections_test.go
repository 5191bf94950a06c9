package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSections_NamedForms(t *testing.T) {
	text := "As described in Section 6.5.1, Clause 4.2, Article 310.15, " +
		"Annex A.1, Appendix B, Table 6.1 and Figure 3.2."

	mentions := ExtractSections(text)

	byType := make(map[SectionMentionType]int)
	for _, m := range mentions {
		byType[m.Type]++
	}

	assert.Equal(t, 1, byType[SectionTypeSection])
	assert.Equal(t, 1, byType[SectionTypeClause])
	assert.Equal(t, 1, byType[SectionTypeArticle])
	assert.Equal(t, 2, byType[SectionTypeAnnex]) // Annex A.1 and Appendix B
	assert.Equal(t, 1, byType[SectionTypeTable])
	assert.Equal(t, 1, byType[SectionTypeFigure])
}

func TestExtractSections_MarkdownHeading(t *testing.T) {
	text := "## 6.5 Earthing Requirements\nBody text follows."
	mentions := ExtractSections(text)

	assert.NotEmpty(t, mentions)
	assert.Equal(t, SectionTypeHeading, mentions[0].Type)
}

func TestExtractSections_BareDottedRequiresTwoLevels(t *testing.T) {
	mentions := ExtractSections("See 6.5.1 for detail, not just 3.3 alone.")

	var found bool
	for _, m := range mentions {
		if m.Text == "6.5.1" {
			found = true
		}
		assert.NotEqual(t, "3.3", m.Text)
	}
	assert.True(t, found)
}

func TestExtractSections_EmptyInputIsTotal(t *testing.T) {
	assert.Empty(t, ExtractSections(""))
}
