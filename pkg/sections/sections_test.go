package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_MarkdownHeadingsWithAndWithoutNumbers(t *testing.T) {
	text := "# Electrical Installation\n" +
		"Intro text.\n" +
		"## 6.5 Cabling\n" +
		"More text.\n" +
		"### 6.5.1 Types\n" +
		"Leaf text.\n"

	secs := Parse(text)

	assert.Len(t, secs, 3)
	assert.Equal(t, 1, secs[0].Level)
	assert.Equal(t, "Electrical Installation", secs[0].Title)
	assert.Equal(t, "6.5", secs[1].Number)
	assert.Equal(t, "Cabling", secs[1].Title)
	assert.Equal(t, "6.5.1", secs[2].Number)
	assert.Equal(t, 3, secs[2].Level)
}

func TestParse_BareNumberedLineInfersLevelFromDepth(t *testing.T) {
	text := "6.5.1 Cable Types\nSome body text."
	secs := Parse(text)

	assert.Len(t, secs, 1)
	assert.Equal(t, 3, secs[0].Level)
	assert.Equal(t, "6.5.1", secs[0].Number)
}

func TestBuildPath_JoinsAncestorsRootFirst(t *testing.T) {
	text := "# 6 Electrical Installation\n" +
		"## 6.5 Cabling\n" +
		"### 6.5.1 Types\n"
	secs := Parse(text)

	path := BuildPath(secs, len(secs)-1)
	assert.Equal(t, "6 Electrical Installation > 6.5 Cabling > 6.5.1 Types", path)
}

func TestBuildPath_OutOfRangeReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", BuildPath(nil, 0))
	assert.Equal(t, "", BuildPath([]Section{{Title: "x"}}, 5))
}

func TestParseWithTOC_FallsBackToVerbatimTOCTitles(t *testing.T) {
	text := "Scope and General\nSome prose that never gets a heading marker."
	secs := ParseWithTOC(text, []string{"Scope and General"})

	assert.Len(t, secs, 1)
	assert.Equal(t, "Scope and General", secs[0].FullTitle)
}

func TestFormatNumbered(t *testing.T) {
	assert.Equal(t, "6.5 Cabling", FormatNumbered("6.5", "Cabling"))
	assert.Equal(t, "Cabling", FormatNumbered("", "Cabling"))
}
