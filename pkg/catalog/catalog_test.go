package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standards-engine/retrieval/pkg/model"
)

func TestNewEditor_MissingFilesYieldEmptyDefaults(t *testing.T) {
	e, err := NewEditor(t.TempDir())
	require.NoError(t, err)

	_, ok := e.Lookup("cabling.pdf")
	assert.False(t, ok)
	assert.Equal(t, DefaultSettings().Categories, e.Settings().Categories)
}

func TestEditor_SetPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEditor(dir)
	require.NoError(t, err)

	err = e.Set("cabling.pdf", Entry{
		Category:   "Standard",
		Project:    "Substation Upgrade",
		StandardNo: "IEC 60364-5-52",
		Date:       "2024-01-15",
	})
	require.NoError(t, err)

	entry, ok := e.Lookup("cabling.pdf")
	require.True(t, ok)
	assert.Equal(t, "Standard", entry.Category)
	assert.Equal(t, "Substation Upgrade", entry.Project)

	reloaded, err := NewEditor(dir)
	require.NoError(t, err)
	entry, ok = reloaded.Lookup("cabling.pdf")
	require.True(t, ok)
	assert.Equal(t, "IEC 60364-5-52", entry.StandardNo)
	assert.Contains(t, reloaded.Settings().Projects, "Substation Upgrade")
}

func TestEditor_SetAppendsNewCategoryToPickList(t *testing.T) {
	e, err := NewEditor(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, e.Set("bespoke.md", Entry{Category: "Bespoke Category"}))

	assert.Contains(t, e.Settings().Categories, "Bespoke Category")
}

func TestEditor_DeleteRemovesEntry(t *testing.T) {
	dir := t.TempDir()
	e, err := NewEditor(dir)
	require.NoError(t, err)
	require.NoError(t, e.Set("old.txt", Entry{Category: "Standard"}))

	require.NoError(t, e.Delete("old.txt"))

	_, ok := e.Lookup("old.txt")
	assert.False(t, ok)

	raw, err := os.ReadFile(filepath.Join(dir, "document_categories.json"))
	require.NoError(t, err)
	var mapping map[string]Entry
	require.NoError(t, json.Unmarshal(raw, &mapping))
	assert.NotContains(t, mapping, "old.txt")
}

func TestEditor_ApplyToDocument_FillsOnlyZeroFields(t *testing.T) {
	e, err := NewEditor(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, e.Set("wiring.md", Entry{
		Category:   "Standard",
		Project:    "Stored Project",
		StandardNo: "IEC 60364",
	}))

	doc := model.Document{
		FileName: "wiring.md",
		Project:  "Explicit Project",
	}

	filled := e.ApplyToDocument(doc)

	assert.Equal(t, []string{"Standard"}, filled.Categories)
	assert.Equal(t, "Explicit Project", filled.Project, "parameter value must win over the stored mapping")
	assert.Equal(t, "IEC 60364", filled.StandardNo)
}

func TestEditor_ApplyToDocument_UnknownFileIsUnchanged(t *testing.T) {
	e, err := NewEditor(t.TempDir())
	require.NoError(t, err)

	doc := model.Document{FileName: "unseen.md"}
	filled := e.ApplyToDocument(doc)

	assert.Equal(t, doc, filled)
}

func TestEntry_AllCategories(t *testing.T) {
	assert.Equal(t, []string{"Standard", "Internal Document"}, Entry{Categories: []string{"Standard", "Internal Document"}}.AllCategories())
	assert.Equal(t, []string{"Standard"}, Entry{Category: "Standard"}.AllCategories())
	assert.Nil(t, Entry{}.AllCategories())
}
