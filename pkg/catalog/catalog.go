// Package catalog persists the document/project metadata mapping that
// ingestion consults and the metadata-editor interface mutates: a JSON
// sidecar file keyed by file name, independent of the vector store and
// graph database.
//
// Grounded on original_source/src/utils.py's load_document_categories/
// save_document_categories (category mapping) and load_app_settings/
// save_app_settings (the category/project pick-lists), rewritten as a
// mutex-guarded in-memory map backed by an atomically-replaced JSON file
// rather than a read-modify-write on every call.
package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/model"
)

// Entry is one file's catalog record, matching §6's persisted shape
// `{file_name: {category, project, standard_no, date, description}}`. A
// document may belong to more than one category (model.Document.Categories
// is a set); Entry keeps the original's singular `category` field for the
// primary one and folds any additional categories a caller supplies into
// the JSON file's own `categories` array, read back by AllCategories().
type Entry struct {
	Category    string   `json:"category"`
	Categories  []string `json:"categories,omitempty"`
	Project     string   `json:"project"`
	StandardNo  string   `json:"standard_no,omitempty"`
	Date        string   `json:"date,omitempty"`
	Description string   `json:"description,omitempty"`
}

// AllCategories returns the entry's full category set: Categories if
// populated, otherwise the singular Category as a one-element set.
func (e Entry) AllCategories() []string {
	if len(e.Categories) > 0 {
		return e.Categories
	}
	if e.Category != "" {
		return []string{e.Category}
	}
	return nil
}

// Settings is the global category/project pick-list, mirroring
// load_app_settings's defaults-merged-with-stored-file behaviour.
type Settings struct {
	Categories []string `json:"categories"`
	Projects   []string `json:"projects"`
}

// DefaultSettings matches utils.py's load_app_settings default category
// list; Projects starts empty since projects are created implicitly as
// documents reference them.
func DefaultSettings() Settings {
	return Settings{
		Categories: []string{
			"Standard",
			"Employee Requirements",
			"Internal Document",
			"Government",
			"Technical Guidance",
		},
	}
}

// Editor loads, mutates, and persists the document category mapping and
// the app-wide category/project settings. One Editor should be shared by
// every caller touching a given DATA_DIR; it serializes access with an
// internal mutex rather than relying on file locking.
type Editor struct {
	mu           sync.RWMutex
	mappingPath  string
	settingsPath string
	entries      map[string]Entry
	settings     Settings
}

// NewEditor builds an Editor rooted at dataDir, loading any existing
// document_categories.json and app_settings.json found there. A missing
// file is not an error — it is treated as an empty mapping / defaulted
// settings, matching the originals' own "file not found → return {}"
// behaviour.
func NewEditor(dataDir string) (*Editor, error) {
	e := &Editor{
		mappingPath:  filepath.Join(dataDir, "document_categories.json"),
		settingsPath: filepath.Join(dataDir, "app_settings.json"),
		entries:      map[string]Entry{},
		settings:     DefaultSettings(),
	}

	if err := loadJSON(e.mappingPath, &e.entries); err != nil {
		return nil, err
	}
	if e.entries == nil {
		e.entries = map[string]Entry{}
	}

	var stored Settings
	if err := loadJSON(e.settingsPath, &stored); err != nil {
		return nil, err
	}
	if len(stored.Categories) > 0 {
		e.settings.Categories = stored.Categories
	}
	if len(stored.Projects) > 0 {
		e.settings.Projects = stored.Projects
	}

	return e, nil
}

func loadJSON(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.Config("failed to read "+path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.Config("failed to parse "+path, err)
	}
	return nil
}

// Lookup returns the stored entry for fileName, if any. Matching
// load_document_categories's normalization, an absent entry is reported
// via ok=false rather than a zero-value Entry the caller might mistake for
// an explicit "Uncategorized" record.
func (e *Editor) Lookup(fileName string) (Entry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.entries[fileName]
	return entry, ok
}

// Set writes or replaces fileName's catalog entry and persists the
// mapping file. Any category named on the entry that is not already in
// the settings pick-list is appended, matching ingest_single_file's
// implicit "new categories just work" behaviour in the original.
func (e *Editor) Set(fileName string, entry Entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.entries[fileName] = entry
	for _, c := range entry.AllCategories() {
		e.addCategoryLocked(c)
	}
	if entry.Project != "" {
		e.addProjectLocked(entry.Project)
	}

	if err := e.writeMappingLocked(); err != nil {
		return err
	}
	return e.writeSettingsLocked()
}

// Delete removes fileName's catalog entry, called when a document is
// deleted so its metadata does not outlive it (spec.md's Document
// lifecycle: "deletion cascades to its chunks").
func (e *Editor) Delete(fileName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.entries[fileName]; !ok {
		return nil
	}
	delete(e.entries, fileName)
	return e.writeMappingLocked()
}

// ApplyToDocument folds the stored entry for doc.FileName into doc,
// mirroring parse_file's "prefer parameter category, fall back to stored
// mapping" precedence: any field doc already carries wins; only fields
// doc leaves zero-valued are filled from the catalog.
func (e *Editor) ApplyToDocument(doc model.Document) model.Document {
	entry, ok := e.Lookup(doc.FileName)
	if !ok {
		return doc
	}
	if len(doc.Categories) == 0 {
		doc.Categories = entry.AllCategories()
	}
	if doc.Project == "" {
		doc.Project = entry.Project
	}
	if doc.StandardNo == "" {
		doc.StandardNo = entry.StandardNo
	}
	if doc.Date == "" {
		doc.Date = entry.Date
	}
	if doc.Description == "" {
		doc.Description = entry.Description
	}
	return doc
}

// Settings returns a copy of the current category/project pick-list.
func (e *Editor) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Settings{
		Categories: append([]string(nil), e.settings.Categories...),
		Projects:   append([]string(nil), e.settings.Projects...),
	}
}

func (e *Editor) addCategoryLocked(category string) {
	for _, c := range e.settings.Categories {
		if c == category {
			return
		}
	}
	e.settings.Categories = append(e.settings.Categories, category)
	sort.Strings(e.settings.Categories)
}

func (e *Editor) addProjectLocked(project string) {
	for _, p := range e.settings.Projects {
		if p == project {
			return
		}
	}
	e.settings.Projects = append(e.settings.Projects, project)
	sort.Strings(e.settings.Projects)
}

func (e *Editor) writeMappingLocked() error {
	return writeJSONAtomic(e.mappingPath, e.entries)
}

func (e *Editor) writeSettingsLocked() error {
	return writeJSONAtomic(e.settingsPath, e.settings)
}

// writeJSONAtomic writes a temp file in the destination directory and
// renames it into place, so a crash mid-write never leaves a truncated
// catalog file behind — the one durability property utils.py's plain
// open()+json.dump() did not have.
func writeJSONAtomic(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Config("failed to encode "+path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.Config("failed to create "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.json")
	if err != nil {
		return apperrors.Config("failed to create temp file for "+path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperrors.Config("failed to write "+path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperrors.Config("failed to close "+path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apperrors.Config("failed to replace "+path, err)
	}
	return nil
}
