package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/standards-engine/retrieval/pkg/apperrors"
	"github.com/standards-engine/retrieval/pkg/chunk"
)

// readFile loads path's text content and, for paginated sources, a byte
// offset to page-number resolver. Non-PDF inputs carry no page numbers
// (spec.md §6): their resolver always returns 0.
func readFile(path string) (string, chunk.PageResolver, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return readPDF(path)
	case ".txt", ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", nil, apperrors.Parse(fmt.Sprintf("failed to read %s", path), err)
		}
		return string(raw), func(int) int { return 0 }, nil
	default:
		return "", nil, apperrors.Parse(fmt.Sprintf("unsupported file type: %s", filepath.Ext(path)), nil)
	}
}

// pageBoundary is the byte offset a page's extracted text starts at in
// the concatenated document, paired with its 1-based page number.
type pageBoundary struct {
	offset int
	page   int
}

// readPDF concatenates a PDF's page text in order, tracking per-page byte
// offsets so the returned resolver can map any chunk's start offset back
// to the page it came from. Grounded on the teacher's pdfParser
// (pkg/rag/native_parsers.go): same pdf.NewReader/NumPage/Page/
// GetPlainText walk, adapted to preserve offsets instead of only joining
// text, since downstream chunking needs per-leaf page numbers.
func readPDF(path string) (string, chunk.PageResolver, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", nil, apperrors.Parse(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", nil, apperrors.Parse(fmt.Sprintf("failed to stat %s", path), err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return "", nil, apperrors.Parse(fmt.Sprintf("failed to parse %s", path), err)
	}

	var sb strings.Builder
	var boundaries []pageBoundary
	totalPages := reader.NumPage()

	for n := 1; n <= totalPages; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unparseable page does not abort the document;
			// the remaining pages still carry usable text.
			continue
		}
		boundaries = append(boundaries, pageBoundary{offset: sb.Len(), page: n})
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return "", nil, apperrors.Parse(fmt.Sprintf("no extractable text in %s", path), nil)
	}

	pageOf := func(offset int) int {
		page := 0
		for _, b := range boundaries {
			if b.offset > offset {
				break
			}
			page = b.page
		}
		return page
	}

	return sb.String(), pageOf, nil
}

// documentName derives the stable document ID: the file's base name with
// its extension stripped, used as the vector payload's document_ref and
// the graph's Document node key.
func documentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocumentFileName is the catalog lookup key: the file's base name with
// its extension kept, matching parse_file's `file_key = file_path.name`.
// Distinct from documentName, which strips the extension for the stable
// document ID used elsewhere.
func DocumentFileName(path string) string {
	return filepath.Base(path)
}
