package chunk

import (
	"strings"

	"github.com/standards-engine/retrieval/pkg/model"
	"github.com/standards-engine/retrieval/pkg/sections"
	"github.com/standards-engine/retrieval/pkg/tables"
)

// PageResolver maps a byte offset in the document's full text to a page
// number (1-based); callers without real pagination (e.g. a plain text
// source) can pass a resolver that always returns 0.
type PageResolver func(offset int) int

// sectionBound is one section's byte span, paired with the Section it
// starts at (the zero value for an implicit leading "no section" span).
type sectionBound struct {
	Sec        sections.Section
	HasSection bool
	Start, End int
}

func sectionBounds(secs []sections.Section, textLen int) []sectionBound {
	if len(secs) == 0 {
		return []sectionBound{{Start: 0, End: textLen}}
	}

	var bounds []sectionBound
	if secs[0].StartOffset > 0 {
		bounds = append(bounds, sectionBound{Start: 0, End: secs[0].StartOffset})
	}

	for i, s := range secs {
		end := textLen
		if i+1 < len(secs) {
			end = secs[i+1].StartOffset
		}
		bounds = append(bounds, sectionBound{Sec: s, HasSection: true, Start: s.StartOffset, End: end})
	}

	return bounds
}

// BuildTree produces the full chunk tree for one document: a root node,
// one interior node per section-bounded slice, and the leaves split from
// each interior node's text. Only leaves (Level == 0) carry embeddings
// (populated later by pkg/embed) and are indexed for dense search.
func BuildTree(doc model.Document, text string, secs []sections.Section, cfg Config, pageOf PageResolver) []model.Chunk {
	cfg.setDefaults()
	if pageOf == nil {
		pageOf = func(int) int { return 0 }
	}

	rootID := contentID(doc.Name, "root", "")
	root := model.Chunk{
		ID:           rootID,
		DocumentRef:  doc.Name,
		Level:        cfg.rootLevel(),
		TextOriginal: text,
		TextEnriched: text,
	}

	var out []model.Chunk
	var rootChildren []string

	bounds := sectionBounds(secs, len(text))
	interiorLevel := cfg.rootLevel() - 1
	if interiorLevel < 0 {
		interiorLevel = 0
	}

	for _, b := range bounds {
		sectionText := text[b.Start:b.End]
		if len(sectionText) == 0 {
			continue
		}

		sectionNumber, sectionTitle, sectionPath := "", "", ""
		if b.HasSection {
			sectionNumber = b.Sec.Number
			sectionTitle = b.Sec.Title
			sectionPath = pathFor(secs, b.Sec)
		}

		interiorID := contentID(doc.Name, sectionNumber+":"+sectionTitle, "")
		interior := model.Chunk{
			ID:            interiorID,
			DocumentRef:   doc.Name,
			SectionNumber: sectionNumber,
			SectionTitle:  sectionTitle,
			TextOriginal:  sectionText,
			TextEnriched:  sectionText,
			ParentID:      rootID,
			Level:         interiorLevel,
		}
		rootChildren = append(rootChildren, interiorID)

		leafSpans := splitIntoLeaves(sectionText, cfg.leafSize(), cfg.OverlapMax)
		var leafChildren []string

		for i, sp := range leafSpans {
			leafText := sectionText[sp.Start:sp.End]
			page := pageOf(b.Start + sp.Start)

			var payload *model.TablePayload
			hasTable := tables.HasTable(leafText)
			if hasTable {
				if parsed := tables.ExtractAll(leafText); len(parsed) > 0 {
					t := parsed[0]
					js, _ := t.ToJSON()
					payload = &model.TablePayload{
						JSON:        js,
						NaturalText: t.ToNaturalLanguage(),
						Summary:     t.Summary,
					}
				}
			}

			pos := position(i, len(leafSpans))
			prefix := buildContextPrefix(doc, sectionPath, sectionTitle, page, tableContext(payload), pos, cfg.PrefixCap)

			leafID := contentID(doc.Name, sectionNumber, leafText)
			leaf := model.Chunk{
				ID:            leafID,
				DocumentRef:   doc.Name,
				Page:          page,
				SectionNumber: sectionNumber,
				SectionTitle:  sectionTitle,
				SectionPath:   pathParts(secs, b.Sec, b.HasSection),
				TextOriginal:  leafText,
				TextEnriched:  enrich(prefix, leafText),
				ParentID:      interiorID,
				Level:         0,
				HasTable:      hasTable,
				TablePayload:  payload,
			}
			leafChildren = append(leafChildren, leafID)
			out = append(out, leaf)
		}

		interior.ChildrenIDs = leafChildren
		out = append(out, interior)
	}

	root.ChildrenIDs = rootChildren
	out = append(out, root)

	return out
}

func pathFor(secs []sections.Section, target sections.Section) string {
	for i, s := range secs {
		if s == target {
			return sections.BuildPath(secs, i)
		}
	}
	return sections.FormatNumbered(target.Number, target.Title)
}

func pathParts(secs []sections.Section, target sections.Section, has bool) []string {
	if !has {
		return nil
	}
	path := pathFor(secs, target)
	if path == "" {
		return nil
	}
	return strings.Split(path, " > ")
}
