// Package sections parses a document's hierarchical section structure —
// Markdown headings, bare dotted section numbers, and (as a fallback) a
// supplied table of contents — and builds the ` > `-joined ancestor path
// used as the "Section:" line of a chunk's context prefix.
//
// Grounded on the HierarchicalSectionParser of the original chunker's
// section-parsing module, reshaped around the teacher's Markdown-aware
// parsing idioms in pkg/rag.
package sections

import (
	"regexp"
	"strings"
)

// Section is one heading or numbered section found in a document.
type Section struct {
	Level       int // 1-6; inferred from dotted-number depth when not a Markdown heading
	Number      string
	Title       string
	FullTitle   string // "Number Title", or just Title when Number is empty
	StartOffset int
}

var markdownHeadingLine = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
var sectionNumberPrefix = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+(.+)$`)
var bareNumberedLine = regexp.MustCompile(`^\d+(?:\.\d+)+\s+`)

// Parse splits text into lines and extracts every heading line, in document
// order. A line with no recognised heading form is treated as section body
// and contributes no Section entry.
func Parse(text string) []Section {
	var out []Section
	offset := 0

	for _, line := range strings.Split(text, "\n") {
		if sec, ok := parseHeadingLine(line); ok {
			sec.StartOffset = offset
			out = append(out, sec)
		}
		offset += len(line) + 1 // account for the stripped '\n'
	}

	return out
}

func parseHeadingLine(line string) (Section, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Section{}, false
	}

	if m := markdownHeadingLine.FindStringSubmatch(trimmed); m != nil {
		level := len(m[1])
		title := strings.TrimSpace(m[2])
		if sm := sectionNumberPrefix.FindStringSubmatch(title); sm != nil {
			return Section{Level: level, Number: sm[1], Title: sm[2], FullTitle: title}, true
		}
		return Section{Level: level, Title: title, FullTitle: title}, true
	}

	if bareNumberedLine.MatchString(trimmed) {
		if sm := sectionNumberPrefix.FindStringSubmatch(trimmed); sm != nil {
			level := strings.Count(sm[1], ".") + 1
			if level > 6 {
				level = 6
			}
			return Section{Level: level, Number: sm[1], Title: sm[2], FullTitle: trimmed}, true
		}
	}

	return Section{}, false
}

// BuildPath returns the ` > `-joined ancestor titles for sections[leafIdx],
// root first, walking backwards and keeping only strictly shallower levels
// (or the leaf itself), stopping once a level-1 ancestor is captured.
func BuildPath(secs []Section, leafIdx int) string {
	if leafIdx < 0 || leafIdx >= len(secs) {
		return ""
	}

	current := secs[leafIdx]
	currentLevel := current.Level
	var parts []string

	for i := leafIdx; i >= 0; i-- {
		s := secs[i]
		if s.Level < currentLevel || i == leafIdx {
			title := s.FullTitle
			if title == "" {
				title = s.Title
			}
			if title != "" {
				parts = append([]string{title}, parts...)
				currentLevel = s.Level
				if s.Level == 1 {
					break
				}
			}
		}
	}

	return strings.Join(parts, " > ")
}

// ParseWithTOC parses text as Parse does, then adds any TOC entry whose
// title appears verbatim at the start of a line that Parse's heading
// patterns missed — a fallback for documents whose body headings are plain
// prose lines matching a known table of contents.
func ParseWithTOC(text string, tocEntries []string) []Section {
	base := Parse(text)
	if len(tocEntries) == 0 {
		return base
	}

	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s.FullTitle] = true
	}

	lines := strings.Split(text, "\n")
	offset := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, entry := range tocEntries {
			entry = strings.TrimSpace(entry)
			if entry == "" || seen[entry] {
				continue
			}
			if strings.HasPrefix(trimmed, entry) {
				level := 1
				number := ""
				title := entry
				if sm := sectionNumberPrefix.FindStringSubmatch(entry); sm != nil {
					number = sm[1]
					title = sm[2]
					level = strings.Count(number, ".") + 1
					if level > 6 {
						level = 6
					}
				}
				base = append(base, Section{
					Level: level, Number: number, Title: title,
					FullTitle: entry, StartOffset: offset,
				})
				seen[entry] = true
			}
		}
		offset += len(line) + 1
	}

	sortByOffset(base)
	return base
}

func sortByOffset(secs []Section) {
	for i := 1; i < len(secs); i++ {
		for j := i; j > 0 && secs[j].StartOffset < secs[j-1].StartOffset; j-- {
			secs[j], secs[j-1] = secs[j-1], secs[j]
		}
	}
}

// FormatNumbered renders a (number, title) pair the way FullTitle does, for
// callers (e.g. pkg/chunk) that build a Section from parts rather than by
// parsing a line.
func FormatNumbered(number, title string) string {
	if number == "" {
		return title
	}
	return number + " " + title
}
