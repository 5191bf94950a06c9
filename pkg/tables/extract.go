package tables

import "strings"

// HasTable reports whether text contains at least one Markdown table row
// (two or more pipe-delimited cells).
func HasTable(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.Count(line, "|") >= 3 {
			return true
		}
	}
	return false
}

// ExtractAll finds every Markdown table in text, in document order,
// including a caption line immediately preceding each one.
func ExtractAll(text string) []ParsedTable {
	var tables []ParsedTable
	lines := strings.Split(text, "\n")

	var current []string
	var caption string
	inTable := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		block := strings.Join(current, "\n")
		if caption != "" {
			block = caption + "\n" + block
		}
		if t, ok := ParseMarkdownTable(block); ok {
			tables = append(tables, t)
		}
		current = nil
		caption = ""
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if !inTable && line != "" && !strings.HasPrefix(line, "|") && captionLine.MatchString(line) {
			caption = line
		}

		switch {
		case strings.HasPrefix(line, "|") && tableLine.MatchString(line):
			inTable = true
			current = append(current, raw)
		case inTable && strings.HasPrefix(line, "|"):
			current = append(current, raw)
		case inTable:
			flush()
			inTable = false
		}
	}
	flush()

	return tables
}
