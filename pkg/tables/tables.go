// Package tables parses Markdown tables into typed, structured form and
// renders them three ways — canonical JSON, a row-by-row natural-language
// description, and a short summary of type, shape, columns and per-column
// numeric ranges —
// all three of which are attached to the owning chunk. Dense retrieval
// scores tabular content far better when textual forms accompany the grid.
//
// Grounded on original_source/src/smart_table_parser.py
// (TableCell/TableRow/ParsedTable and their to_json/to_natural_language/
// summary methods), transliterated to Go idioms.
package tables

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// CellType classifies a table cell's parsed content.
type CellType string

const (
	CellText      CellType = "text"
	CellNumber    CellType = "number"
	CellUnitValue CellType = "unit_value"
	CellRange     CellType = "range"
)

// TableType classifies the table's overall purpose.
type TableType string

const (
	TypeSpecification TableType = "specification"
	TypeComparison     TableType = "comparison"
	TypeReference      TableType = "reference"
	TypeData           TableType = "data"
	TypeRequirement    TableType = "requirement"
)

// Cell is one parsed table cell.
type Cell struct {
	Value        string
	RowIndex     int
	ColIndex     int
	Header       string
	RowContext   string // first cell of the row, which usually names it
	DataType     CellType
	NumericValue *float64
	Unit         string
}

// Row is one parsed table row.
type Row struct {
	Index     int
	Cells     []Cell
	RowHeader string
}

// AsMap returns the row as header→value pairs, for callers that want a
// JSON-friendly row representation.
func (r Row) AsMap() map[string]string {
	out := make(map[string]string, len(r.Cells))
	for _, c := range r.Cells {
		if c.Header != "" {
			out[c.Header] = c.Value
		}
	}
	return out
}

// ParsedTable is a fully parsed Markdown table.
type ParsedTable struct {
	Headers   []string
	Rows      []Row
	Caption   string
	TableType TableType
	Summary   string
}

type tableJSON struct {
	Caption string              `json:"caption"`
	Type    TableType           `json:"type"`
	Summary string              `json:"summary"`
	Headers []string            `json:"headers"`
	Data    []map[string]string `json:"data"`
}

// ToJSON renders the canonical JSON form.
func (t ParsedTable) ToJSON() (string, error) {
	data := make([]map[string]string, len(t.Rows))
	for i, r := range t.Rows {
		data[i] = r.AsMap()
	}
	b, err := json.MarshalIndent(tableJSON{
		Caption: t.Caption, Type: t.TableType, Summary: t.Summary,
		Headers: t.Headers, Data: data,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToNaturalLanguage renders a row-by-row description keyed by each row's
// first-cell row header.
func (t ParsedTable) ToNaturalLanguage() string {
	var lines []string

	if t.Caption != "" {
		lines = append(lines, "Table: "+t.Caption)
	}
	if t.Summary != "" {
		lines = append(lines, "Summary: "+t.Summary)
	}

	for _, row := range t.Rows {
		var parts []string
		for _, c := range row.Cells {
			if c.Header != "" && c.Value != "" {
				parts = append(parts, c.Header+": "+c.Value)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if row.RowHeader != "" && len(parts) > 1 {
			lines = append(lines, "For "+row.RowHeader+": "+strings.Join(parts[1:], ", "))
		} else {
			lines = append(lines, strings.Join(parts, " | "))
		}
	}

	return strings.Join(lines, "\n")
}

var tableLine = regexp.MustCompile(`^\|.*\|$`)
var separatorLine = regexp.MustCompile(`^\|[-:\s|]+\|$`)
var captionLine = regexp.MustCompile(`(?i)^(Table|Tab\.?)\s*\d*[.:]*`)

// ParseMarkdownTable parses the first Markdown table found in text,
// including an optional caption line immediately preceding it. Returns
// false if no table with a header plus at least one data row is found.
func ParseMarkdownTable(text string) (ParsedTable, bool) {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	var tableLines []string
	var caption string
	inTable := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if !inTable && line != "" && !strings.HasPrefix(line, "|") && captionLine.MatchString(line) {
			caption = line
		}

		if strings.HasPrefix(line, "|") && tableLine.MatchString(line) {
			inTable = true
			if !separatorLine.MatchString(line) {
				tableLines = append(tableLines, line)
			}
		} else if inTable && !strings.HasPrefix(line, "|") {
			break
		}
	}

	if len(tableLines) < 2 {
		return ParsedTable{}, false
	}

	headers := splitRow(tableLines[0])
	var rows []Row

	for idx, line := range tableLines[1:] {
		cells := splitRow(line)
		for len(cells) < len(headers) {
			cells = append(cells, "")
		}
		cells = cells[:len(headers)]

		rowHeader := ""
		if len(cells) > 0 {
			rowHeader = cells[0]
		}

		row := Row{Index: idx, RowHeader: rowHeader}
		for col, value := range cells {
			header := ""
			if col < len(headers) {
				header = headers[col]
			}
			row.Cells = append(row.Cells, newCell(value, idx, col, header, rowHeader))
		}
		rows = append(rows, row)
	}

	tableType := detectTableType(headers, rows)

	t := ParsedTable{
		Headers:   headers,
		Rows:      rows,
		Caption:   caption,
		TableType: tableType,
	}
	t.Summary = generateSummary(t)
	return t, true
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")

	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

var unitValuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mm²|mm2|sq\.?\s*mm)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kV|V|mV|volt)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kA|A|mA|amp)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kW|W|MW|watt)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(Ω|ohm|ohms)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(°C|°F|K|degree)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(m|mm|cm|km|meter)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(Hz|kHz|MHz)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(%|percent)`),
	regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kg|g|lb|ton)`),
}

var plainNumber = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

func newCell(value string, rowIdx, colIdx int, header, rowContext string) Cell {
	cell := Cell{
		Value: value, RowIndex: rowIdx, ColIndex: colIdx,
		Header: header, RowContext: rowContext, DataType: CellText,
	}

	for _, pattern := range unitValuePatterns {
		m := pattern.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			cell.NumericValue = &n
			cell.Unit = m[2]
			cell.DataType = CellUnitValue
			return cell
		}
	}

	if plainNumber.MatchString(strings.TrimSpace(value)) {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			cell.NumericValue = &n
			cell.DataType = CellNumber
		}
		return cell
	}

	if isRange(value) {
		cell.DataType = CellRange
	}

	return cell
}

var simpleRange = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*(?:-|to)\s*(\d+(?:\.\d+)?)\s*([A-Za-z%Ω°]*)\s*$`)

func isRange(value string) bool {
	return simpleRange.MatchString(value)
}

var typeIndicators = []struct {
	kind       TableType
	indicators []string
}{
	{TypeSpecification, []string{"rating", "spec", "parameter", "value", "unit", "range", "limit"}},
	{TypeComparison, []string{"vs", "compare", "difference", "option", "choice", "type"}},
	{TypeReference, []string{"standard", "code", "clause", "section", "reference", "norm"}},
	{TypeData, []string{"measurement", "result", "test", "sample", "reading"}},
	{TypeRequirement, []string{"requirement", "mandatory", "optional", "condition", "criteria"}},
}

func detectTableType(headers []string, rows []Row) TableType {
	headerText := strings.ToLower(strings.Join(headers, " "))
	if t, ok := matchIndicators(headerText); ok {
		return t
	}

	var values []string
	for _, row := range rows {
		for _, c := range row.Cells {
			values = append(values, strings.ToLower(c.Value))
		}
	}
	if t, ok := matchIndicators(strings.Join(values, " ")); ok {
		return t
	}

	return TypeData
}

func matchIndicators(haystack string) (TableType, bool) {
	for _, ti := range typeIndicators {
		for _, ind := range ti.indicators {
			if strings.Contains(haystack, ind) {
				return ti.kind, true
			}
		}
	}
	return "", false
}

func generateSummary(t ParsedTable) string {
	var parts []string
	parts = append(parts, strings.Join([]string{
		"A", string(t.TableType), "table with",
		strconv.Itoa(len(t.Headers)), "columns and",
		strconv.Itoa(len(t.Rows)), "rows.",
	}, " "))
	parts = append(parts, "Columns: "+strings.Join(t.Headers, ", "))

	numericByColumn := make(map[string][]float64)
	for _, row := range t.Rows {
		for _, c := range row.Cells {
			if c.NumericValue != nil {
				numericByColumn[c.Header] = append(numericByColumn[c.Header], *c.NumericValue)
			}
		}
	}

	if len(numericByColumn) > 0 {
		var ranges []string
		for _, header := range t.Headers {
			values, ok := numericByColumn[header]
			if !ok || len(values) == 0 {
				continue
			}
			lo, hi := minMax(values)
			if lo != hi {
				ranges = append(ranges, header+": "+formatFloat(lo)+"-"+formatFloat(hi))
			} else {
				ranges = append(ranges, header+": "+formatFloat(lo))
			}
		}
		if len(ranges) > 0 {
			parts = append(parts, "Value ranges: "+strings.Join(ranges, ", "))
		}
	}

	return strings.Join(parts, " ")
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
