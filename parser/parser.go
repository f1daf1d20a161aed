// Package parser reads quiz-bank files into the two source shapes the
// ingestors consume: sheets of rows and sequences of text lines.
package parser

import "context"

// Kind tells which source shape a format produces.
type Kind int

const (
	KindSheet Kind = iota + 1 // rows of cells, first row is the header
	KindLines                 // ordered paragraph text
)

func (k Kind) String() string {
	switch k {
	case KindSheet:
		return "tabular"
	case KindLines:
		return "narrative"
	default:
		return "unknown"
	}
}

// SheetSource exposes a sheet as rows of cell text. Row 0 is the header.
type SheetSource interface {
	RowCount() int
	Row(i int) []string
}

// LineSource exposes trimmed, non-empty text lines in document order.
type LineSource interface {
	Lines() []string
}

// Sheet is an in-memory SheetSource.
type Sheet struct {
	Name string
	Rows [][]string
}

func (s *Sheet) RowCount() int { return len(s.Rows) }

// Row returns row i, or nil when i is out of range.
func (s *Sheet) Row(i int) []string {
	if i < 0 || i >= len(s.Rows) {
		return nil
	}
	return s.Rows[i]
}

// newSheet pads every row to the width of the widest one. Spreadsheet
// readers drop trailing empty cells, so without padding the header row of a
// headerless sheet would understate the sheet's width.
func newSheet(name string, rows [][]string) *Sheet {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		}
	}
	return &Sheet{Name: name, Rows: rows}
}

// Lines is an in-memory LineSource.
type Lines []string

func (l Lines) Lines() []string { return l }

// ParseResult is what a parser produces from a file. Exactly one of Sheets
// and Lines is populated, according to Kind.
type ParseResult struct {
	Kind     Kind
	Sheets   []*Sheet
	Lines    Lines
	Method   string // "native"
	Metadata map[string]string
}

// Parser can read a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string) (*ParseResult, error)
	SupportedFormats() []string
	Kind() Kind
}
