// Package ingest turns sheets and line sequences into canonical question
// records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brunobiangulo/quizbank/parser"
	"github.com/brunobiangulo/quizbank/question"
)

var (
	// ErrUnparsableSheet is returned when no question column can be resolved.
	ErrUnparsableSheet = errors.New("ingest: no question column")

	// ErrEmptySheet is returned for a sheet without any rows.
	ErrEmptySheet = errors.New("ingest: empty sheet")
)

// NoColumn marks a role that is not mapped to any column.
const NoColumn = -1

// ColumnMap assigns each role a 0-based column or NoColumn.
type ColumnMap struct {
	Type        int `json:"type"`
	Question    int `json:"question"`
	Options     int `json:"options"`
	Answer      int `json:"answer"`
	Explanation int `json:"explanation"`
}

func emptyColumnMap() ColumnMap {
	return ColumnMap{NoColumn, NoColumn, NoColumn, NoColumn, NoColumn}
}

// AnyResolved reports whether at least one role has a column.
func (m ColumnMap) AnyResolved() bool {
	return m.Type >= 0 || m.Question >= 0 || m.Options >= 0 || m.Answer >= 0 || m.Explanation >= 0
}

func (m ColumnMap) String() string {
	return fmt.Sprintf("type=%d question=%d options=%d answer=%d explanation=%d",
		m.Type, m.Question, m.Options, m.Answer, m.Explanation)
}

// headerRule matches a lowercased header cell to a role.
type headerRule struct {
	contains []string
	equals   []string
	assign   func(*ColumnMap, int)
}

func (r headerRule) match(h string) bool {
	for _, c := range r.contains {
		if strings.Contains(h, c) {
			return true
		}
	}
	for _, e := range r.equals {
		if h == e {
			return true
		}
	}
	return false
}

// Checked in order; the first rule that matches a header wins. Explanation
// precedes answer so that "答案解析" is not taken for the answer column.
var headerRules = []headerRule{
	{
		contains: []string{"题型", "type", "category"},
		equals:   []string{"类型"},
		assign:   func(m *ColumnMap, i int) { m.Type = i },
	},
	{
		contains: []string{"题干", "题目", "question", "stem"},
		equals:   []string{"内容", "content"},
		assign:   func(m *ColumnMap, i int) { m.Question = i },
	},
	{
		contains: []string{"选项", "option"},
		assign:   func(m *ColumnMap, i int) { m.Options = i },
	},
	{
		contains: []string{"解析", "explanation", "analysis", "说明"},
		equals:   []string{"note", "备注"},
		assign:   func(m *ColumnMap, i int) { m.Explanation = i },
	},
	{
		contains: []string{"答案", "answer"},
		assign:   func(m *ColumnMap, i int) { m.Answer = i },
	},
}

// DetectColumns builds a ColumnMap from a header row. When no question
// header is recognized the columns are assigned by position according to the
// header width: five or more columns map all roles, four map every role but
// type. Narrower sheets without a question header are unparsable.
//
// Explanation keywords are tested before answer keywords, so a combined
// header such as 答案解析 maps to the explanation role rather than the
// answer role.
func DetectColumns(header []string) (ColumnMap, error) {
	m := emptyColumnMap()
	for i, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell))
		if h == "" {
			continue
		}
		for _, r := range headerRules {
			if r.match(h) {
				r.assign(&m, i)
				break
			}
		}
	}

	if m.Question == NoColumn {
		switch {
		case len(header) >= 5:
			m = ColumnMap{Type: 0, Question: 1, Options: 2, Answer: 3, Explanation: 4}
		case len(header) >= 4:
			m = ColumnMap{Type: NoColumn, Question: 0, Options: 1, Answer: 2, Explanation: 3}
		default:
			return m, fmt.Errorf("%w: header has %d columns", ErrUnparsableSheet, len(header))
		}
	}
	return m, nil
}

// Tabular extracts questions from spreadsheet rows.
type Tabular struct {
	logger *slog.Logger
}

// NewTabular returns a Tabular ingestor. A nil logger uses slog.Default.
func NewTabular(logger *slog.Logger) *Tabular {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tabular{logger: logger}
}

// Ingest reads src with row 0 as the header and returns one record per
// usable data row.
func (t *Tabular) Ingest(ctx context.Context, src parser.SheetSource) ([]question.Record, error) {
	n := src.RowCount()
	if n == 0 {
		return nil, ErrEmptySheet
	}

	cols, err := DetectColumns(src.Row(0))
	if err != nil {
		return nil, err
	}
	t.logger.Debug("tabular: detected columns", "columns", cols.String())

	start := 0
	if cols.AnyResolved() {
		start = 1
	}

	var recs []question.Record
	skipped := 0
	for i := start; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := src.Row(i)
		if isBlankRow(row) {
			continue
		}
		rec, ok := question.Canonicalize(extractRow(row, cols))
		if !ok {
			skipped++
			continue
		}
		recs = append(recs, rec)
	}

	if skipped > 0 {
		t.logger.Debug("tabular: rows without question text skipped", "count", skipped)
	}
	return recs, nil
}

// extractRow reads each role from its mapped column, falling back to fixed
// positions for unmapped roles.
func extractRow(row []string, cols ColumnMap) question.RawRecord {
	return question.RawRecord{
		Type:        cell(row, cols.Type),
		Question:    roleCell(row, cols.Question, 0),
		Options:     roleCell(row, cols.Options, 1),
		Answer:      roleCell(row, cols.Answer, 2),
		Explanation: roleCell(row, cols.Explanation, 3),
	}
}

func roleCell(row []string, mapped, fallback int) string {
	if mapped != NoColumn {
		return cell(row, mapped)
	}
	return cell(row, fallback)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
