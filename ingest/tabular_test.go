package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/brunobiangulo/quizbank/parser"
	"github.com/brunobiangulo/quizbank/question"
)

// ---------------------------------------------------------------------------
// Column detection
// ---------------------------------------------------------------------------

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   ColumnMap
	}{
		{
			name:   "chinese headers",
			header: []string{"题型", "题干", "选项", "答案", "解析"},
			want:   ColumnMap{Type: 0, Question: 1, Options: 2, Answer: 3, Explanation: 4},
		},
		{
			name:   "explanation header containing answer",
			header: []string{"题目", "答案解析", "正确答案"},
			want:   ColumnMap{Type: NoColumn, Question: 0, Options: NoColumn, Answer: 2, Explanation: 1},
		},
		{
			name:   "english headers any case",
			header: []string{"Question", " Type ", "Options", "ANSWER", "Note"},
			want:   ColumnMap{Type: 1, Question: 0, Options: 2, Answer: 3, Explanation: 4},
		},
		{
			name:   "exact match labels",
			header: []string{"类型", "内容", "", "备注"},
			want:   ColumnMap{Type: 0, Question: 1, Options: NoColumn, Answer: NoColumn, Explanation: 3},
		},
		{
			name:   "positional five columns",
			header: []string{"a", "b", "c", "d", "e", "f"},
			want:   ColumnMap{Type: 0, Question: 1, Options: 2, Answer: 3, Explanation: 4},
		},
		{
			name:   "positional four columns",
			header: []string{"a", "b", "c", "d"},
			want:   ColumnMap{Type: NoColumn, Question: 0, Options: 1, Answer: 2, Explanation: 3},
		},
		{
			name:   "positional overrides partial headers",
			header: []string{"题型", "x", "答案", "y", "z"},
			want:   ColumnMap{Type: 0, Question: 1, Options: 2, Answer: 3, Explanation: 4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectColumns(tt.header)
			if err != nil {
				t.Fatalf("DetectColumns: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DetectColumns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectColumnsUnparsable(t *testing.T) {
	for _, header := range [][]string{nil, {"a"}, {"题型", "答案", "解析"}} {
		if _, err := DetectColumns(header); !errors.Is(err, ErrUnparsableSheet) {
			t.Errorf("DetectColumns(%q) err = %v, want ErrUnparsableSheet", header, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Ingest
// ---------------------------------------------------------------------------

func TestTabularIngest(t *testing.T) {
	sheet := &parser.Sheet{Name: "题库", Rows: [][]string{
		{"题型", "题干", "选项", "答案", "解析"},
		{"单选题", "What is 2+2?", "A.3|B.4", "b", "basic"},
		{"", "", "", "", ""},
		{"多选", "选出质数", "A. 2\nB. 4\nC. 5", "a c", ""},
		{"判断题", "地球是圆的", "A.对|B.错", "对", ""},
		{"单选", "   ", "A.x", "A", "no question"},
		{"未知", "默认单选", "①甲；②乙", "Ａ"},
	}}

	got, err := NewTabular(nil).Ingest(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	want := []question.Record{
		{Type: question.Single, Question: "What is 2+2?", Options: []string{"3", "4"}, Answer: "B", Explanation: "basic"},
		{Type: question.Multiple, Question: "选出质数", Options: []string{"2", "4", "5"}, Answer: "AC"},
		{Type: question.Judge, Question: "地球是圆的", Answer: "A"},
		{Type: question.Single, Question: "默认单选", Options: []string{"甲", "乙"}, Answer: "A"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Ingest mismatch (-want +got):\n%s", diff)
	}
}

func TestTabularIngestFallbackColumns(t *testing.T) {
	// Only the question header is known; the other roles use fixed positions.
	sheet := &parser.Sheet{Rows: [][]string{
		{"题干", "x", "y", "z"},
		{"q", "甲|乙", "B", "因为"},
	}}
	got, err := NewTabular(nil).Ingest(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	want := []question.Record{
		{Type: question.Single, Question: "q", Options: []string{"甲", "乙"}, Answer: "B", Explanation: "因为"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Ingest mismatch (-want +got):\n%s", diff)
	}
}

func TestTabularIngestPositionalSkipsHeaderRow(t *testing.T) {
	sheet := &parser.Sheet{Rows: [][]string{
		{"col1", "col2", "col3", "col4"},
		{"问题", "A.甲|B.乙", "A", ""},
		{"short row"},
	}}
	got, err := NewTabular(nil).Ingest(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].Question != "问题" || got[1].Question != "short row" {
		t.Errorf("questions = %q, %q", got[0].Question, got[1].Question)
	}
	if got[1].Options != nil || got[1].Answer != "" {
		t.Errorf("short row should have no options or answer: %+v", got[1])
	}
}

func TestTabularIngestErrors(t *testing.T) {
	ing := NewTabular(nil)
	ctx := context.Background()

	if _, err := ing.Ingest(ctx, &parser.Sheet{}); !errors.Is(err, ErrEmptySheet) {
		t.Errorf("empty sheet err = %v, want ErrEmptySheet", err)
	}
	if _, err := ing.Ingest(ctx, &parser.Sheet{Rows: [][]string{{"a", "b"}, {"1", "2"}}}); !errors.Is(err, ErrUnparsableSheet) {
		t.Errorf("narrow sheet err = %v, want ErrUnparsableSheet", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	sheet := &parser.Sheet{Rows: [][]string{{"题干"}, {"q"}}}
	if _, err := ing.Ingest(cancelled, sheet); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled err = %v, want context.Canceled", err)
	}
}

func TestTabularIngestEveryRecordHasQuestion(t *testing.T) {
	sheet := &parser.Sheet{Rows: [][]string{
		{"题干", "答案"},
		{"", "A"},
		{" ", "B"},
		{"q", ""},
		{"\t", "C"},
	}}
	got, err := NewTabular(nil).Ingest(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(got) != 1 || got[0].Question != "q" {
		t.Errorf("got %+v, want only q", got)
	}
}
