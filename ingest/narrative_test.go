package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/brunobiangulo/quizbank/parser"
	"github.com/brunobiangulo/quizbank/question"
)

func TestFoldSingleChoice(t *testing.T) {
	got := Fold([]string{"1. What is 2+2?", "A. 3", "B. 4", "答案: B"})
	want := []question.Record{{
		Type:     question.Single,
		Question: "What is 2+2?",
		Options:  []string{"3", "4"},
		Answer:   "B",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fold mismatch (-want +got):\n%s", diff)
	}
	if got[0].OptionsField() != "3|4" {
		t.Errorf("options field = %q, want 3|4", got[0].OptionsField())
	}
}

func TestFoldMultipleAnswerReclassifies(t *testing.T) {
	got := Fold([]string{"1. 选出质数", "A. 2", "B. 4", "C. 5", "答案: AC"})
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Type != question.Multiple || got[0].Answer != "AC" {
		t.Errorf("got type %s answer %q, want MULTIPLE AC", got[0].Type, got[0].Answer)
	}
}

func TestFoldJudge(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  question.Record
	}{
		{
			name:  "no options",
			lines: []string{"1. 地球是圆的", "答案：正确", "解析：常识"},
			want:  question.Record{Type: question.Judge, Question: "地球是圆的", Answer: "A", Explanation: "常识"},
		},
		{
			name:  "two options discarded",
			lines: []string{"2. 太阳从西边升起", "A. 对", "B. 错", "答案：错"},
			want:  question.Record{Type: question.Judge, Question: "太阳从西边升起", Answer: "B"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fold(tt.lines)
			if diff := cmp.Diff([]question.Record{tt.want}, got); diff != "" {
				t.Errorf("Fold mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFoldTrueFalseWordWithManyOptionsStaysSingle(t *testing.T) {
	got := Fold([]string{"1. 哪个说法", "A. 甲", "B. 乙", "C. 丙", "答案：正确"})
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Type != question.Single {
		t.Errorf("type = %s, want SINGLE", got[0].Type)
	}
	if len(got[0].Options) != 3 {
		t.Errorf("options = %q, want three", got[0].Options)
	}
}

func TestFoldContinuationAndDrops(t *testing.T) {
	lines := []string{
		"题库标题",
		"一、单选题",
		"1. 第一行",
		"第二行",
		"A.",
		"A. x",
		"stray after options",
		"答案：A",
		"more after answer",
		"2. next",
	}
	got := Fold(lines)
	want := []question.Record{
		{Type: question.Single, Question: "第一行 第二行", Options: []string{"x"}, Answer: "A"},
		{Type: question.Single, Question: "next"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fold mismatch (-want +got):\n%s", diff)
	}
}

func TestFoldContinuationStopsAtAnswer(t *testing.T) {
	got := Fold([]string{"1. 题干", "答案：B", "附加说明行"})
	if got[0].Question != "题干" {
		t.Errorf("question = %q, want 题干", got[0].Question)
	}
}

func TestFoldExplanationOverrides(t *testing.T) {
	got := Fold([]string{"1. q", "A. a", "答案：A", "解析：first", "说明：second"})
	if got[0].Explanation != "second" {
		t.Errorf("explanation = %q, want second", got[0].Explanation)
	}
}

func TestFoldNeverEmitsEmptyQuestion(t *testing.T) {
	inputs := [][]string{
		nil,
		{"A. x", "答案：A"},
		{"答案：A", "解析：x"},
		{"1..", "1. ", "2、"},
		{"noise", "更多噪音", "×"},
	}
	for _, lines := range inputs {
		for _, r := range Fold(lines) {
			if r.Question == "" {
				t.Errorf("Fold(%q) emitted a record with empty question", lines)
			}
		}
	}
}

func TestStepDoesNotModifyInput(t *testing.T) {
	s := Step(NarrativeState{}, "1. q")
	s = Step(s, "A. a")

	before := s
	beforeQuestion := s.Current.Question
	_ = Step(s, "B. b")
	_ = Step(s, "答案：AB")
	_ = Step(s, "2. other")

	if len(before.Options) != 1 || before.Options[0] != "a" {
		t.Errorf("options changed: %q", before.Options)
	}
	if s.Current.Question != beforeQuestion || s.Current.Answer != "" || s.Current.Type != question.Single {
		t.Errorf("current draft changed: %+v", *s.Current)
	}
	if len(s.Done) != 0 {
		t.Errorf("done changed: %+v", s.Done)
	}
}

func TestStepIgnoresLinesWhileIdle(t *testing.T) {
	s := Step(NarrativeState{}, "A. orphan option")
	s = Step(s, "答案：A")
	if s.Current != nil || len(s.Options) != 0 || len(s.Done) != 0 {
		t.Errorf("idle state changed: %+v", s)
	}
}

func TestNarrativeIngest(t *testing.T) {
	n := NewNarrative(nil)
	recs, err := n.Ingest(context.Background(), parser.Lines{"1. a", "2. b"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := n.Ingest(ctx, parser.Lines{"1. a"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
