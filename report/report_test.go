package report

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/go-cmp/cmp"

	"github.com/brunobiangulo/quizbank/question"
)

func TestCompute(t *testing.T) {
	records := []question.Record{
		{Type: question.Single, Question: "a", Explanation: "x"},
		{Type: question.Single, Question: "b"},
		{Type: question.Judge, Question: "c"},
	}
	s := Compute(records)

	if s.Total != 3 || s.WithExplanation != 1 {
		t.Errorf("Total = %d, WithExplanation = %d", s.Total, s.WithExplanation)
	}
	var got []string
	for _, tc := range s.ByType {
		got = append(got, string(tc.Type)+":"+FormatPercent(tc.Percent))
	}
	want := []string{"SINGLE:66.7%", "MULTIPLE:0.0%", "JUDGE:33.3%"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ByType mismatch (-want +got):\n%s", diff)
	}
	if FormatPercent(s.ExplanationPercent) != "33.3%" {
		t.Errorf("ExplanationPercent = %v", s.ExplanationPercent)
	}
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)
	if s.Total != 0 || len(s.ByType) != len(question.Types) {
		t.Fatalf("unexpected stats: %+v", s)
	}
	for _, tc := range s.ByType {
		if tc.Percent != 0 {
			t.Errorf("%s percent = %v, want 0", tc.Type, tc.Percent)
		}
	}
}

func TestLines(t *testing.T) {
	s := Compute([]question.Record{
		{Type: question.Multiple, Question: "a", Explanation: "x"},
		{Type: question.Multiple, Question: "b", Explanation: "y"},
	})
	want := []string{
		"总题目数: 2",
		"  - 单选题: 0 (0.0%)",
		"  - 多选题: 2 (100.0%)",
		"  - 判断题: 0 (0.0%)",
		"包含解析: 2 (100.0%)",
	}
	if diff := cmp.Diff(want, s.Lines()); diff != "" {
		t.Errorf("Lines mismatch (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	plain := Styles{Title: lipgloss.NewStyle(), Body: lipgloss.NewStyle(), Box: lipgloss.NewStyle()}
	out := Render(Compute([]question.Record{{Type: question.Judge, Question: "q"}}), plain)
	for _, want := range []string{"转换统计", "总题目数: 1", "判断题: 1 (100.0%)", "包含解析: 0 (0.0%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render output missing %q:\n%s", want, out)
		}
	}
}
