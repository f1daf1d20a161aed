// Package report summarizes a conversion run.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/brunobiangulo/quizbank/question"
)

// TypeCount is the number of records of one type.
type TypeCount struct {
	Type    question.Type `json:"type"`
	Count   int           `json:"count"`
	Percent float64       `json:"percent"`
}

// Stats holds run totals. ByType always lists every type, zero counts
// included, in Single, Multiple, Judge order.
type Stats struct {
	Total              int         `json:"total"`
	ByType             []TypeCount `json:"by_type"`
	WithExplanation    int         `json:"with_explanation"`
	ExplanationPercent float64     `json:"explanation_percent"`
}

// Compute counts records by type and explanation coverage.
func Compute(records []question.Record) Stats {
	counts := make(map[question.Type]int, len(question.Types))
	s := Stats{Total: len(records)}
	for _, r := range records {
		counts[r.Type]++
		if r.HasExplanation() {
			s.WithExplanation++
		}
	}
	for _, t := range question.Types {
		s.ByType = append(s.ByType, TypeCount{
			Type:    t,
			Count:   counts[t],
			Percent: Percent(counts[t], s.Total),
		})
	}
	s.ExplanationPercent = Percent(s.WithExplanation, s.Total)
	return s
}

// Percent returns n as a percentage of total, or 0 when total is 0.
func Percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

// FormatPercent formats p with one decimal place.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Lines returns the summary as plain text lines.
func (s Stats) Lines() []string {
	lines := []string{fmt.Sprintf("总题目数: %d", s.Total)}
	for _, tc := range s.ByType {
		lines = append(lines, fmt.Sprintf("  - %s: %d (%s)", tc.Type.Label(), tc.Count, FormatPercent(tc.Percent)))
	}
	lines = append(lines, fmt.Sprintf("包含解析: %d (%s)", s.WithExplanation, FormatPercent(s.ExplanationPercent)))
	return lines
}

// Styles controls summary rendering.
type Styles struct {
	Title lipgloss.Style
	Body  lipgloss.Style
	Box   lipgloss.Style
}

// DefaultStyles returns the console styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Body:  lipgloss.NewStyle(),
		Box: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
	}
}

// Render formats s as a boxed summary.
func Render(s Stats, styles Styles) string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("转换统计"))
	for _, l := range s.Lines() {
		sb.WriteString("\n")
		sb.WriteString(styles.Body.Render(l))
	}
	return styles.Box.Render(sb.String())
}
