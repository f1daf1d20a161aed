package ingest

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/brunobiangulo/quizbank/parser"
	"github.com/brunobiangulo/quizbank/question"
)

// Draft is the record being assembled from consecutive lines.
type Draft struct {
	Type        question.Type
	Question    string
	Answer      string
	Explanation string
}

// NarrativeState is the fold state of the narrative state machine. The zero
// value is the initial state. Step never modifies the state it is given.
type NarrativeState struct {
	Current *Draft
	Options []string
	Done    []question.Record
}

// Step applies one line to s. Rules are evaluated in strict priority:
// question start, (idle: ignore), option, answer, explanation, continuation.
func Step(s NarrativeState, line string) NarrativeState {
	if qs, ok := MatchQuestionStart(line); ok {
		s = s.finalize()
		s.Current = &Draft{Type: question.Single, Question: qs.Text}
		s.Options = nil
		return s
	}

	if s.Current == nil {
		return s
	}

	if om, ok := MatchOption(line); ok {
		s.Options = append(slices.Clip(s.Options), om.Text)
		return s
	}

	if am, ok := MatchAnswer(line); ok {
		d := *s.Current
		d.Answer = question.NormalizeAnswer(am.Token, d.Type)
		if len(d.Answer) > 1 {
			d.Type = question.Multiple
		} else if len(s.Options) <= 2 && IsTrueFalseWord(am.Token) {
			// Two options at most plus a true/false word: treat as judge.
			// This also catches two-option single choice; kept as is.
			d.Type = question.Judge
			d.Answer = question.NormalizeAnswer(am.Token, question.Judge)
			s.Options = nil
		}
		s.Current = &d
		return s
	}

	if em, ok := MatchExplanation(line); ok {
		d := *s.Current
		d.Explanation = em.Text
		s.Current = &d
		return s
	}

	if s.Current.Question != "" && len(s.Options) == 0 && s.Current.Answer == "" && !LooksLikeOption(line) {
		d := *s.Current
		d.Question += " " + line
		s.Current = &d
	}
	return s
}

// Finish finalizes any record still in progress.
func Finish(s NarrativeState) NarrativeState {
	return s.finalize()
}

// Fold runs the state machine over lines and returns the emitted records.
func Fold(lines []string) []question.Record {
	var s NarrativeState
	for _, line := range lines {
		s = Step(s, line)
	}
	return Finish(s).Done
}

func (s NarrativeState) finalize() NarrativeState {
	if s.Current == nil {
		return s
	}
	d := s.Current
	s.Current = nil
	if strings.TrimSpace(d.Question) == "" {
		s.Options = nil
		return s
	}
	rec := question.Record{
		Type:        d.Type,
		Question:    strings.TrimSpace(d.Question),
		Answer:      d.Answer,
		Explanation: d.Explanation,
	}
	if d.Type != question.Judge && len(s.Options) > 0 {
		rec.Options = slices.Clone(s.Options)
	}
	s.Done = append(slices.Clip(s.Done), rec)
	s.Options = nil
	return s
}

// Narrative extracts questions from paragraph-structured documents.
type Narrative struct {
	logger *slog.Logger
}

// NewNarrative returns a Narrative ingestor. A nil logger uses slog.Default.
func NewNarrative(logger *slog.Logger) *Narrative {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrative{logger: logger}
}

// Ingest folds every line of src into records.
func (n *Narrative) Ingest(ctx context.Context, src parser.LineSource) ([]question.Record, error) {
	lines := src.Lines()
	var s NarrativeState
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s = Step(s, line)
	}
	recs := Finish(s).Done
	n.logger.Debug("narrative: ingest complete", "lines", len(lines), "records", len(recs))
	return recs, nil
}
