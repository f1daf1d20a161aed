// Package question defines the canonical quiz record and the normalizers that
// turn loosely formatted source values into it.
package question

import "strings"

// Type is the question kind understood by the downstream quiz system.
type Type string

const (
	Single   Type = "SINGLE"   // exactly one correct option
	Multiple Type = "MULTIPLE" // one or more correct options
	Judge    Type = "JUDGE"    // true/false, no explicit options
)

// Types lists every Type in output partition order.
var Types = []Type{Single, Multiple, Judge}

// Label returns the Chinese name used for partition file names and reports.
func (t Type) Label() string {
	switch t {
	case Multiple:
		return "多选题"
	case Judge:
		return "判断题"
	default:
		return "单选题"
	}
}

// RawRecord is a question as extracted from a source, before normalization.
// Every field is free text and may be empty.
type RawRecord struct {
	Type        string
	Question    string
	Options     string
	Answer      string
	Explanation string
}

// Record is a canonical question ready for output.
type Record struct {
	Type        Type     `json:"type"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`

	// Source is the base name of the file the record came from. It is not
	// part of the output table.
	Source string `json:"source,omitempty"`
}

// OptionsField returns the options joined the way the output table stores them.
func (r Record) OptionsField() string {
	return strings.Join(r.Options, OptionSeparator)
}

// HasExplanation reports whether the record carries explanation text.
func (r Record) HasExplanation() bool {
	return r.Explanation != ""
}

// Fields returns the five output columns in table order.
func (r Record) Fields() []string {
	return []string{string(r.Type), r.Question, r.OptionsField(), r.Answer, r.Explanation}
}

// Canonicalize applies the type, option and answer normalizers to raw. The
// second return value is false when the question text is blank, in which case
// the record must not be emitted.
func Canonicalize(raw RawRecord) (Record, bool) {
	q := strings.TrimSpace(raw.Question)
	if q == "" {
		return Record{}, false
	}
	t := NormalizeType(raw.Type)
	return Record{
		Type:        t,
		Question:    q,
		Options:     SplitOptions(raw.Options, t),
		Answer:      NormalizeAnswer(raw.Answer, t),
		Explanation: strings.TrimSpace(raw.Explanation),
	}, true
}
