package question

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// OptionSeparator joins options in the output table.
const OptionSeparator = "|"

var (
	judgeTypeWords    = []string{"判断", "是非"}
	judgeTypeCodes    = []string{"JUDGE", "C", "3", "TF", "TRUE/FALSE"}
	multipleTypeWords = []string{"多选", "多项"}
	multipleTypeCodes = []string{"MULTIPLE", "MULTI", "B", "2"}
	singleTypeWords   = []string{"单选", "单项"}
	singleTypeCodes   = []string{"SINGLE", "A", "1"}
)

// NormalizeType maps a free-form type label onto a Type. Judge synonyms are
// checked first, then multiple, then single. Anything unrecognized, including
// the empty string, is Single.
func NormalizeType(s string) Type {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Single
	}
	switch {
	case matchesLabel(s, judgeTypeWords, judgeTypeCodes):
		return Judge
	case matchesLabel(s, multipleTypeWords, multipleTypeCodes):
		return Multiple
	case matchesLabel(s, singleTypeWords, singleTypeCodes):
		return Single
	}
	return Single
}

func matchesLabel(s string, words, codes []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	for _, c := range codes {
		if s == c {
			return true
		}
	}
	return false
}

var (
	judgeTrueWords   = []string{"正确"}
	judgeTrueTokens  = []string{"对", "是", "√", "✓", "T", "TRUE", "A", "1"}
	judgeFalseWords  = []string{"错误"}
	judgeFalseTokens = []string{"错", "否", "×", "✗", "F", "FALSE", "B", "0"}
)

// NormalizeAnswer turns a raw answer token into a letter code. For Judge the
// true/false vocabulary maps to A/B; otherwise, and when no true/false token
// matches, every character outside A-Z is dropped.
func NormalizeAnswer(raw string, t Type) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(width.Narrow.String(s))

	if t == Judge {
		if matchesLabel(s, judgeTrueWords, judgeTrueTokens) {
			return "A"
		}
		if matchesLabel(s, judgeFalseWords, judgeFalseTokens) {
			return "B"
		}
	}

	var b strings.Builder
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Delimiters tried in order when splitting an options blob.
var optionDelimiters = []string{"|", "\n", "；", ";", "###"}

var (
	inlineOption = regexp.MustCompile(`[A-Z][.、．][\s\p{Zs}]*[^A-Z.、．]+`)

	letterMarker  = regexp.MustCompile(`^[A-Z][.、．][\s\p{Zs}]*`)
	circledMarker = regexp.MustCompile(`^[①②③④⑤⑥⑦⑧][\s\p{Zs}]*`)
	numberMarker  = regexp.MustCompile(`^\p{Nd}+[.、．][\s\p{Zs}]*`)
	parenMarker   = regexp.MustCompile(`^[（(][\s\p{Zs}]*[A-Z][\s\p{Zs}]*[)）][\s\p{Zs}]*`)
)

// SplitOptions breaks an options blob into individual options with their
// leading markers removed. Judge questions carry no options.
func SplitOptions(raw string, t Type) []string {
	if t == Judge {
		return nil
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	var candidates []string
	for _, d := range optionDelimiters {
		if strings.Contains(s, d) {
			candidates = strings.Split(s, d)
			break
		}
	}
	if candidates == nil {
		if groups := inlineOption.FindAllString(s, -1); len(groups) > 0 {
			candidates = groups
		} else {
			candidates = []string{s}
		}
	}

	var opts []string
	for _, c := range candidates {
		if c = stripOptionMarkers(c); c != "" {
			opts = append(opts, c)
		}
	}
	return opts
}

// NormalizeOptions is SplitOptions joined with OptionSeparator.
func NormalizeOptions(raw string, t Type) string {
	return strings.Join(SplitOptions(raw, t), OptionSeparator)
}

func stripOptionMarkers(s string) string {
	s = strings.TrimSpace(s)
	for _, m := range []*regexp.Regexp{letterMarker, circledMarker, numberMarker, parenMarker} {
		if loc := m.FindStringIndex(s); loc != nil {
			s = s[loc[1]:]
		}
	}
	return s
}
