package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// QuestionStart is a numbered line such as "12. Which ...".
type QuestionStart struct {
	Number string
	Text   string
}

// OptionMarker is a lettered line such as "B、 Beijing".
type OptionMarker struct {
	Letter rune
	Text   string
}

// AnswerMarker is a labelled answer line such as "答案：AC". Token is the raw
// captured value: a run of Latin letters or a true/false word.
type AnswerMarker struct {
	Token string
}

// ExplanationMarker is a labelled explanation line such as "解析：...".
type ExplanationMarker struct {
	Text string
}

// isNumberingSep reports whether r may follow a question number or option
// letter.
func isNumberingSep(r rune) bool {
	switch r {
	case '.', '．', '、', ')', '）':
		return true
	}
	return unicode.IsSpace(r)
}

func isLabelSep(r rune) bool {
	return r == ':' || r == '：' || unicode.IsSpace(r)
}

// splitAfterSeps consumes one or more separators from the start of s and
// returns the remaining text. If s consists only of separators and there are
// at least two, the last one is returned as the text, mirroring how a
// backtracking "sep+ .+" pattern would split it.
func splitAfterSeps(s string, isSep func(rune) bool) (string, bool) {
	n, last := 0, 0
	for i, r := range s {
		if !isSep(r) {
			if n == 0 {
				return "", false
			}
			return s[i:], true
		}
		n++
		last = i
	}
	if n < 2 {
		return "", false
	}
	return s[last:], true
}

// MatchQuestionStart recognizes "<digits><sep>+<text>".
func MatchQuestionStart(line string) (QuestionStart, bool) {
	end := 0
	for i, r := range line {
		if !unicode.IsDigit(r) {
			end = i
			break
		}
		end = i + utf8.RuneLen(r)
	}
	if end == 0 {
		return QuestionStart{}, false
	}
	rest, ok := splitAfterSeps(line[end:], isNumberingSep)
	if !ok {
		return QuestionStart{}, false
	}
	return QuestionStart{Number: line[:end], Text: strings.TrimSpace(rest)}, true
}

// MatchOption recognizes "<A-Z><sep>+<text>".
func MatchOption(line string) (OptionMarker, bool) {
	if line == "" || line[0] < 'A' || line[0] > 'Z' {
		return OptionMarker{}, false
	}
	rest, ok := splitAfterSeps(line[1:], isNumberingSep)
	if !ok {
		return OptionMarker{}, false
	}
	return OptionMarker{Letter: rune(line[0]), Text: strings.TrimSpace(rest)}, true
}

// LooksLikeOption reports whether line opens with a letter directly followed
// by punctuation, e.g. "C." with nothing after it.
func LooksLikeOption(line string) bool {
	if len(line) < 2 || line[0] < 'A' || line[0] > 'Z' {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line[1:])
	return isNumberingSep(r) && !unicode.IsSpace(r)
}

var (
	answerLabels      = []string{"答案", "正确答案", "参考答案", "answer", "correct answer"}
	answerWords       = []string{"正确", "错误", "对", "错"}
	explanationLabels = []string{"解析", "答案解析", "说明", "explanation", "analysis"}
)

// IsTrueFalseWord reports whether token is one of the Chinese true/false
// answer words.
func IsTrueFalseWord(token string) bool {
	for _, w := range answerWords {
		if token == w {
			return true
		}
	}
	return false
}

// cutLabel strips the first matching label (case-insensitive) and the label
// separators that must follow it.
func cutLabel(line string, labels []string) (string, bool) {
	for _, l := range labels {
		if len(line) < len(l) || !strings.EqualFold(line[:len(l)], l) {
			continue
		}
		if rest, ok := splitAfterSeps(line[len(l):], isLabelSep); ok {
			return rest, true
		}
	}
	return "", false
}

// MatchAnswer recognizes "<answer label><sep>+<letters | true/false word>".
func MatchAnswer(line string) (AnswerMarker, bool) {
	rest, ok := cutLabel(line, answerLabels)
	if !ok {
		return AnswerMarker{}, false
	}
	n := 0
	for n < len(rest) && isASCIILetter(rest[n]) {
		n++
	}
	if n > 0 {
		return AnswerMarker{Token: rest[:n]}, true
	}
	for _, w := range answerWords {
		if strings.HasPrefix(rest, w) {
			return AnswerMarker{Token: w}, true
		}
	}
	return AnswerMarker{}, false
}

// MatchExplanation recognizes "<explanation label><sep>+<text>".
func MatchExplanation(line string) (ExplanationMarker, bool) {
	rest, ok := cutLabel(line, explanationLabels)
	if !ok {
		return ExplanationMarker{}, false
	}
	text := strings.TrimSpace(rest)
	if text == "" {
		return ExplanationMarker{}, false
	}
	return ExplanationMarker{Text: text}, true
}

func isASCIILetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
