package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JaimeStill/assent/internal/evaluation"
)

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// qualifiers are trailing words dropped from a category to derive the label
// a note is likely to use, so "PSA threshold" is also searched as "PSA".
var qualifiers = []string{"threshold", "level", "value", "result", "score", "count", "minimum", "maximum"}

const evidenceLimit = 160

// facts resolves the value for one rule from the request's supplied facts,
// falling back to a pattern search of the note.
type facts struct {
	req      evaluation.Request
	category string
	labels   []string
}

func newFacts(req evaluation.Request, category string, aliases []string) *facts {
	return &facts{
		req:      req,
		category: category,
		labels:   labels(category, aliases),
	}
}

// supplied returns a pre-extracted fact keyed by the category or any alias.
func (f *facts) supplied() (value, evidence string, ok bool) {
	for _, label := range f.labels {
		if v, ok := f.req.Fact(label); ok {
			return v, fmt.Sprintf("%s: %s", f.category, v), true
		}
	}
	return "", "", false
}

// text resolves a free-form value written as "label: value" in the note.
func (f *facts) text() (value, evidence string, ok bool) {
	if v, ev, ok := f.supplied(); ok {
		return v, ev, true
	}
	for _, label := range f.labels {
		re := regexp.MustCompile(`(?i)` + bounded(label) + `\s*[:=\-]\s*([^\n;,]+)`)
		if m := re.FindStringSubmatch(f.req.Note); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v, clip(m[0]), true
			}
		}
	}
	return "", "", false
}

// number resolves a numeric value. A supplied fact takes precedence even
// when it does not parse, in which case the value is unresolved.
func (f *facts) number() (value float64, evidence string, ok bool) {
	if v, ev, ok := f.supplied(); ok {
		n, err := firstNumber(v)
		if err != nil {
			return 0, "", false
		}
		return n, ev, true
	}

	for _, label := range f.labels {
		re := regexp.MustCompile(`(?i)` + bounded(label) + `[^\d\n]{0,24}?(\d+(?:\.\d+)?)`)
		if m := re.FindStringSubmatch(f.req.Note); m != nil {
			n, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			return n, clip(m[0]), true
		}
	}
	return 0, "", false
}

// search reports the note line containing the first term or label match.
func (f *facts) search(terms []Term) (evidence string, ok bool) {
	if len(terms) == 0 {
		terms = make([]Term, len(f.labels))
		for i, label := range f.labels {
			terms[i] = Term{Literal: label}
		}
	}

	note := f.req.Note
	for _, t := range terms {
		re := t.Pattern
		if re == nil {
			re = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(t.Literal))
		}
		if loc := re.FindStringIndex(note); loc != nil {
			return line(note, loc[0], loc[1]), true
		}
	}
	return "", false
}

func labels(category string, aliases []string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if key := strings.ToLower(s); s != "" && !seen[key] {
			seen[key] = true
			out = append(out, s)
		}
	}

	add(category)
	for _, a := range aliases {
		add(a)
	}

	words := strings.Fields(category)
	for len(words) > 1 && isQualifier(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	add(strings.Join(words, " "))

	return out
}

func isQualifier(word string) bool {
	for _, q := range qualifiers {
		if strings.EqualFold(word, q) {
			return true
		}
	}
	return false
}

// bounded quotes label and adds word boundaries on sides that start or end
// with a word character.
func bounded(label string) string {
	quoted := regexp.QuoteMeta(label)
	first, _ := utf8.DecodeRuneInString(label)
	last, _ := utf8.DecodeLastRuneInString(label)
	if isWord(first) {
		quoted = `\b` + quoted
	}
	if isWord(last) {
		quoted += `\b`
	}
	return quoted
}

// isWord matches the ASCII word class used by \b.
func isWord(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

func firstNumber(s string) (float64, error) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("no number in %q", s)
	}
	return strconv.ParseFloat(m, 64)
}

// line returns the note line that contains [start, end).
func line(note string, start, end int) string {
	if i := strings.LastIndexByte(note[:start], '\n'); i >= 0 {
		start = i + 1
	} else {
		start = 0
	}
	if i := strings.IndexByte(note[end:], '\n'); i >= 0 {
		end += i
	} else {
		end = len(note)
	}
	return clip(note[start:end])
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= evidenceLimit {
		return s
	}
	r := []rune(s)
	return string(r[:evidenceLimit]) + "..."
}
