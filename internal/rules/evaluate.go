package rules

import (
	"strconv"
	"strings"

	"github.com/JaimeStill/assent/internal/evaluation"
)

func (p Exists) evaluate(f *facts) (bool, string) {
	if _, ev, ok := f.supplied(); ok {
		return true, ev
	}
	if ev, ok := f.search(p.Terms); ok {
		return true, ev
	}
	return false, evaluation.EvidenceNotFound
}

func (p Equals) evaluate(f *facts) (bool, string) {
	v, ev, ok := f.text()
	if !ok {
		return false, evaluation.EvidenceNotFound
	}
	return sameValue(v, p.Value), ev
}

func (p GTE) evaluate(f *facts) (bool, string) {
	n, ev, ok := f.number()
	if !ok {
		return false, evaluation.EvidenceNotFound
	}
	return n >= p.Min, ev
}

func (p LTE) evaluate(f *facts) (bool, string) {
	n, ev, ok := f.number()
	if !ok {
		return false, evaluation.EvidenceNotFound
	}
	return n <= p.Max, ev
}

func (p Between) evaluate(f *facts) (bool, string) {
	n, ev, ok := f.number()
	if !ok {
		return false, evaluation.EvidenceNotFound
	}
	return p.Low <= n && n <= p.High, ev
}

func (p MatchesRegex) evaluate(f *facts) (bool, string) {
	if v, ev, ok := f.supplied(); ok {
		return p.Pattern.MatchString(v), ev
	}
	if loc := p.Pattern.FindStringIndex(f.req.Note); loc != nil {
		return true, line(f.req.Note, loc[0], loc[1])
	}
	return false, evaluation.EvidenceNotFound
}

func (p OneOf) evaluate(f *facts) (bool, string) {
	v, ev, ok := f.text()
	if !ok {
		return false, evaluation.EvidenceNotFound
	}
	for _, option := range p.Values {
		if sameValue(v, option) {
			return true, ev
		}
	}
	return false, ev
}

// sameValue compares case-insensitively, or numerically when both parse.
func sameValue(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if x, err := strconv.ParseFloat(a, 64); err == nil {
		if y, err := strconv.ParseFloat(b, 64); err == nil {
			return x == y
		}
	}
	return strings.EqualFold(a, b)
}
