package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Operator names as stored on a policy rule.
const (
	OpExists       = "exists"
	OpEquals       = "equals"
	OpGTE          = "gte"
	OpLTE          = "lte"
	OpBetween      = "between"
	OpMatchesRegex = "matches_regex"
	OpOneOf        = "one_of"
)

// ErrMalformedRule indicates a stored rule whose operator and value cannot
// form a predicate.
var ErrMalformedRule = errors.New("malformed rule")

// Predicate is a compiled rule check. The implementations in this package
// are the complete set; Compile is the only constructor from stored rules.
type Predicate interface {
	Operator() string
	evaluate(f *facts) (met bool, evidence string)
}

// Term is one search term for Exists: a case-insensitive literal, or a
// pattern when stored as "/pattern/".
type Term struct {
	Literal string
	Pattern *regexp.Regexp
}

// Exists is met when a fact for the category is present or any term occurs
// in the note. With no terms the category labels are searched.
type Exists struct {
	Terms []Term
}

// Equals is met when the resolved fact equals Value, ignoring case.
// Numeric values compare numerically, so "6" equals "6.0".
type Equals struct {
	Value string
}

// GTE is met when the resolved numeric fact is at least Min.
type GTE struct {
	Min float64
}

// LTE is met when the resolved numeric fact is at most Max.
type LTE struct {
	Max float64
}

// Between is met when the resolved numeric fact lies in [Low, High].
type Between struct {
	Low  float64
	High float64
}

// MatchesRegex is met when the fact, or the note when no fact is supplied,
// matches Pattern.
type MatchesRegex struct {
	Pattern *regexp.Regexp
}

// OneOf is met when the resolved fact is a case-insensitive member of Values.
type OneOf struct {
	Values []string
}

func (Exists) Operator() string       { return OpExists }
func (Equals) Operator() string       { return OpEquals }
func (GTE) Operator() string          { return OpGTE }
func (LTE) Operator() string          { return OpLTE }
func (Between) Operator() string      { return OpBetween }
func (MatchesRegex) Operator() string { return OpMatchesRegex }
func (OneOf) Operator() string        { return OpOneOf }

// Compile builds the predicate for operator from its stored JSON value.
func Compile(operator string, value json.RawMessage) (Predicate, error) {
	var (
		p   Predicate
		err error
	)

	switch strings.ToLower(strings.TrimSpace(operator)) {
	case OpExists:
		p, err = compileExists(value)
	case OpEquals:
		p, err = compileEquals(value)
	case OpGTE:
		var n float64
		n, err = decodeNumber(value)
		p = GTE{Min: n}
	case OpLTE:
		var n float64
		n, err = decodeNumber(value)
		p = LTE{Max: n}
	case OpBetween:
		p, err = compileBetween(value)
	case OpMatchesRegex:
		p, err = compileRegex(value)
	case OpOneOf:
		p, err = compileOneOf(value)
	default:
		return nil, fmt.Errorf("%w: unknown operator %q", ErrMalformedRule, operator)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRule, operator, err)
	}
	return p, nil
}

func compileExists(value json.RawMessage) (Predicate, error) {
	if isNull(value) {
		return Exists{}, nil
	}

	var raw []string
	var single string
	if err := json.Unmarshal(value, &single); err == nil {
		raw = []string{single}
	} else if err := json.Unmarshal(value, &raw); err != nil {
		return nil, fmt.Errorf("value must be null, a string, or a string list")
	}

	terms := make([]Term, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if len(s) > 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
			re, err := regexp.Compile("(?i)" + s[1:len(s)-1])
			if err != nil {
				return nil, err
			}
			terms = append(terms, Term{Pattern: re})
			continue
		}
		terms = append(terms, Term{Literal: s})
	}
	return Exists{Terms: terms}, nil
}

func compileEquals(value json.RawMessage) (Predicate, error) {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return Equals{Value: strings.TrimSpace(s)}, nil
	}

	var n json.Number
	if err := json.Unmarshal(value, &n); err != nil {
		return nil, fmt.Errorf("value must be a string or number")
	}
	return Equals{Value: n.String()}, nil
}

func compileBetween(value json.RawMessage) (Predicate, error) {
	var bounds struct {
		Low  *float64 `json:"low"`
		High *float64 `json:"high"`
	}

	var pair []float64
	switch {
	case json.Unmarshal(value, &pair) == nil:
		if len(pair) != 2 {
			return nil, fmt.Errorf("range must have exactly two bounds")
		}
		bounds.Low, bounds.High = &pair[0], &pair[1]
	case json.Unmarshal(value, &bounds) == nil:
		if bounds.Low == nil || bounds.High == nil {
			return nil, fmt.Errorf("range requires low and high")
		}
	default:
		return nil, fmt.Errorf("value must be {\"low\",\"high\"} or [low, high]")
	}

	if *bounds.Low > *bounds.High {
		return nil, fmt.Errorf("low %v exceeds high %v", *bounds.Low, *bounds.High)
	}
	return Between{Low: *bounds.Low, High: *bounds.High}, nil
}

func compileRegex(value json.RawMessage) (Predicate, error) {
	var pattern string
	if err := json.Unmarshal(value, &pattern); err != nil || pattern == "" {
		return nil, fmt.Errorf("value must be a non-empty pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return MatchesRegex{Pattern: re}, nil
}

func compileOneOf(value json.RawMessage) (Predicate, error) {
	var values []string
	if err := json.Unmarshal(value, &values); err != nil {
		return nil, fmt.Errorf("value must be a string list")
	}

	set := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set = append(set, v)
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("value must list at least one option")
	}
	return OneOf{Values: set}, nil
}

func decodeNumber(value json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(value, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
	}
	return 0, fmt.Errorf("value must be a number")
}

func isNull(value json.RawMessage) bool {
	v := bytes.TrimSpace(value)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}
