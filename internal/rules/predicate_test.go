package rules_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/JaimeStill/assent/internal/rules"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		value    string
		check    func(t *testing.T, p rules.Predicate)
	}{
		{"exists without terms", "exists", `null`, func(t *testing.T, p rules.Predicate) {
			if e := p.(rules.Exists); len(e.Terms) != 0 {
				t.Errorf("terms = %v, want none", e.Terms)
			}
		}},
		{"exists literal and pattern", "exists", `["biopsy", "/gleason\\s+\\d/"]`, func(t *testing.T, p rules.Predicate) {
			e := p.(rules.Exists)
			if len(e.Terms) != 2 || e.Terms[0].Literal != "biopsy" || e.Terms[1].Pattern == nil {
				t.Errorf("terms = %+v", e.Terms)
			}
		}},
		{"equals number", "equals", `7`, func(t *testing.T, p rules.Predicate) {
			if p.(rules.Equals).Value != "7" {
				t.Errorf("value = %q", p.(rules.Equals).Value)
			}
		}},
		{"gte numeric string", "GTE", `"4.0"`, func(t *testing.T, p rules.Predicate) {
			if p.(rules.GTE).Min != 4 {
				t.Errorf("min = %v", p.(rules.GTE).Min)
			}
		}},
		{"between object", "between", `{"low": 40, "high": 75}`, func(t *testing.T, p rules.Predicate) {
			if b := p.(rules.Between); b.Low != 40 || b.High != 75 {
				t.Errorf("range = %+v", b)
			}
		}},
		{"between pair", "between", `[1, 2.5]`, func(t *testing.T, p rules.Predicate) {
			if b := p.(rules.Between); b.Low != 1 || b.High != 2.5 {
				t.Errorf("range = %+v", b)
			}
		}},
		{"one_of", "one_of", `["T1c", " ", "T2a"]`, func(t *testing.T, p rules.Predicate) {
			if o := p.(rules.OneOf); len(o.Values) != 2 {
				t.Errorf("values = %v", o.Values)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := rules.Compile(tt.operator, json.RawMessage(tt.value))
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestCompileMalformed(t *testing.T) {
	tests := []struct {
		name     string
		operator string
		value    string
	}{
		{"unknown operator", "approximately", `4`},
		{"gte non-numeric", "gte", `"high"`},
		{"lte object", "lte", `{"max": 3}`},
		{"between inverted", "between", `{"low": 10, "high": 1}`},
		{"between missing bound", "between", `{"low": 10}`},
		{"between triple", "between", `[1, 2, 3]`},
		{"invalid regex", "matches_regex", `"(unclosed"`},
		{"empty regex", "matches_regex", `""`},
		{"exists invalid pattern", "exists", `["/[a-/"]`},
		{"exists number", "exists", `42`},
		{"one_of empty", "one_of", `[]`},
		{"one_of string", "one_of", `"T1c"`},
		{"equals bool", "equals", `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.Compile(tt.operator, json.RawMessage(tt.value))
			if !errors.Is(err, rules.ErrMalformedRule) {
				t.Errorf("error = %v, want ErrMalformedRule", err)
			}
		})
	}
}

func TestPredicateOperators(t *testing.T) {
	preds := map[string]rules.Predicate{
		rules.OpExists:       rules.Exists{},
		rules.OpEquals:       rules.Equals{},
		rules.OpGTE:          rules.GTE{},
		rules.OpLTE:          rules.LTE{},
		rules.OpBetween:      rules.Between{},
		rules.OpMatchesRegex: rules.MatchesRegex{},
		rules.OpOneOf:        rules.OneOf{},
	}

	for op, p := range preds {
		if p.Operator() != op {
			t.Errorf("%T.Operator() = %s, want %s", p, p.Operator(), op)
		}
	}
}
