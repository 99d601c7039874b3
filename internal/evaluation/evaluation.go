// Package evaluation defines the verification input, per-criterion results,
// and the Decision produced by merging structured and reasoned evaluation.
package evaluation

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// EvidenceNotFound marks a result whose supporting evidence is absent.
const EvidenceNotFound = "not found"

// UnsectionedOrder places results that belong to no known section after
// every sectioned result.
const UnsectionedOrder = math.MaxInt32

// Origin identifies which evaluator produced a result.
type Origin string

// Result origins.
const (
	OriginStructured Origin = "structured"
	OriginReasoned   Origin = "reasoned"
)

// Status is the overall verdict of a Decision.
type Status string

// Overall decision statuses.
const (
	StatusApproved    Status = "APPROVED"
	StatusDenied      Status = "DENIED"
	StatusMissingInfo Status = "MISSING_INFO"
)

// Request is the verification input. Facts are optional pre-extracted values
// keyed by the category label of the rule they satisfy.
type Request struct {
	Code  string            `json:"code"`
	Note  string            `json:"note"`
	Facts map[string]string `json:"facts,omitempty"`
}

// Fact returns the non-empty fact for category, matching keys case-insensitively.
func (r Request) Fact(category string) (string, bool) {
	want := normalize(category)
	for k, v := range r.Facts {
		if normalize(k) == want && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Result is one evaluated criterion.
//
// SectionOrder is the display order of the policy section the criterion
// belongs to and drives result ordering. Detail explains an unmet criterion
// and doubles as its missing-information descriptor.
type Result struct {
	Category     string `json:"category"`
	Met          bool   `json:"met"`
	Evidence     string `json:"evidence"`
	Origin       Origin `json:"origin"`
	SectionOrder int    `json:"section_order"`
	Detail       string `json:"detail,omitempty"`
}

// NotFound builds an unresolved result for category.
func NotFound(category string, origin Origin, order int, detail string) Result {
	return Result{
		Category:     category,
		Met:          false,
		Evidence:     EvidenceNotFound,
		Origin:       origin,
		SectionOrder: order,
		Detail:       detail,
	}
}

// HardFail reports whether the criterion is definitively not met with
// supporting evidence.
func (r Result) HardFail() bool {
	return !r.Met && !r.Absent()
}

// Absent reports whether the criterion is not met because evidence is missing.
func (r Result) Absent() bool {
	if r.Met {
		return false
	}
	e := strings.TrimSpace(r.Evidence)
	return e == "" || strings.EqualFold(e, EvidenceNotFound)
}

// Describe returns the missing-information descriptor for the result.
func (r Result) Describe() string {
	if r.Detail != "" {
		return r.Detail
	}
	return r.Category
}

// Decision is the engine's verdict with per-criterion evidence.
type Decision struct {
	OverallStatus Status    `json:"overall_status"`
	Results       []Result  `json:"results"`
	MissingInfo   []string  `json:"missing_info"`
	PolicyID      uuid.UUID `json:"policy_id"`
	PolicyTitle   string    `json:"policy_title"`
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
