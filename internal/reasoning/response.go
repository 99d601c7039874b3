package reasoning

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/JaimeStill/assent/internal/evaluation"
	"github.com/JaimeStill/assent/internal/policies"
	"github.com/JaimeStill/assent/pkg/formatting"
)

// ParseErrorCategory labels the synthetic result reported when a backend
// response cannot be used.
const ParseErrorCategory = "_parse_error"

// ParseErrorDetail is the missing-information descriptor for that result.
const ParseErrorDetail = "policy criteria could not be assessed from the reasoning response"

// ErrInvalidResponse indicates an extracted payload missing required keys.
var ErrInvalidResponse = errors.New("invalid reasoning response")

// Criterion is one judged criterion in a backend response.
type Criterion struct {
	Category string
	Met      bool
	Evidence string
}

// Response is a validated backend response. The backend's own overall
// status is not kept; the merger derives status from the criteria.
type Response struct {
	Analysis    []Criterion
	MissingInfo []string
}

// ParseResponse extracts and validates a backend response. analysis must be
// a non-empty array whose entries each carry a non-empty string category and
// a boolean met. evidence and missing_info are optional.
func ParseResponse(raw string) (*Response, error) {
	extracted, err := formatting.Extract(raw)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(extracted.Value, &payload); err != nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrInvalidResponse)
	}

	analysis, ok := payload["analysis"]
	if !ok {
		return nil, fmt.Errorf("%w: missing analysis", ErrInvalidResponse)
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(analysis, &entries); err != nil {
		return nil, fmt.Errorf("%w: analysis is not a list of objects", ErrInvalidResponse)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: analysis judged no criteria", ErrInvalidResponse)
	}

	resp := &Response{Analysis: make([]Criterion, 0, len(entries))}
	for i, entry := range entries {
		c, err := parseCriterion(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: analysis[%d]: %v", ErrInvalidResponse, i, err)
		}
		resp.Analysis = append(resp.Analysis, c)
	}

	if mi, ok := payload["missing_info"]; ok && !isNull(mi) {
		if err := json.Unmarshal(mi, &resp.MissingInfo); err != nil {
			return nil, fmt.Errorf("%w: missing_info is not a list of strings", ErrInvalidResponse)
		}
	}

	return resp, nil
}

func parseCriterion(entry map[string]json.RawMessage) (Criterion, error) {
	var c Criterion

	if err := decodeField(entry, "category", &c.Category); err != nil {
		return c, err
	}
	if c.Category = strings.TrimSpace(c.Category); c.Category == "" {
		return c, fmt.Errorf("category is empty")
	}
	if err := decodeField(entry, "met", &c.Met); err != nil {
		return c, err
	}
	if ev, ok := entry["evidence"]; ok && !isNull(ev) {
		if err := json.Unmarshal(ev, &c.Evidence); err != nil {
			return c, fmt.Errorf("evidence is not a string")
		}
	}
	c.Evidence = strings.TrimSpace(c.Evidence)

	return c, nil
}

func decodeField(entry map[string]json.RawMessage, key string, target any) error {
	raw, ok := entry[key]
	if !ok || isNull(raw) {
		return fmt.Errorf("missing %s", key)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%s has the wrong type", key)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// Results converts criteria into reasoned results, placing each under the
// section whose title it names. Criteria that name no section sort last.
func (r *Response) Results(sections []policies.Section) []evaluation.Result {
	results := make([]evaluation.Result, 0, len(r.Analysis))
	for _, c := range r.Analysis {
		evidence := c.Evidence
		if evidence == "" {
			evidence = evaluation.EvidenceNotFound
		}
		results = append(results, evaluation.Result{
			Category:     c.Category,
			Met:          c.Met,
			Evidence:     evidence,
			Origin:       evaluation.OriginReasoned,
			SectionOrder: sectionOrder(c.Category, sections),
		})
	}
	return results
}

// ParseFailure is the synthetic result for an unusable response.
func ParseFailure() evaluation.Result {
	return evaluation.NotFound(ParseErrorCategory, evaluation.OriginReasoned, evaluation.UnsectionedOrder, ParseErrorDetail)
}

func sectionOrder(category string, sections []policies.Section) int {
	cat := strings.ToLower(category)
	best := evaluation.UnsectionedOrder
	for _, s := range sections {
		title := strings.ToLower(strings.TrimSpace(s.Title))
		if title == "" {
			continue
		}
		if title == cat {
			return s.DisplayOrder
		}
		if (strings.Contains(cat, title) || strings.Contains(title, cat)) && s.DisplayOrder < best {
			best = s.DisplayOrder
		}
	}
	return best
}
