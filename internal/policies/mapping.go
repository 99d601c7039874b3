package policies

import (
	"encoding/json"
	"net/url"

	"github.com/JaimeStill/assent/pkg/query"
	"github.com/JaimeStill/assent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "policies", "p").
	Project("id", "ID").
	Project("payer", "Payer").
	Project("title", "Title").
	Project("codes", "Codes").
	Project("source_ref", "SourceRef").
	Project("status", "Status").
	Project("last_synced_at", "LastSyncedAt")

var defaultSort = query.SortField{Field: "Title"}

var latestSync = query.SortField{Field: "LastSyncedAt", Descending: true}

var sectionProjection = query.
	NewProjectionMap("public", "policy_sections", "s").
	Project("id", "ID").
	Project("policy_id", "PolicyID").
	Project("title", "Title").
	Project("display_order", "DisplayOrder").
	Project("content", "Content").
	Project("superseded_at", "SupersededAt")

var ruleProjection = query.
	NewProjectionMap("public", "policy_rules", "r").
	Project("id", "ID").
	Project("policy_id", "PolicyID").
	Project("section_id", "SectionID").
	Project("position", "Position").
	Project("category", "Category").
	Project("operator", "Operator").
	Project("value", "Value").
	Project("aliases", "Aliases").
	Project("failure_message", "FailureMessage")

// Filters narrows policy queries. Nil fields are ignored. Code matches any
// entry of the policy's code list.
type Filters struct {
	Payer  *string `json:"payer,omitempty"`
	Status *Status `json:"status,omitempty"`
	Code   *string `json:"code,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Payer", f.Payer).
		WhereEquals("Status", f.Status).
		WhereHasElement("Codes", f.Code)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("payer"); p != "" {
		f.Payer = &p
	}
	if s := values.Get("status"); s != "" {
		status := Status(s)
		f.Status = &status
	}
	if c := values.Get("code"); c != "" {
		f.Code = &c
	}

	return f
}

func scanPolicy(s repository.Scanner) (Policy, error) {
	var (
		p     Policy
		codes []byte
	)
	if err := s.Scan(
		&p.ID,
		&p.Payer,
		&p.Title,
		&codes,
		&p.SourceRef,
		&p.Status,
		&p.LastSyncedAt,
	); err != nil {
		return p, err
	}
	return p, decodeList(codes, &p.Codes)
}

func scanSection(s repository.Scanner) (Section, error) {
	var sec Section
	err := s.Scan(
		&sec.ID,
		&sec.PolicyID,
		&sec.Title,
		&sec.DisplayOrder,
		&sec.Content,
		&sec.SupersededAt,
	)
	return sec, err
}

func scanRule(s repository.Scanner) (Rule, error) {
	var (
		r       Rule
		value   []byte
		aliases []byte
	)
	if err := s.Scan(
		&r.ID,
		&r.PolicyID,
		&r.SectionID,
		&r.Position,
		&r.Category,
		&r.Operator,
		&value,
		&aliases,
		&r.FailureMessage,
	); err != nil {
		return r, err
	}

	r.Value = json.RawMessage(value)
	return r, decodeList(aliases, &r.Aliases)
}

// decodeList reads a JSONB text array, treating NULL as empty.
func decodeList(raw []byte, target *[]string) error {
	var items []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
	}
	if items == nil {
		items = []string{}
	}
	*target = items
	return nil
}
