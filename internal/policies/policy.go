// Package policies implements the read-only policy store: payer necessity
// policies, their ordered criteria sections, and the structured rules
// extracted from those sections.
package policies

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is a policy's lifecycle state.
type Status string

// Policy lifecycle states.
const (
	StatusDraft   Status = "draft"
	StatusActive  Status = "active"
	StatusRetired Status = "retired"
)

// Policy is one payer's necessity policy for a procedure code family.
type Policy struct {
	ID           uuid.UUID `json:"id"`
	Payer        string    `json:"payer"`
	Title        string    `json:"title"`
	Codes        []string  `json:"codes"`
	SourceRef    string    `json:"source_ref"`
	Status       Status    `json:"status"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}

// Section is an ordered block of a policy's criteria text. DisplayOrder is
// unique within a policy and defines evaluation and citation order.
type Section struct {
	ID           uuid.UUID  `json:"id"`
	PolicyID     uuid.UUID  `json:"policy_id"`
	Title        string     `json:"title"`
	DisplayOrder int        `json:"display_order"`
	Content      string     `json:"content"`
	SupersededAt *time.Time `json:"superseded_at,omitempty"`
}

// Rule is a machine-checkable predicate extracted from a section.
//
// Value holds the operator's comparison value as stored JSON. SectionID links
// the rule to the section it covers; Aliases are extra terms used when
// searching a clinical note for the rule's fact.
type Rule struct {
	ID             uuid.UUID       `json:"id"`
	PolicyID       uuid.UUID       `json:"policy_id"`
	SectionID      *uuid.UUID      `json:"section_id,omitempty"`
	Position       int             `json:"position"`
	Category       string          `json:"category"`
	Operator       string          `json:"operator"`
	Value          json.RawMessage `json:"value"`
	Aliases        []string        `json:"aliases"`
	FailureMessage string          `json:"failure_message"`
}
