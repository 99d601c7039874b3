// Package directives manages the auditor instructions given to the reasoning
// backend. Each audit scope has a built-in default that an active stored
// override replaces; the output specification is fixed per scope.
package directives

import "github.com/google/uuid"

// Directive is a named instruction override for an audit scope.
type Directive struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Scope        Scope     `json:"scope"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// CreateCommand carries the data needed to create a directive override.
type CreateCommand struct {
	Name         string  `json:"name"`
	Scope        Scope   `json:"scope"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// UpdateCommand carries the data needed to update a directive override.
type UpdateCommand struct {
	Name         string  `json:"name"`
	Scope        Scope   `json:"scope"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

func validate(name string, scope Scope, instructions string) error {
	if name == "" || instructions == "" {
		return ErrInvalid
	}
	if _, err := ParseScope(string(scope)); err != nil {
		return err
	}
	return nil
}
