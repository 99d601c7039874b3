package directives

import (
	"encoding/json"
	"slices"
)

// Scope identifies which policy text an audit covers.
type Scope string

const (
	// ScopeFull audits the whole policy; used when it has no structured rules.
	ScopeFull Scope = "full"
	// ScopeResidual audits only the sections no structured rule covers.
	ScopeResidual Scope = "residual"
)

var scopes = []Scope{
	ScopeFull,
	ScopeResidual,
}

// Scopes returns the valid audit scopes.
func Scopes() []Scope {
	return scopes
}

// UnmarshalJSON rejects unknown scope values.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseScope(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseScope validates s as a known scope.
func ParseScope(s string) (Scope, error) {
	v := Scope(s)
	if !slices.Contains(scopes, v) {
		return "", ErrInvalidScope
	}
	return v, nil
}
