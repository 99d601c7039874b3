package directives

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/assent/pkg/query"
	"github.com/JaimeStill/assent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "directives", "d").
	Project("id", "ID").
	Project("name", "Name").
	Project("scope", "Scope").
	Project("instructions", "Instructions").
	Project("description", "Description").
	Project("active", "Active")

var defaultSort = query.SortField{Field: "Name"}

const returning = "RETURNING id, name, scope, instructions, description, active"

// Filters contains optional criteria for directive queries. Nil fields are ignored.
type Filters struct {
	Scope  *Scope  `json:"scope,omitempty"`
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Scope", f.Scope).
		WhereContains("Name", f.Name).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("scope"); s != "" {
		if scope, err := ParseScope(s); err == nil {
			f.Scope = &scope
		}
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if a := values.Get("active"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			f.Active = &v
		}
	}

	return f
}

func scanDirective(s repository.Scanner) (Directive, error) {
	var d Directive
	err := s.Scan(
		&d.ID,
		&d.Name,
		&d.Scope,
		&d.Instructions,
		&d.Description,
		&d.Active,
	)
	return d, err
}
