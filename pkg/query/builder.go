package query

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// condition is a WHERE fragment whose %s verbs are replaced, in order, by
// one positional parameter per arg.
type condition struct {
	format string
	args   []any
}

// SortField is one ORDER BY entry keyed by logical field name.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// ParseSortFields parses "title,-last_synced_at" into sort fields;
// a leading "-" sorts descending.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Builder accumulates conditions and ordering and renders SELECT statements
// with $n parameters numbered from 1.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	orderBy     []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder over projection. defaultSort applies when
// OrderByFields is never given a non-empty list.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// Build renders SELECT with conditions and ordering.
func (b *Builder) Build() (string, []any) {
	where, args := b.where()
	return b.selectFrom() + where + b.orderClause(), args
}

// BuildCount renders SELECT COUNT(*) with conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return "SELECT COUNT(*) FROM " + b.projection.Table() + where, args
}

// BuildPage renders SELECT with ordering, LIMIT and OFFSET for a 1-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.where()
	offset := (max(page, 1) - 1) * pageSize
	return fmt.Sprintf("%s%s%s LIMIT %d OFFSET %d", b.selectFrom(), where, b.orderClause(), pageSize, offset), args
}

// BuildFirst renders SELECT with ordering limited to one row.
func (b *Builder) BuildFirst() (string, []any) {
	where, args := b.where()
	return b.selectFrom() + where + b.orderClause() + " LIMIT 1", args
}

// BuildSingle renders SELECT for one record by its identifier field,
// ignoring accumulated conditions.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return fmt.Sprintf("%s WHERE %s = $1", b.selectFrom(), b.projection.Column(idField)), []any{id}
}

// OrderByFields overrides the default sort. An empty list keeps the default.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderBy = fields
	return b
}

// WhereEquals adds field = value. Nil values are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.add(b.projection.Column(field)+" = %s", value)
}

// WhereNull adds field IS NULL.
func (b *Builder) WhereNull(field string) *Builder {
	return b.add(b.projection.Column(field) + " IS NULL")
}

// WhereHasElement adds a JSONB containment check that the array in field
// holds value as a text element. Nil or empty values are skipped.
func (b *Builder) WhereHasElement(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.add(b.projection.Column(field)+" @> jsonb_build_array(%s::text)", *value)
}

// WhereContains adds a case-insensitive substring match on field.
// Nil or empty values are skipped.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.add(b.projection.Column(field)+" ILIKE %s", "%"+*value+"%")
}

// WhereSearch adds a case-insensitive substring match ORed across fields.
// Nil or empty search terms are skipped.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE %s"
		args[i] = pattern
	}
	return b.add("("+strings.Join(clauses, " OR ")+")", args...)
}

func (b *Builder) add(format string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{format: format, args: args})
	return b
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.Table()
}

func (b *Builder) orderClause() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var args []any
	clauses := make([]string, len(b.conditions))
	for i, cond := range b.conditions {
		params := make([]any, len(cond.args))
		for j, arg := range cond.args {
			args = append(args, arg)
			params[j] = "$" + strconv.Itoa(len(args))
		}
		clauses[i] = fmt.Sprintf(cond.format, params...)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
