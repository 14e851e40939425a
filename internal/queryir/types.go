package queryir

import (
	"fmt"
	"sort"
	"strings"
)

// Op is a condition operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

// ValidOps lists the supported operators.
var ValidOps = map[Op]bool{
	OpEq:  true,
	OpNe:  true,
	OpGt:  true,
	OpGte: true,
	OpLt:  true,
	OpLte: true,
	OpIn:  true,
}

// Condition is one (field, operator, value) predicate.
type Condition struct {
	Field string `json:"field"`
	Op    Op     `json:"op"`
	Value any    `json:"value"`
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// Eq builds an equality condition.
func Eq(field string, v any) Condition { return Condition{Field: field, Op: OpEq, Value: v} }

// Ne builds a not-equals condition.
func Ne(field string, v any) Condition { return Condition{Field: field, Op: OpNe, Value: v} }

// Gt builds a greater-than condition.
func Gt(field string, v any) Condition { return Condition{Field: field, Op: OpGt, Value: v} }

// Gte builds a greater-or-equal condition.
func Gte(field string, v any) Condition { return Condition{Field: field, Op: OpGte, Value: v} }

// Lt builds a less-than condition.
func Lt(field string, v any) Condition { return Condition{Field: field, Op: OpLt, Value: v} }

// Lte builds a less-or-equal condition.
func Lte(field string, v any) Condition { return Condition{Field: field, Op: OpLte, Value: v} }

// In builds a membership condition.
func In(field string, values ...any) Condition {
	return Condition{Field: field, Op: OpIn, Value: values}
}

// Query is a filter with ordering and pagination.
type Query struct {
	Conditions []Condition `json:"conditions,omitempty"`
	OrderBy    string      `json:"order_by,omitempty"`
	Limit      int         `json:"limit,omitempty"`
	Offset     int         `json:"offset,omitempty"`
}

// FromFilter converts an equality mapping into eq conditions, sorted by
// field name so the result is deterministic.
func FromFilter(filter map[string]any) []Condition {
	if len(filter) == 0 {
		return nil
	}
	fields := make([]string, 0, len(filter))
	for f := range filter {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	conds := make([]Condition, 0, len(fields))
	for _, f := range fields {
		conds = append(conds, Eq(f, filter[f]))
	}
	return conds
}

// ParseOrderBy splits an order_by value into the field and direction.
func ParseOrderBy(orderBy string) (field string, desc bool) {
	if strings.HasPrefix(orderBy, "-") {
		return strings.TrimLeft(orderBy, "-"), true
	}
	return orderBy, false
}
