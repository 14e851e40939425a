package queryir

import (
	"fmt"
	"reflect"
)

// ValidationError describes a malformed query.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid query: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid query: %s", e.Message)
}

// Validate checks that a query can be evaluated.
//
// Rules:
//  1. Every condition names a field and uses a known operator
//  2. "in" conditions carry a slice value
//  3. Limit and Offset are non-negative
//  4. OrderBy, when set, names a field
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	for i, c := range q.Conditions {
		if c.Field == "" {
			return &ValidationError{Message: fmt.Sprintf("condition %d has no field", i)}
		}
		if !ValidOps[c.Op] {
			return &ValidationError{Field: c.Field, Message: fmt.Sprintf("unsupported operator %q", c.Op)}
		}
		if c.Op == OpIn && !isSlice(c.Value) {
			return &ValidationError{Field: c.Field, Message: fmt.Sprintf("operator in needs a list, got %T", c.Value)}
		}
	}

	if q.Limit < 0 {
		return &ValidationError{Field: "limit", Message: fmt.Sprintf("must be non-negative, got %d", q.Limit)}
	}
	if q.Offset < 0 {
		return &ValidationError{Field: "offset", Message: fmt.Sprintf("must be non-negative, got %d", q.Offset)}
	}

	if q.OrderBy != "" {
		if field, _ := ParseOrderBy(q.OrderBy); field == "" {
			return &ValidationError{Field: "order_by", Message: fmt.Sprintf("%q names no field", q.OrderBy)}
		}
	}

	return nil
}

func isSlice(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}
