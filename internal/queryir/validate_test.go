package queryir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	q := Query{
		Conditions: []Condition{Eq("a", 1), In("b", "x", "y"), {Field: "c", Op: OpIn, Value: []int{1, 2}}},
		OrderBy:    "-a",
		Limit:      10,
		Offset:     5,
	}
	assert.NoError(t, Validate(q))
	assert.NoError(t, Validate(Query{}))
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		field string
	}{
		{"empty field", Query{Conditions: []Condition{{Op: OpEq, Value: 1}}}, ""},
		{"unknown op", Query{Conditions: []Condition{{Field: "a", Op: "like", Value: "x"}}}, "a"},
		{"in without list", Query{Conditions: []Condition{{Field: "a", Op: OpIn, Value: 3}}}, "a"},
		{"in with nil", Query{Conditions: []Condition{{Field: "a", Op: OpIn}}}, "a"},
		{"negative limit", Query{Limit: -1}, "limit"},
		{"negative offset", Query{Offset: -2}, "offset"},
		{"bare dash order", Query{OrderBy: "-"}, "order_by"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Contains(t, err.Error(), "invalid query")
		})
	}
}
