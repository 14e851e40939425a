package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFilter_SortedEqConditions(t *testing.T) {
	conds := FromFilter(map[string]any{"status": "active", "age": 30})

	assert.Equal(t, []Condition{
		{Field: "age", Op: OpEq, Value: 30},
		{Field: "status", Op: OpEq, Value: "active"},
	}, conds)

	assert.Nil(t, FromFilter(nil))
	assert.Nil(t, FromFilter(map[string]any{}))
}

func TestParseOrderBy(t *testing.T) {
	tests := []struct {
		in    string
		field string
		desc  bool
	}{
		{"age", "age", false},
		{"-age", "age", true},
		{"--age", "age", true},
		{"", "", false},
	}
	for _, tt := range tests {
		field, desc := ParseOrderBy(tt.in)
		assert.Equal(t, tt.field, field, tt.in)
		assert.Equal(t, tt.desc, desc, tt.in)
	}
}

func TestConditionBuilders(t *testing.T) {
	assert.Equal(t, Condition{Field: "a", Op: OpNe, Value: 1}, Ne("a", 1))
	assert.Equal(t, Condition{Field: "a", Op: OpGt, Value: 1}, Gt("a", 1))
	assert.Equal(t, Condition{Field: "a", Op: OpGte, Value: 1}, Gte("a", 1))
	assert.Equal(t, Condition{Field: "a", Op: OpLt, Value: 1}, Lt("a", 1))
	assert.Equal(t, Condition{Field: "a", Op: OpLte, Value: 1}, Lte("a", 1))
	assert.Equal(t, Condition{Field: "a", Op: OpIn, Value: []any{1, 2}}, In("a", 1, 2))
	assert.Equal(t, "a eq 1", Eq("a", 1).String())
}
