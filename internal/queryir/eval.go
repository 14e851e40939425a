package queryir

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strings"
)

// Row is the evaluation view of a stored row.
type Row = map[string]any

// Apply filters, orders and paginates rows. rows must be in base order; the
// input slice is not modified. The caller is expected to have run Validate.
func Apply(rows []Row, q Query) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if MatchAll(r, q.Conditions) {
			out = append(out, r)
		}
	}

	if q.OrderBy != "" {
		field, desc := ParseOrderBy(q.OrderBy)
		sort.SliceStable(out, func(i, j int) bool {
			c := Compare(sortKey(out[i], field), sortKey(out[j], field))
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []Row{}
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out
}

// sortKey treats a missing field as 0.
func sortKey(r Row, field string) any {
	if v, ok := r[field]; ok {
		return v
	}
	return 0
}

// MatchAll reports whether row satisfies every condition.
func MatchAll(row Row, conds []Condition) bool {
	for _, c := range conds {
		if !c.Match(row) {
			return false
		}
	}
	return true
}

// Match reports whether row satisfies c.
func (c Condition) Match(row Row) bool {
	v, present := row[c.Field]

	switch c.Op {
	case OpEq:
		return Equal(v, c.Value)
	case OpNe:
		return !Equal(v, c.Value)
	case OpIn:
		return contains(c.Value, v)
	}

	if !present {
		return false
	}
	cmp, ok := compareSameClass(v, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}

func contains(list, v any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if Equal(v, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// Equal compares two values. Numbers are equal by value across integer and
// float representations; booleans never equal numbers.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if cmp, ok := compareSameClass(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// class ranks value kinds for cross-kind ordering.
type class int

const (
	classNil class = iota
	classBool
	classNumber
	classString
	classBytes
	classOther
)

func classOf(v any) class {
	switch v.(type) {
	case nil:
		return classNil
	case bool:
		return classBool
	case string:
		return classString
	case []byte:
		return classBytes
	}
	if _, ok := toNumber(v); ok {
		return classNumber
	}
	return classOther
}

// Compare orders two values. Values of the same kind compare naturally;
// different kinds order nil < bool < number < string < bytes < other, which
// keeps sorting total and stable for mixed columns.
func Compare(a, b any) int {
	if cmp, ok := compareSameClass(a, b); ok {
		return cmp
	}
	ca, cb := classOf(a), classOf(b)
	switch {
	case ca < cb:
		return -1
	case ca > cb:
		return 1
	}
	if ca == classNil {
		return 0
	}
	return strings.Compare(reflect.TypeOf(a).String(), reflect.TypeOf(b).String())
}

func compareSameClass(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case []byte:
		y, ok := b.([]byte)
		if !ok {
			return 0, false
		}
		return bytes.Compare(x, y), true
	}

	na, ok := toNumber(a)
	if !ok {
		return 0, false
	}
	nb, ok := toNumber(b)
	if !ok {
		return 0, false
	}
	return na.compare(nb), true
}

// number keeps integers exact and falls back to float64.
type number struct {
	i       int64
	f       float64
	isFloat bool
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n number) compare(o number) int {
	if !n.isFloat && !o.isFloat {
		switch {
		case n.i < o.i:
			return -1
		case n.i > o.i:
			return 1
		default:
			return 0
		}
	}
	a, b := n.float(), o.float()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toNumber(v any) (number, bool) {
	switch n := v.(type) {
	case int:
		return number{i: int64(n)}, true
	case int8:
		return number{i: int64(n)}, true
	case int16:
		return number{i: int64(n)}, true
	case int32:
		return number{i: int64(n)}, true
	case int64:
		return number{i: n}, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return number{f: float64(n), isFloat: true}, true
		}
		return number{i: int64(n)}, true
	case uint8:
		return number{i: int64(n)}, true
	case uint16:
		return number{i: int64(n)}, true
	case uint32:
		return number{i: int64(n)}, true
	case uint64:
		if n > math.MaxInt64 {
			return number{f: float64(n), isFloat: true}, true
		}
		return number{i: int64(n)}, true
	case float32:
		return number{f: float64(n), isFloat: true}, true
	case float64:
		return number{f: n, isFloat: true}, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return number{i: i}, true
		}
		if f, err := n.Float64(); err == nil {
			return number{f: f, isFloat: true}, true
		}
	}
	return number{}, false
}
