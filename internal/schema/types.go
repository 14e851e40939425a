package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const optionalName = "optional"

// Type is a declared field type.
//
// Base types carry their name in Name. An optional wrapper has
// Name == "optional" and the wrapped type in Elem. Wrappers may nest.
type Type struct {
	Name string
	Elem *Type
}

// Base types.
var (
	Integer = Type{Name: "integer"}
	Text    = Type{Name: "text"}
	Real    = Type{Name: "real"}
	Boolean = Type{Name: "boolean"}
	Binary  = Type{Name: "binary"}
)

// typeAliases normalizes the spellings accepted by ParseType.
var typeAliases = map[string]Type{
	"integer": Integer,
	"int":     Integer,
	"int64":   Integer,
	"text":    Text,
	"string":  Text,
	"str":     Text,
	"real":    Real,
	"float":   Real,
	"float64": Real,
	"number":  Real,
	"double":  Real,
	"boolean": Boolean,
	"bool":    Boolean,
	"binary":  Binary,
	"bytes":   Binary,
	"blob":    Binary,
}

// Named returns a custom type. Custom types are never type-checked and map
// to TEXT.
func Named(name string) Type {
	return Type{Name: name}
}

// Optional wraps t.
func Optional(t Type) Type {
	return Type{Name: optionalName, Elem: &t}
}

// IsOptional reports whether t is an optional wrapper.
func (t Type) IsOptional() bool {
	return t.Name == optionalName && t.Elem != nil
}

// Base strips every optional wrapper.
func (t Type) Base() Type {
	for t.IsOptional() {
		t = *t.Elem
	}
	return t
}

// Equal compares two types structurally.
func (t Type) Equal(other Type) bool {
	if t.Name != other.Name {
		return false
	}
	if t.Elem == nil || other.Elem == nil {
		return t.Elem == nil && other.Elem == nil
	}
	return t.Elem.Equal(*other.Elem)
}

func (t Type) String() string {
	if t.IsOptional() {
		return fmt.Sprintf("optional[%s]", t.Elem.String())
	}
	return t.Name
}

// ParseType parses a declared type.
//
// Accepted forms: a base type or one of its aliases (int, string, float, bool,
// bytes, ...), "optional[T]", "T?" and any other identifier as a custom type.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, fmt.Errorf("empty type")
	}

	if strings.HasSuffix(s, "?") {
		inner, err := ParseType(strings.TrimSuffix(s, "?"))
		if err != nil {
			return Type{}, err
		}
		return Optional(inner), nil
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, optionalName+"[") {
		if !strings.HasSuffix(s, "]") {
			return Type{}, fmt.Errorf("malformed optional type %q", s)
		}
		inner, err := ParseType(s[len(optionalName)+1 : len(s)-1])
		if err != nil {
			return Type{}, fmt.Errorf("optional type %q: %w", s, err)
		}
		return Optional(inner), nil
	}

	if t, ok := typeAliases[lower]; ok {
		return t, nil
	}
	if strings.ContainsAny(s, "[] \t") {
		return Type{}, fmt.Errorf("malformed type %q", s)
	}
	return Named(s), nil
}

// Accepts reports whether v is a legal value for t.
//
// nil is accepted only by optional types. Custom types accept anything.
// Integral floats and json.Number values are accepted for integer fields
// because JSON and YAML decoders produce them for whole numbers.
func (t Type) Accepts(v any) bool {
	if v == nil {
		return t.IsOptional()
	}

	switch t.Base().Name {
	case Integer.Name:
		_, ok := toInt64(v)
		return ok
	case Real.Name:
		_, ok := toFloat64(v)
		return ok
	case Text.Name:
		_, ok := v.(string)
		return ok
	case Boolean.Name:
		_, ok := v.(bool)
		return ok
	case Binary.Name:
		_, ok := v.([]byte)
		return ok
	default:
		return true
	}
}

// Normalize converts an accepted number to the declared kind: int64 for
// integer and float64 for real. Everything else is returned unchanged.
func (t Type) Normalize(v any) any {
	switch t.Base().Name {
	case Integer.Name:
		if n, ok := toInt64(v); ok {
			return n
		}
	case Real.Name:
		if f, ok := toFloat64(v); ok {
			return f
		}
	}
	return v
}

// int64 range as float64 bounds; 2^63 itself does not fit.
const (
	minInt64Float = -(1 << 63)
	maxInt64Float = 1 << 63
)

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt64(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case float64:
		return floatToInt64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	default:
		return 0, false
	}
}

func uintToInt64(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

func floatToInt64(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < minInt64Float || f >= maxInt64Float {
		return 0, false
	}
	return int64(f), true
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
