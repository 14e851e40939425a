package schema

import (
	"fmt"
	"strings"
)

// Field is one declared field of a Shape.
type Field struct {
	Name string
	Type Type

	// Default is used when HasDefault is set and DefaultFunc is nil.
	Default    any
	HasDefault bool

	// DefaultFunc produces a fresh default per record (a default factory).
	DefaultFunc func() any
}

// NewField returns a required field.
func NewField(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// WithDefault returns a copy of f defaulting to v.
func (f Field) WithDefault(v any) Field {
	f.Default = v
	f.HasDefault = true
	f.DefaultFunc = nil
	return f
}

// WithDefaultFunc returns a copy of f whose default is produced by fn.
func (f Field) WithDefaultFunc(fn func() any) Field {
	f.Default = nil
	f.HasDefault = true
	f.DefaultFunc = fn
	return f
}

// Required reports whether a value must be supplied on create.
func (f Field) Required() bool {
	return !f.HasDefault
}

// DefaultValue returns the field default. ok is false for required fields.
func (f Field) DefaultValue() (v any, ok bool) {
	if !f.HasDefault {
		return nil, false
	}
	if f.DefaultFunc != nil {
		return f.DefaultFunc(), true
	}
	return f.Default, true
}

// Shape is a named, ordered set of fields describing one kind of record.
type Shape struct {
	Name   string
	Fields []Field

	index map[string]int
}

// NewShape builds a shape and checks that it has a name and that field
// names are non-empty and unique.
func NewShape(name string, fields ...Field) (*Shape, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("shape name is required")
	}

	s := &Shape{
		Name:   name,
		Fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(s.Fields, fields)

	for i, f := range s.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("shape %s: field %d has no name", name, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("shape %s: duplicate field %q", name, f.Name)
		}
		if f.Type.Name == "" {
			return nil, fmt.Errorf("shape %s: field %q has no type", name, f.Name)
		}
		s.index[f.Name] = i
	}

	return s, nil
}

// MustShape is NewShape that panics on error. Intended for package-level
// model declarations and tests.
func MustShape(name string, fields ...Field) *Shape {
	s, err := NewShape(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Field looks up a field by name.
func (s *Shape) Field(name string) (Field, bool) {
	if s.index == nil {
		for _, f := range s.Fields {
			if f.Name == name {
				return f, true
			}
		}
		return Field{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Has reports whether the shape declares name.
func (s *Shape) Has(name string) bool {
	_, ok := s.Field(name)
	return ok
}
