package registry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/automodel/internal/schema"
)

// Object is a row converted through the registry.
//
// It is typed when Shape is set and untyped (the raw row) otherwise. ID
// carries the storage id even when the shape does not declare an id field.
type Object struct {
	Table  string
	ID     int64
	Shape  *schema.Shape
	Values map[string]any
}

// Typed reports whether the object was built from a registered shape.
func (o Object) Typed() bool {
	return o.Shape != nil
}

// Get returns a field value.
func (o Object) Get(field string) (any, bool) {
	v, ok := o.Values[field]
	return v, ok
}

// Fields returns field names: declaration order for typed objects, sorted
// for untyped ones.
func (o Object) Fields() []string {
	if o.Shape != nil {
		names := make([]string, 0, len(o.Shape.Fields))
		for _, f := range o.Shape.Fields {
			if _, ok := o.Values[f.Name]; ok {
				names = append(names, f.Name)
			}
		}
		return names
	}
	return sortedKeys(o.Values)
}

// MarshalJSON encodes the object's values.
func (o Object) MarshalJSON() ([]byte, error) {
	if o.Values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(o.Values)
}

// Decode binds an object into T using T's JSON tags.
func Decode[T any](o Object) (T, error) {
	var out T
	data, err := json.Marshal(o.Values)
	if err != nil {
		return out, fmt.Errorf("decode %s: marshal values: %w", o.Table, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", o.Table, err)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
