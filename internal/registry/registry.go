// Package registry holds the table-name to record-shape mapping and the
// schemas derived from it.
//
// A Registry is an explicit instance owned by its caller. It validates
// incoming data against a table's schema and turns stored rows back into
// objects.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/automodel/internal/schema"
)

// Registry maps table names to shapes and schemas.
//
// Thread-safety: all methods are safe for concurrent use. Register replaces
// a table's shape and schema together under the write lock.
type Registry struct {
	mu      sync.RWMutex
	shapes  map[string]*schema.Shape
	schemas map[string]schema.Schema
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		shapes:  make(map[string]*schema.Shape),
		schemas: make(map[string]schema.Schema),
	}
}

// TableName derives a table name from a shape name: lower-case it, then
// "y" becomes "ies", a trailing "s" gets "es", anything else gets "s".
//
//	User    -> users
//	Company -> companies
//	Class   -> classes
func TableName(shapeName string) string {
	// cases.Caser is stateful; one per call.
	name := cases.Lower(language.Und).String(norm.NFC.String(shapeName))

	switch {
	case strings.HasSuffix(name, "y"):
		return strings.TrimSuffix(name, "y") + "ies"
	case strings.HasSuffix(name, "s"):
		return name + "es"
	default:
		return name + "s"
	}
}

// Register upserts the shape for table. Re-registering a table replaces both
// its shape and its schema.
func (r *Registry) Register(table string, shape *schema.Shape) error {
	if table == "" {
		return fmt.Errorf("register: empty table name")
	}
	if shape == nil {
		return fmt.Errorf("register %s: nil shape", table)
	}

	sch := schema.Extract(shape)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.shapes[table] = shape
	r.schemas[table] = sch
	return nil
}

// RegisterShape registers shape under its derived table name and returns
// that name.
func (r *Registry) RegisterShape(shape *schema.Shape) (string, error) {
	if shape == nil {
		return "", fmt.Errorf("register: nil shape")
	}
	table := TableName(shape.Name)
	if err := r.Register(table, shape); err != nil {
		return "", err
	}
	return table, nil
}

// Shape returns the shape registered for table.
func (r *Registry) Shape(table string) (*schema.Shape, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shapes[table]
	return s, ok
}

// Schema returns the schema registered for table.
func (r *Registry) Schema(table string) (schema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[table]
	return s, ok
}

// Has reports whether table is registered.
func (r *Registry) Has(table string) bool {
	_, ok := r.Schema(table)
	return ok
}

// Tables returns registered table names in sorted order.
func (r *Registry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tables := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables
}

// Validate checks data for a create against table's schema.
//
// Fields absent from data fail with MissingFieldError unless they have a
// default, in which case they are left out of the result. Present values
// must fit their declared type; numbers come back as int64 for integer
// fields and float64 for real ones. Keys outside the schema are dropped.
func (r *Registry) Validate(table string, data map[string]any) (map[string]any, error) {
	return r.validate(table, data, false)
}

// ValidatePatch is Validate for partial updates: absent fields are never an
// error.
func (r *Registry) ValidatePatch(table string, data map[string]any) (map[string]any, error) {
	return r.validate(table, data, true)
}

func (r *Registry) validate(table string, data map[string]any, partial bool) (map[string]any, error) {
	r.mu.RLock()
	sch, ok := r.schemas[table]
	shape := r.shapes[table]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTableError{Table: table}
	}

	validated := make(map[string]any, len(sch))
	for _, col := range sch {
		v, present := data[col.Name]
		if !present {
			if partial {
				continue
			}
			if f, _ := shape.Field(col.Name); f.Required() {
				return nil, &MissingFieldError{Table: table, Field: col.Name}
			}
			continue
		}
		if !col.Type.Accepts(v) {
			return nil, &TypeMismatchError{Table: table, Field: col.Name, Want: col.Type, Value: v}
		}
		validated[col.Name] = col.Type.Normalize(v)
	}

	return validated, nil
}

// idField is the storage-assigned row id.
const idField = "id"

// ToObject converts a stored row into an Object.
//
// Without a registered shape the row is returned untyped and unchanged.
// Otherwise only declared fields are kept and absent defaulted fields are
// filled in; engine-managed fields such as id survive only if the shape
// declares them.
func (r *Registry) ToObject(table string, row map[string]any) Object {
	id, _ := row[idField].(int64)

	shape, ok := r.Shape(table)
	if !ok {
		return Object{Table: table, ID: id, Values: row}
	}

	values := make(map[string]any, len(shape.Fields))
	for _, f := range shape.Fields {
		if v, present := row[f.Name]; present {
			values[f.Name] = v
			continue
		}
		if def, ok := f.DefaultValue(); ok {
			values[f.Name] = def
		}
	}

	return Object{Table: table, ID: id, Shape: shape, Values: values}
}
