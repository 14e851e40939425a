package schema

// Column is one (name, declared type) entry of a Schema.
type Column struct {
	Name string
	Type Type
}

// StorageType returns the column's storage type.
func (c Column) StorageType() ColumnType {
	return ToStorageType(c.Type)
}

// Schema is the ordered field-name to declared-type mapping of a shape.
// Order follows field declaration order.
type Schema []Column

// Extract derives the schema of a shape. Pure; called once per shape at
// registration.
func Extract(s *Shape) Schema {
	if s == nil {
		return nil
	}
	cols := make(Schema, 0, len(s.Fields))
	for _, f := range s.Fields {
		cols = append(cols, Column{Name: f.Name, Type: f.Type})
	}
	return cols
}

// Names returns column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Lookup finds a column by name.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
