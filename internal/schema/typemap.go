package schema

// ColumnType is the storage column type of a field.
type ColumnType string

const (
	ColumnInteger ColumnType = "INTEGER"
	ColumnText    ColumnType = "TEXT"
	ColumnReal    ColumnType = "REAL"
	ColumnBlob    ColumnType = "BLOB"
)

var storageTypes = map[string]ColumnType{
	Integer.Name: ColumnInteger,
	Text.Name:    ColumnText,
	Real.Name:    ColumnReal,
	Boolean.Name: ColumnInteger,
	Binary.Name:  ColumnBlob,
}

// ToStorageType maps a declared type to its column type. Optional wrappers
// are unwrapped first; unknown types default to TEXT.
func ToStorageType(t Type) ColumnType {
	if ct, ok := storageTypes[t.Base().Name]; ok {
		return ct
	}
	return ColumnText
}
