// Package schema describes record shapes and the schemas derived from them.
//
// A Shape is an explicit descriptor: a name plus an ordered list of fields,
// each with a declared Type and an optional default. Shapes are built once at
// load time and shared read-only afterwards.
//
// Declared types are small and closed:
//
//	integer  -> INTEGER
//	text     -> TEXT
//	real     -> REAL
//	boolean  -> INTEGER
//	binary   -> BLOB
//
// Any other name is a custom type and maps to TEXT. Optional wraps another
// type (optional[integer]) and is unwrapped before mapping.
package schema
