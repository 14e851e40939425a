// Package models discovers model declarations on disk.
//
// A models directory holds CUE and YAML files. Files whose base name starts
// with "_" are skipped. Every discovered model becomes a schema.Shape that
// can be registered with a registry.Registry.
//
// CUE models live under the top-level "model" struct:
//
//	model: User: {
//		name:   string
//		age:    int
//		email?: string
//		status: *"active" | string
//	}
//
// A @table(name) attribute on the model overrides the derived table name.
//
// YAML models are one document per model:
//
//	name: User
//	table: people
//	fields:
//	  - name: name
//	    type: text
//	  - name: status
//	    type: text
//	    default: active
package models
