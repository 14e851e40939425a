package store

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/automodel/internal/schema"
	"github.com/roach88/automodel/internal/storage"
)

// columnRecord is the persisted form of a schema column.
type columnRecord struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// marshalPayload converts the model fields of data to JSON TEXT.
// Engine-managed fields are dropped; they have dedicated columns.
func marshalPayload(data map[string]any) (string, error) {
	fields := make(map[string]any, len(data))
	for k, v := range data {
		if !storage.IsManaged(k) {
			fields[k] = v
		}
	}
	return encodeJSON(fields, "payload")
}

// unmarshalPayload parses JSON TEXT into field values, restoring numbers
// and binary values with the help of the table's columns.
func unmarshalPayload(data string, cols schema.Schema) (map[string]any, error) {
	out := make(map[string]any)
	if data == "" || data == "{}" {
		return out, nil
	}

	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	for k, v := range raw {
		var typ schema.Type
		if col, ok := cols.Lookup(k); ok {
			typ = col.Type
		}
		out[k] = restoreValue(v, typ)
	}
	return out, nil
}

// restoreValue undoes JSON flattening for a top-level field value.
func restoreValue(v any, typ schema.Type) any {
	base := typ.Base().Name
	switch x := v.(type) {
	case json.Number:
		if base == schema.Real.Name {
			if f, err := x.Float64(); err == nil {
				return f
			}
		}
		return numberValue(x)
	case string:
		if base == schema.Binary.Name {
			if b, err := base64.StdEncoding.DecodeString(x); err == nil {
				return b
			}
		}
		return x
	default:
		return normalizeNested(v)
	}
}

// normalizeNested converts json.Number inside nested lists and objects.
func normalizeNested(v any) any {
	switch x := v.(type) {
	case json.Number:
		return numberValue(x)
	case map[string]any:
		for k, e := range x {
			x[k] = normalizeNested(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalizeNested(e)
		}
		return x
	default:
		return v
	}
}

// numberValue prefers int64 so integers survive without float64 precision
// loss for values > 2^53.
func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// marshalColumns converts a schema to JSON TEXT.
func marshalColumns(sch schema.Schema) (string, error) {
	records := make([]columnRecord, 0, len(sch))
	for _, c := range sch {
		records = append(records, columnRecord{Name: c.Name, Type: c.Type.String()})
	}
	return encodeJSON(records, "columns")
}

// unmarshalColumns parses JSON TEXT to a schema.
func unmarshalColumns(data string) (schema.Schema, error) {
	if data == "" || data == "[]" {
		return schema.Schema{}, nil
	}
	var records []columnRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("unmarshal columns: %w", err)
	}
	sch := make(schema.Schema, 0, len(records))
	for _, r := range records {
		typ, err := schema.ParseType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("unmarshal columns: field %q: %w", r.Name, err)
		}
		sch = append(sch, schema.Column{Name: r.Name, Type: typ})
	}
	return sch, nil
}

// encodeJSON uses json.Encoder with HTML escaping disabled so stored text
// matches the input byte for byte.
func encodeJSON(v any, what string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}
