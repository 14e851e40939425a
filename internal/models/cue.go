package models

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/automodel/internal/schema"
)

// loadCUE reads the models declared under "model" in one CUE file.
func loadCUE(path string) ([]Model, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading file: %v", err), File: path}}
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err, ErrCodeBuildFailed, path)}
	}

	modelsVal := value.LookupPath(cue.ParsePath("model"))
	if !modelsVal.Exists() {
		return nil, nil
	}

	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err, ErrCodeGeneric, path)}
	}

	var (
		models []Model
		errs   []error
	)
	for iter.Next() {
		m, err := compileModel(iter.Label(), iter.Value(), path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		models = append(models, m)
	}
	return models, errs
}

// compileModel turns one model struct into a Model.
func compileModel(name string, v cue.Value, path string) (Model, error) {
	if err := v.Err(); err != nil {
		return Model{}, formatCUEError(err, ErrCodeBuildFailed, path)
	}

	table, err := attrArg(v, "table")
	if err != nil {
		return Model{}, &LoadError{Code: ErrCodeInvalidModel, Message: fmt.Sprintf("model %s: %v", name, err), File: path, Pos: v.Pos()}
	}

	iter, err := v.Fields(cue.Optional(true))
	if err != nil {
		return Model{}, &LoadError{Code: ErrCodeInvalidModel, Message: fmt.Sprintf("model %s must be a struct", name), File: path, Pos: v.Pos()}
	}

	var fields []schema.Field
	for iter.Next() {
		f, err := compileField(iter.Label(), iter.Value(), iter.IsOptional(), path)
		if err != nil {
			return Model{}, err
		}
		fields = append(fields, f)
	}

	return newModel(name, table, path, fields)
}

// compileField maps one CUE field to a schema.Field.
//
// Kinds map string->text, int->integer, float/number->real, bool->boolean
// and bytes->binary. A null branch or "?" marks the field optional. A
// @type(Name) attribute declares a custom type.
func compileField(name string, v cue.Value, optional bool, path string) (schema.Field, error) {
	typ, err := fieldType(v, path)
	if err != nil {
		return schema.Field{}, err
	}
	if optional && !typ.IsOptional() {
		typ = schema.Optional(typ)
	}
	f := schema.NewField(name, typ)

	def, ok, err := defaultValue(v)
	if err != nil {
		return schema.Field{}, formatCUEError(err, ErrCodeInvalidDefault, path)
	}
	switch {
	case ok:
		if !typ.Accepts(def) {
			return schema.Field{}, &LoadError{
				Code:    ErrCodeInvalidDefault,
				Message: fmt.Sprintf("field %s: default %v does not fit %s", name, def, typ),
				File:    path,
				Pos:     v.Pos(),
			}
		}
		f = f.WithDefault(def)
	case optional:
		// Omitting an optional field stores nothing.
		f = f.WithDefault(nil)
	}
	return f, nil
}

func fieldType(v cue.Value, path string) (schema.Type, error) {
	custom, err := attrArg(v, "type")
	if err != nil {
		return schema.Type{}, &LoadError{Code: ErrCodeInvalidType, Message: err.Error(), File: path, Pos: v.Pos()}
	}
	if custom != "" {
		t, err := schema.ParseType(custom)
		if err != nil {
			return schema.Type{}, &LoadError{Code: ErrCodeInvalidType, Message: err.Error(), File: path, Pos: v.Pos()}
		}
		return t, nil
	}

	kind := v.IncompleteKind()
	nullable := kind&cue.NullKind != 0
	kind &^= cue.NullKind

	var t schema.Type
	switch kind {
	case cue.StringKind:
		t = schema.Text
	case cue.IntKind:
		t = schema.Integer
	case cue.FloatKind, cue.NumberKind:
		t = schema.Real
	case cue.BoolKind:
		t = schema.Boolean
	case cue.BytesKind:
		t = schema.Binary
	default:
		return schema.Type{}, &LoadError{
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			File:    path,
			Pos:     v.Pos(),
		}
	}

	if nullable {
		t = schema.Optional(t)
	}
	return t, nil
}

// defaultValue returns the marked default of v, or v itself when it is
// concrete.
func defaultValue(v cue.Value) (any, bool, error) {
	d, ok := v.Default()
	if !ok {
		if !v.IsConcrete() {
			return nil, false, nil
		}
		d = v
	}

	var (
		out any
		err error
	)
	switch d.Kind() {
	case cue.NullKind:
		return nil, true, nil
	case cue.StringKind:
		out, err = d.String()
	case cue.IntKind:
		out, err = d.Int64()
	case cue.FloatKind:
		out, err = d.Float64()
	case cue.BoolKind:
		out, err = d.Bool()
	case cue.BytesKind:
		out, err = d.Bytes()
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// attrArg returns the first argument of attribute key, or "" if v has no
// such attribute.
func attrArg(v cue.Value, key string) (string, error) {
	attr := v.Attribute(key)
	if attr.Err() != nil {
		return "", nil
	}
	arg, err := attr.String(0)
	if err != nil {
		return "", fmt.Errorf("@%s: %w", key, err)
	}
	return arg, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, code, path string) *LoadError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error(), File: path}
	}

	// Return first error with position info
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error(), File: path}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
