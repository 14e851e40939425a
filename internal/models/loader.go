package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/automodel/internal/registry"
	"github.com/roach88/automodel/internal/schema"
)

// Pattern matches every model file below a models directory.
const Pattern = "**/*.{cue,yaml,yml}"

// Model is one discovered model declaration.
type Model struct {
	Table string
	Shape *schema.Shape
	File  string
}

// LoadResult contains the models found in a directory.
type LoadResult struct {
	Models    []Model
	FileCount int // Number of model files read
}

// Tables returns the table names in discovery order.
func (r *LoadResult) Tables() []string {
	tables := make([]string, 0, len(r.Models))
	for _, m := range r.Models {
		tables = append(tables, m.Table)
	}
	return tables
}

// Register registers every model with reg.
func (r *LoadResult) Register(reg *registry.Registry) error {
	for _, m := range r.Models {
		if err := reg.Register(m.Table, m.Shape); err != nil {
			return fmt.Errorf("register %s from %s: %w", m.Table, m.File, err)
		}
	}
	return nil
}

// Load discovers model files under dir and parses them.
//
// All file-level errors are collected; models from files that parsed
// cleanly are still returned. A nil result means the directory itself
// could not be used.
func Load(dir string) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("models directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing models directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindModelFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no model files found in %s", dir)}}
	}

	result := &LoadResult{FileCount: len(files)}
	var errs []error
	seen := make(map[string]string) // table -> file

	for _, path := range files {
		var (
			models  []Model
			fileErr []error
		)
		switch filepath.Ext(path) {
		case ".cue":
			models, fileErr = loadCUE(path)
		default:
			models, fileErr = loadYAML(path)
		}
		errs = append(errs, fileErr...)

		for _, m := range models {
			if prev, dup := seen[m.Table]; dup {
				errs = append(errs, &LoadError{
					Code:    ErrCodeDuplicateTable,
					Message: fmt.Sprintf("table %q already declared in %s", m.Table, prev),
					File:    path,
				})
				continue
			}
			seen[m.Table] = path
			result.Models = append(result.Models, m)
		}
	}

	return result, errs
}

// FindModelFiles returns the model files below dir, sorted, skipping any
// whose base name begins with "_".
func FindModelFiles(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), Pattern)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), "_") {
			continue
		}
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	sort.Strings(files)
	return files, nil
}

// newModel builds a Model, deriving the table name when table is empty.
func newModel(name, table, file string, fields []schema.Field) (Model, error) {
	if name == "" {
		return Model{}, &LoadError{Code: ErrCodeInvalidModel, Message: "model has no name", File: file}
	}
	if len(fields) == 0 {
		return Model{}, &LoadError{Code: ErrCodeInvalidModel, Message: fmt.Sprintf("model %s has no fields", name), File: file}
	}

	shape, err := schema.NewShape(name, fields...)
	if err != nil {
		return Model{}, &LoadError{Code: ErrCodeInvalidField, Message: err.Error(), File: file}
	}
	if table == "" {
		table = registry.TableName(name)
	}
	return Model{Table: table, Shape: shape, File: file}, nil
}
