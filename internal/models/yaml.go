package models

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/automodel/internal/schema"
)

// yamlModel is one YAML model document.
type yamlModel struct {
	Name   string      `yaml:"name"`
	Table  string      `yaml:"table"`
	Fields []yamlField `yaml:"fields"`
}

type yamlField struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Default yaml.Node `yaml:"default"`
}

// loadYAML reads every model document in one YAML file.
func loadYAML(path string) ([]Model, []error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading file: %v", err), File: path}}
	}
	defer f.Close()

	var (
		models []Model
		errs   []error
	)
	dec := yaml.NewDecoder(f)
	for {
		var doc yamlModel
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing YAML: %v", err), File: path})
			break
		}
		if doc.Name == "" && len(doc.Fields) == 0 {
			continue // empty document
		}

		m, err := doc.compile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		models = append(models, m)
	}
	return models, errs
}

func (d yamlModel) compile(path string) (Model, error) {
	fields := make([]schema.Field, 0, len(d.Fields))
	for i, yf := range d.Fields {
		if yf.Name == "" {
			return Model{}, &LoadError{Code: ErrCodeInvalidField, Message: fmt.Sprintf("model %s: field %d has no name", d.Name, i), File: path}
		}

		typ, err := schema.ParseType(yf.Type)
		if err != nil {
			return Model{}, &LoadError{Code: ErrCodeInvalidType, Message: fmt.Sprintf("model %s: field %s: %v", d.Name, yf.Name, err), File: path}
		}
		f := schema.NewField(yf.Name, typ)

		// A zero Node means the key was absent; "default: null" is a
		// ScalarNode and declares a nil default.
		if yf.Default.Kind != 0 {
			var def any
			if err := yf.Default.Decode(&def); err != nil {
				return Model{}, &LoadError{Code: ErrCodeInvalidDefault, Message: fmt.Sprintf("model %s: field %s: %v", d.Name, yf.Name, err), File: path}
			}
			if !typ.Accepts(def) {
				return Model{}, &LoadError{
					Code:    ErrCodeInvalidDefault,
					Message: fmt.Sprintf("model %s: field %s: default %v does not fit %s", d.Name, yf.Name, def, typ),
					File:    path,
				}
			}
			f = f.WithDefault(def)
		}
		fields = append(fields, f)
	}

	return newModel(d.Name, d.Table, path, fields)
}
