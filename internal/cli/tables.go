package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/automodel/internal/registry"
)

// TablesResult lists every registered table.
type TablesResult struct {
	Tables []TableInfo `json:"tables"`
}

// TableInfo describes one table and the model behind it.
type TableInfo struct {
	Table   string       `json:"table"`
	Model   string       `json:"model"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnInfo describes one column.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Storage    string `json:"storage"`
	Required   bool   `json:"required"`
	Default    any    `json:"default,omitempty"`
	HasDefault bool   `json:"-"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables derived from the model files",
		Long: `Load the models under --models-dir and print each derived table with its
columns, declared types, storage types and defaults.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(rootOpts, cmd)
		},
	}

	return cmd
}

func runTables(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	reg, err := buildRegistry(opts, formatter)
	if err != nil {
		return err
	}
	return formatter.Success(describeTables(reg))
}

// buildRegistry loads the models directory into a fresh registry. Any load
// error is reported and aborts the command.
func buildRegistry(opts *RootOptions, formatter *OutputFormatter) (*registry.Registry, error) {
	result, loadErrors := loadModels(opts, formatter)
	if result == nil {
		return nil, reportLoadFailure(formatter, loadErrors)
	}
	if len(loadErrors) > 0 {
		return nil, outputValidationErrors(formatter, toIssues(loadErrors))
	}

	reg := registry.New()
	if err := result.Register(reg); err != nil {
		return nil, formatter.fail(ExitCommandError, "E001", err.Error())
	}
	return reg, nil
}

func describeTables(reg *registry.Registry) TablesResult {
	result := TablesResult{Tables: []TableInfo{}}
	for _, table := range reg.Tables() {
		shape, ok := reg.Shape(table)
		if !ok {
			continue
		}
		info := TableInfo{Table: table, Model: shape.Name, Columns: make([]ColumnInfo, 0, len(shape.Fields))}
		sch, _ := reg.Schema(table)
		for i, col := range sch {
			f := shape.Fields[i]
			def, hasDefault := f.DefaultValue()
			info.Columns = append(info.Columns, ColumnInfo{
				Name:       col.Name,
				Type:       col.Type.String(),
				Storage:    string(col.StorageType()),
				Required:   f.Required(),
				Default:    def,
				HasDefault: hasDefault,
			})
		}
		result.Tables = append(result.Tables, info)
	}
	return result
}

// RenderText writes one block per table with aligned columns.
func (r TablesResult) RenderText(w io.Writer) error {
	if len(r.Tables) == 0 {
		_, err := fmt.Fprintln(w, "no tables")
		return err
	}

	for i, t := range r.Tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", t.Table, t.Model)

		var nameW, typeW, storageW int
		for _, c := range t.Columns {
			nameW = max(nameW, len(c.Name))
			typeW = max(typeW, len(c.Type))
			storageW = max(storageW, len(c.Storage))
		}

		for _, c := range t.Columns {
			line := fmt.Sprintf("  %-*s  %-*s  %-*s", nameW, c.Name, typeW, c.Type, storageW, c.Storage)
			if c.HasDefault {
				line += "  default " + renderDefault(c.Default)
			}
			if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderDefault(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
