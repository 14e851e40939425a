package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/automodel/internal/engine"
	"github.com/roach88/automodel/internal/queryir"
	"github.com/roach88/automodel/internal/registry"
	"github.com/roach88/automodel/internal/store"
)

// Exec error codes.
const (
	ErrCodeInvalidArgument   = "E201" // Bad target or flag value
	ErrCodeMissingArgument   = "E202" // Action needs data it did not get
	ErrCodeUnsupportedAction = "E203" // Unknown action name
	ErrCodeUnknownTable      = "E204" // Table has no model
	ErrCodeMissingField      = "E205" // Required field absent on create
	ErrCodeTypeMismatch      = "E206" // Value does not fit its field type
	ErrCodeInvalidQuery      = "E207" // Bad condition, limit or offset
	ErrCodeStorage           = "E208" // Database failure
	ErrCodeNotFound          = "E209" // Record not found
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	Use     string
	Data    string
	Filter  string
	OrderBy string
	Limit   int
	Offset  int
	Hard    bool
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec <table> <action> [target]",
		Short: "Run one create, get, update, delete or query action",
		Long: `Run one engine action against the SQLite database at --db.

  create: target (or --data) is a JSON object of field values
  get:    target is a record id
  update: target is a record id, --data is a JSON object of changes
  delete: target is a record id; soft unless --hard
  query:  --filter, --order-by, --limit and --offset select records`,
		Example: `  automodel exec users create '{"name":"Alice","age":30}'
  automodel exec users update 1 --data '{"age":31}'
  automodel exec users query --filter '{"status":"active"}' --order-by -age --limit 2`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Use, "use", "main", "logical database to select")
	cmd.Flags().StringVar(&opts.Data, "data", "", "JSON object for create or update")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "JSON object of equality filters for query")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", "", "order query results by field (prefix - for descending)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of query results (0 = no limit)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of query results to skip")
	cmd.Flags().BoolVar(&opts.Hard, "hard", false, "delete permanently instead of soft delete")

	return cmd
}

func runExec(rootOpts *RootOptions, opts *ExecOptions, cmd *cobra.Command, args []string) error {
	formatter := newFormatter(rootOpts, cmd)
	table, action := args[0], engine.Action(args[1])
	var rawTarget string
	if len(args) == 3 {
		rawTarget = args[2]
	}

	target, execOpts, err := parseExecArgs(action, rawTarget, opts)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidArgument, err.Error())
	}

	reg, err := buildRegistry(rootOpts, formatter)
	if err != nil {
		return err
	}

	st, err := store.Open(rootOpts.DB)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStorage, err.Error())
	}
	defer st.Close()

	logger := rootOpts.logger()
	eng := engine.New(st, reg, engine.WithLogger(logger))
	if err := eng.Use(cmd.Context(), opts.Use); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStorage, err.Error())
	}

	formatter.VerboseLog("Running %s on %s in %s/%s", action, table, rootOpts.DB, opts.Use)
	res, err := eng.Execute(cmd.Context(), table, action, target, execOpts...)
	if err != nil {
		exit, code := classifyExecError(err)
		logger.Debug("exec failed", "table", table, "action", string(action), "error", err)
		return formatter.fail(exit, code, err.Error())
	}
	formatter.VerboseLog("Session %s", res.Session)

	return outputExecResult(formatter, res)
}

// parseExecArgs turns the raw target and flags into Execute arguments.
func parseExecArgs(action engine.Action, rawTarget string, opts *ExecOptions) (any, []engine.ExecOption, error) {
	switch action {
	case engine.ActionCreate:
		raw := rawTarget
		if raw == "" {
			raw = opts.Data
		}
		if raw == "" {
			return nil, nil, fmt.Errorf("create needs a JSON object as target or --data")
		}
		data, err := parseObject(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("create data: %w", err)
		}
		return data, nil, nil

	case engine.ActionGet, engine.ActionUpdate, engine.ActionDelete:
		if rawTarget == "" {
			return nil, nil, fmt.Errorf("%s needs a record id", action)
		}
		id, err := strconv.ParseInt(rawTarget, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid record id %q", rawTarget)
		}

		var execOpts []engine.ExecOption
		switch action {
		case engine.ActionUpdate:
			if opts.Data != "" {
				data, err := parseObject(opts.Data)
				if err != nil {
					return nil, nil, fmt.Errorf("update data: %w", err)
				}
				execOpts = append(execOpts, engine.WithData(data))
			}
		case engine.ActionDelete:
			execOpts = append(execOpts, engine.WithSoft(!opts.Hard))
		}
		return id, execOpts, nil

	case engine.ActionQuery:
		execOpts := []engine.ExecOption{
			engine.WithOrderBy(opts.OrderBy),
			engine.WithLimit(opts.Limit),
			engine.WithOffset(opts.Offset),
		}
		if opts.Filter != "" {
			filter, err := parseObject(opts.Filter)
			if err != nil {
				return nil, nil, fmt.Errorf("filter: %w", err)
			}
			execOpts = append(execOpts, engine.WithFilter(filter))
		}
		return nil, execOpts, nil

	default:
		// Execute reports the unsupported action.
		return nil, nil, nil
	}
}

// parseObject decodes a JSON object, keeping numbers as json.Number so
// integers stay exact.
func parseObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("invalid JSON object: null")
	}
	return out, nil
}

// classifyExecError maps an Execute error to an exit code and error code.
func classifyExecError(err error) (int, string) {
	var verr *queryir.ValidationError
	switch {
	case engine.IsInvalidArgument(err):
		return ExitCommandError, ErrCodeInvalidArgument
	case engine.IsMissingArgument(err):
		return ExitCommandError, ErrCodeMissingArgument
	case engine.IsUnsupportedAction(err):
		return ExitCommandError, ErrCodeUnsupportedAction
	case registry.IsUnknownTable(err):
		return ExitCommandError, ErrCodeUnknownTable
	case registry.IsMissingField(err):
		return ExitFailure, ErrCodeMissingField
	case registry.IsTypeMismatch(err):
		return ExitFailure, ErrCodeTypeMismatch
	case errors.As(err, &verr):
		return ExitCommandError, ErrCodeInvalidQuery
	default:
		return ExitCommandError, ErrCodeStorage
	}
}

// Record is an object rendered with its id first and fields in declaration
// order.
type Record struct {
	obj registry.Object
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.FormatInt(r.obj.ID, 10))
	for _, name := range r.obj.Fields() {
		if name == "id" {
			continue
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.obj.Values[name])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ExecResult is the output of a successful exec.
type ExecResult struct {
	Action  string   `json:"action"`
	Record  *Record  `json:"record,omitempty"`
	Records []Record `json:"records,omitempty"`
	Count   *int     `json:"count,omitempty"`
	Deleted *bool    `json:"deleted,omitempty"`
}

// RenderText prints one JSON line per record, or the delete outcome.
func (r ExecResult) RenderText(w io.Writer) error {
	switch {
	case r.Deleted != nil:
		msg := "not found"
		if *r.Deleted {
			msg = "deleted"
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	case r.Record != nil:
		return writeRecordLine(w, *r.Record)
	default:
		for _, rec := range r.Records {
			if err := writeRecordLine(w, rec); err != nil {
				return err
			}
		}
		return nil
	}
}

func writeRecordLine(w io.Writer, rec Record) error {
	data, err := rec.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func outputExecResult(formatter *OutputFormatter, res engine.Result) error {
	out := ExecResult{Action: string(res.Action)}

	switch res.Action {
	case engine.ActionDelete:
		deleted := res.Deleted
		out.Deleted = &deleted
	case engine.ActionQuery:
		out.Records = make([]Record, 0, len(res.Objects))
		for _, obj := range res.Objects {
			out.Records = append(out.Records, Record{obj: obj})
		}
		count := len(out.Records)
		out.Count = &count
	default:
		if !res.Found() {
			return formatter.fail(ExitFailure, ErrCodeNotFound, "record not found")
		}
		out.Record = &Record{obj: *res.Object}
	}

	return formatter.Success(out)
}
