package engine

import (
	"log/slog"

	"github.com/roach88/automodel/internal/queryir"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for lifecycle and routing records.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSessionGenerator sets the generator for Use session tokens.
// Default: UUIDv7Generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.sessions = g
		}
	}
}

// ExecOption supplies per-action arguments to Execute.
type ExecOption func(*execOptions)

type execOptions struct {
	data       map[string]any
	soft       bool
	filter     map[string]any
	conditions []queryir.Condition
	orderBy    string
	limit      int
	offset     int
}

func buildExecOptions(opts []ExecOption) execOptions {
	o := execOptions{soft: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithData sets the fields to merge on update.
func WithData(data map[string]any) ExecOption {
	return func(o *execOptions) { o.data = data }
}

// WithSoft selects soft (true, the default) or hard delete.
func WithSoft(soft bool) ExecOption {
	return func(o *execOptions) { o.soft = soft }
}

// WithFilter adds equality conditions, one per key.
func WithFilter(filter map[string]any) ExecOption {
	return func(o *execOptions) { o.filter = filter }
}

// WithConditions adds conditions. They are ANDed with each other and with
// any WithFilter entries.
func WithConditions(conds ...queryir.Condition) ExecOption {
	return func(o *execOptions) { o.conditions = append(o.conditions, conds...) }
}

// WithOrderBy orders query results by field; a "-" prefix sorts descending.
func WithOrderBy(orderBy string) ExecOption {
	return func(o *execOptions) { o.orderBy = orderBy }
}

// WithLimit caps the number of query results. 0 means no limit.
func WithLimit(limit int) ExecOption {
	return func(o *execOptions) { o.limit = limit }
}

// WithOffset skips the first offset query results.
func WithOffset(offset int) ExecOption {
	return func(o *execOptions) { o.offset = offset }
}

// query assembles the queryir.Query for a query action.
func (o execOptions) query() queryir.Query {
	conds := queryir.FromFilter(o.filter)
	conds = append(conds, o.conditions...)
	return queryir.Query{
		Conditions: conds,
		OrderBy:    o.orderBy,
		Limit:      o.limit,
		Offset:     o.offset,
	}
}
