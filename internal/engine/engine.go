package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/roach88/automodel/internal/registry"
	"github.com/roach88/automodel/internal/storage"
)

// Action names a routed engine operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionGet    Action = "get"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionQuery  Action = "query"
)

// Result is the outcome of Execute.
//
// Object is set by create, and by get and update when the row was found.
// Objects is set by query. Deleted reports whether delete found the row.
// Session is the token of the Use call the action ran under.
type Result struct {
	Action  Action
	Session string
	Object  *registry.Object
	Objects []registry.Object
	Deleted bool
}

// Found reports whether a get or update located its row.
func (r Result) Found() bool {
	return r.Object != nil
}

// Engine is the data engine façade over a registry and a storage backend.
//
// Thread-safety: safe for concurrent use. The active database and session
// are guarded by an RWMutex; the backend serializes its own operations.
type Engine struct {
	store    storage.Adapter
	reg      *registry.Registry
	logger   *slog.Logger
	sessions SessionGenerator

	mu       sync.RWMutex
	database string
	session  string
}

// New creates an Engine over store and reg. The engine does not own store;
// closing it is the caller's job.
func New(store storage.Adapter, reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		reg:      reg,
		logger:   slog.Default(),
		sessions: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Database returns the database selected by Use, or "".
func (e *Engine) Database() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.database
}

// Session returns the token minted by the last Use, or "".
func (e *Engine) Session() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}

// Use selects db and creates an empty table for every registered model.
func (e *Engine) Use(ctx context.Context, db string) error {
	if err := e.store.SelectDatabase(ctx, db); err != nil {
		return fmt.Errorf("use %s: %w", db, err)
	}

	tables := e.reg.Tables()
	for _, table := range tables {
		sch, _ := e.reg.Schema(table)
		if err := e.store.CreateTable(ctx, table, sch); err != nil {
			return fmt.Errorf("use %s: create table %s: %w", db, table, err)
		}
	}

	session := e.sessions.Generate()

	e.mu.Lock()
	e.database = db
	e.session = session
	e.mu.Unlock()

	e.logger.Info("database selected",
		"database", db,
		"session", session,
		"tables", len(tables),
	)
	return nil
}

// Execute routes one action on table.
//
// Errors are returned before storage is touched: NotInitializedError before
// Use, UnsupportedActionError for unknown actions, registry.UnknownTableError
// for unregistered tables, InvalidArgumentError for a target of the wrong
// kind, and validation errors from the registry and queryir.
func (e *Engine) Execute(ctx context.Context, table string, action Action, target any, opts ...ExecOption) (Result, error) {
	e.mu.RLock()
	database, session := e.database, e.session
	e.mu.RUnlock()

	if database == "" {
		return Result{}, &NotInitializedError{Table: table}
	}

	switch action {
	case ActionCreate, ActionGet, ActionUpdate, ActionDelete, ActionQuery:
	default:
		return Result{}, &UnsupportedActionError{Action: action}
	}

	if !e.reg.Has(table) {
		return Result{}, &registry.UnknownTableError{Table: table}
	}

	e.logger.Debug("executing action",
		"session", session,
		"database", database,
		"table", table,
		"action", string(action),
	)

	o := buildExecOptions(opts)
	res := Result{Action: action, Session: session}

	switch action {
	case ActionCreate:
		return e.create(ctx, table, target, res)
	case ActionGet:
		return e.get(ctx, table, target, res)
	case ActionUpdate:
		return e.update(ctx, table, target, o, res)
	case ActionDelete:
		return e.delete(ctx, table, target, o, res)
	default:
		return e.query(ctx, table, o, res)
	}
}

func (e *Engine) create(ctx context.Context, table string, target any, res Result) (Result, error) {
	data, ok := target.(map[string]any)
	if !ok {
		return Result{}, &InvalidArgumentError{
			Action:  ActionCreate,
			Message: fmt.Sprintf("target must be a field mapping, got %T", target),
		}
	}

	validated, err := e.reg.Validate(table, data)
	if err != nil {
		return Result{}, err
	}

	row, err := e.store.Insert(ctx, table, validated)
	if err != nil {
		return Result{}, fmt.Errorf("create in %s: %w", table, err)
	}

	obj := e.reg.ToObject(table, row)
	res.Object = &obj
	return res, nil
}

func (e *Engine) get(ctx context.Context, table string, target any, res Result) (Result, error) {
	id, err := targetID(ActionGet, target)
	if err != nil {
		return Result{}, err
	}

	row, found, err := e.store.Fetch(ctx, table, id)
	if err != nil {
		return Result{}, fmt.Errorf("get %s/%d: %w", table, id, err)
	}
	if found {
		obj := e.reg.ToObject(table, row)
		res.Object = &obj
	}
	return res, nil
}

func (e *Engine) update(ctx context.Context, table string, target any, o execOptions, res Result) (Result, error) {
	id, err := targetID(ActionUpdate, target)
	if err != nil {
		return Result{}, err
	}
	if len(o.data) == 0 {
		return Result{}, &MissingArgumentError{Action: ActionUpdate, Argument: "data"}
	}

	validated, err := e.reg.ValidatePatch(table, o.data)
	if err != nil {
		return Result{}, err
	}

	row, found, err := e.store.Update(ctx, table, id, validated)
	if err != nil {
		return Result{}, fmt.Errorf("update %s/%d: %w", table, id, err)
	}
	if found {
		obj := e.reg.ToObject(table, row)
		res.Object = &obj
	}
	return res, nil
}

func (e *Engine) delete(ctx context.Context, table string, target any, o execOptions, res Result) (Result, error) {
	id, err := targetID(ActionDelete, target)
	if err != nil {
		return Result{}, err
	}

	deleted, err := e.store.Delete(ctx, table, id, o.soft)
	if err != nil {
		return Result{}, fmt.Errorf("delete %s/%d: %w", table, id, err)
	}
	res.Deleted = deleted
	return res, nil
}

func (e *Engine) query(ctx context.Context, table string, o execOptions, res Result) (Result, error) {
	rows, err := e.store.Query(ctx, table, o.query())
	if err != nil {
		return Result{}, fmt.Errorf("query %s: %w", table, err)
	}

	res.Objects = make([]registry.Object, 0, len(rows))
	for _, row := range rows {
		res.Objects = append(res.Objects, e.reg.ToObject(table, row))
	}
	return res, nil
}

// targetID converts an id target. Integral floats and json.Number are
// accepted because decoded JSON carries ids in those forms.
func targetID(action Action, target any) (int64, error) {
	invalid := func() error {
		return &InvalidArgumentError{
			Action:  action,
			Message: fmt.Sprintf("target must be an integer id, got %T", target),
		}
	}

	switch v := target.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, invalid()
		}
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, invalid()
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return 0, invalid()
		}
		return int64(v), nil
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, invalid()
		}
		return id, nil
	default:
		return 0, invalid()
	}
}
