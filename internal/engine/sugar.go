package engine

import (
	"context"

	"github.com/roach88/automodel/internal/registry"
)

// Create inserts fields into table and returns the new object.
func (e *Engine) Create(ctx context.Context, table string, fields map[string]any) (registry.Object, error) {
	res, err := e.Execute(ctx, table, ActionCreate, fields)
	if err != nil {
		return registry.Object{}, err
	}
	return *res.Object, nil
}

// Get fetches the object with id. The bool is false when it is missing or
// soft-deleted.
func (e *Engine) Get(ctx context.Context, table string, id int64) (registry.Object, bool, error) {
	res, err := e.Execute(ctx, table, ActionGet, id)
	if err != nil || !res.Found() {
		return registry.Object{}, false, err
	}
	return *res.Object, true, nil
}

// Update merges data into the object with id.
func (e *Engine) Update(ctx context.Context, table string, id int64, data map[string]any) (registry.Object, bool, error) {
	res, err := e.Execute(ctx, table, ActionUpdate, id, WithData(data))
	if err != nil || !res.Found() {
		return registry.Object{}, false, err
	}
	return *res.Object, true, nil
}

// Delete removes the object with id, softly unless WithSoft(false) is given.
func (e *Engine) Delete(ctx context.Context, table string, id int64, opts ...ExecOption) (bool, error) {
	res, err := e.Execute(ctx, table, ActionDelete, id, opts...)
	if err != nil {
		return false, err
	}
	return res.Deleted, nil
}

// Query returns the objects in table matching opts.
func (e *Engine) Query(ctx context.Context, table string, opts ...ExecOption) ([]registry.Object, error) {
	res, err := e.Execute(ctx, table, ActionQuery, nil, opts...)
	if err != nil {
		return nil, err
	}
	return res.Objects, nil
}
