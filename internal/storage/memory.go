package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/automodel/internal/queryir"
	"github.com/roach88/automodel/internal/schema"
)

// Memory is the in-process backend: database -> table -> id -> row.
//
// Thread-safety: safe for concurrent use; one RWMutex guards all state.
type Memory struct {
	mu        sync.RWMutex
	clock     Clock
	databases map[string]map[string]map[int64]Row
	counters  map[string]map[string]int64
	columns   map[string]map[string]schema.Schema
	current   string
}

var _ Adapter = (*Memory)(nil)

// NewMemory creates an empty in-memory backend.
func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		clock:     o.clock,
		databases: make(map[string]map[string]map[int64]Row),
		counters:  make(map[string]map[string]int64),
		columns:   make(map[string]map[string]schema.Schema),
	}
}

// SelectDatabase implements Adapter.
func (m *Memory) SelectDatabase(_ context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("select database: empty name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.databases[name]; !ok {
		m.databases[name] = make(map[string]map[int64]Row)
		m.counters[name] = make(map[string]int64)
		m.columns[name] = make(map[string]schema.Schema)
	}
	m.current = name
	return nil
}

// CreateTable implements Adapter. The schema is recorded so numbers are
// stored with their declared kind, as the SQLite backend restores them.
func (m *Memory) CreateTable(_ context.Context, table string, sch schema.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.ensureTable(table); err != nil {
		return err
	}
	m.columns[m.current][table] = sch
	return nil
}

// Insert implements Adapter.
func (m *Memory) Insert(_ context.Context, table string, data map[string]any) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.ensureTable(table)
	if err != nil {
		return nil, err
	}

	row := make(Row, len(data)+4)
	m.merge(row, table, data)

	counters := m.counters[m.current]
	counters[table]++
	id := counters[table]

	now := m.clock.Now().Format(TimeLayout)
	row[FieldID] = id
	row[FieldCreateTime] = now
	row[FieldUpdateTime] = now
	row[FieldDeleted] = false

	t[id] = row
	return cloneRow(row), nil
}

// Fetch implements Adapter.
func (m *Memory) Fetch(_ context.Context, table string, id int64) (Row, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.table(table)
	if err != nil {
		return nil, false, err
	}
	row, ok := t[id]
	if !ok || isDeleted(row) {
		return nil, false, nil
	}
	return cloneRow(row), true, nil
}

// Update implements Adapter.
func (m *Memory) Update(_ context.Context, table string, id int64, data map[string]any) (Row, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(table)
	if err != nil {
		return nil, false, err
	}
	row, ok := t[id]
	if !ok || isDeleted(row) {
		return nil, false, nil
	}

	m.merge(row, table, data)
	row[FieldUpdateTime] = m.clock.Now().Format(TimeLayout)
	return cloneRow(row), true, nil
}

// Delete implements Adapter.
func (m *Memory) Delete(_ context.Context, table string, id int64, soft bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(table)
	if err != nil {
		return false, err
	}
	row, ok := t[id]
	if !ok {
		return false, nil
	}
	if soft {
		row[FieldDeleted] = true
	} else {
		delete(t, id)
	}
	return true, nil
}

// Query implements Adapter.
func (m *Memory) Query(_ context.Context, table string, q queryir.Query) ([]Row, error) {
	if err := queryir.Validate(q); err != nil {
		return nil, err
	}

	m.mu.RLock()
	t, err := m.table(table)
	if err != nil {
		m.mu.RUnlock()
		return nil, err
	}
	live := make([]Row, 0, len(t))
	for _, row := range t {
		if !isDeleted(row) {
			live = append(live, cloneRow(row))
		}
	}
	m.mu.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		return live[i][FieldID].(int64) < live[j][FieldID].(int64)
	})
	return queryir.Apply(live, q), nil
}

// Close implements Adapter.
func (m *Memory) Close() error { return nil }

// Database returns the active database name, or "" before SelectDatabase.
func (m *Memory) Database() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// ensureTable returns the table in the active database, creating it.
// Caller must hold the write lock.
func (m *Memory) ensureTable(table string) (map[int64]Row, error) {
	db, ok := m.databases[m.current]
	if !ok {
		return nil, ErrNoDatabase
	}
	t, ok := db[table]
	if !ok {
		t = make(map[int64]Row)
		db[table] = t
	}
	return t, nil
}

// table returns the table in the active database; a missing table reads as
// empty. Caller must hold a lock.
func (m *Memory) table(table string) (map[int64]Row, error) {
	db, ok := m.databases[m.current]
	if !ok {
		return nil, ErrNoDatabase
	}
	return db[table], nil
}

// merge copies the non-managed fields of data into row, normalizing values
// of declared columns. Caller must hold the write lock.
func (m *Memory) merge(row Row, table string, data map[string]any) {
	cols := m.columns[m.current][table]
	for k, v := range data {
		if IsManaged(k) {
			continue
		}
		if col, ok := cols.Lookup(k); ok {
			v = col.Type.Normalize(v)
		}
		row[k] = v
	}
}

func isDeleted(row Row) bool {
	deleted, _ := row[FieldDeleted].(bool)
	return deleted
}
