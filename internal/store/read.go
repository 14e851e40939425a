package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/automodel/internal/queryir"
	"github.com/roach88/automodel/internal/schema"
	"github.com/roach88/automodel/internal/storage"
)

// Fetch implements storage.Adapter.
func (s *Store) Fetch(ctx context.Context, table string, id int64) (storage.Row, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	database, err := s.activeDatabase()
	if err != nil {
		return nil, false, err
	}
	cols, err := s.columnsFor(ctx, database, table)
	if err != nil {
		return nil, false, err
	}

	row, found, err := s.readRow(ctx, database, table, id, cols)
	if err != nil || !found {
		return nil, false, err
	}
	if row[storage.FieldDeleted] == true {
		return nil, false, nil
	}
	return row, true, nil
}

// Query implements storage.Adapter.
// Live rows are read in id order and then evaluated by queryir.Apply.
func (s *Store) Query(ctx context.Context, table string, q queryir.Query) ([]storage.Row, error) {
	if err := queryir.Validate(q); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	database, err := s.activeDatabase()
	if err != nil {
		return nil, err
	}
	cols, err := s.columnsFor(ctx, database, table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload, create_time, update_time, deleted
		FROM rows
		WHERE database = ? AND tbl = ? AND deleted = 0
		ORDER BY id ASC
	`, database, table)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	live := []storage.Row{}
	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			return nil, err
		}
		live = append(live, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}

	return queryir.Apply(live, q), nil
}

// readRow loads a row regardless of its deleted flag.
func (s *Store) readRow(ctx context.Context, database, table string, id int64, cols schema.Schema) (storage.Row, bool, error) {
	r := s.db.QueryRowContext(ctx, `
		SELECT id, payload, create_time, update_time, deleted
		FROM rows
		WHERE database = ? AND tbl = ? AND id = ?
	`, database, table, id)

	row, err := scanRow(r, cols)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

// columnsFor returns the recorded schema of a table. Tables never passed to
// CreateTable have no columns and their values are restored untyped.
// Caller must hold s.mu.
func (s *Store) columnsFor(ctx context.Context, database, table string) (schema.Schema, error) {
	key := columnsKey(database, table)
	if cols, ok := s.columns[key]; ok {
		return cols, nil
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT columns FROM model_tables WHERE database = ? AND name = ?`,
		database, table).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load columns for %s: %w", table, err)
	}

	cols, err := unmarshalColumns(data)
	if err != nil {
		return nil, err
	}
	s.columns[key] = cols
	return cols, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner, cols schema.Schema) (storage.Row, error) {
	var (
		id         int64
		payload    string
		createTime string
		updateTime string
		deleted    int
	)
	if err := sc.Scan(&id, &payload, &createTime, &updateTime, &deleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}
	return buildRow(id, payload, createTime, updateTime, deleted != 0, cols)
}

func buildRow(id int64, payload, createTime, updateTime string, deleted bool, cols schema.Schema) (storage.Row, error) {
	row, err := unmarshalPayload(payload, cols)
	if err != nil {
		return nil, err
	}
	row[storage.FieldID] = id
	row[storage.FieldCreateTime] = createTime
	row[storage.FieldUpdateTime] = updateTime
	row[storage.FieldDeleted] = deleted
	return row, nil
}
