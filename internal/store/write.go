package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/automodel/internal/schema"
	"github.com/roach88/automodel/internal/storage"
)

// SelectDatabase implements storage.Adapter.
func (s *Store) SelectDatabase(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("select database: empty name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO databases (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("select database %s: %w", name, err)
	}
	s.current = name
	return nil
}

// CreateTable implements storage.Adapter. The schema is recorded so payload
// values can be restored with their declared types.
func (s *Store) CreateTable(ctx context.Context, table string, sch schema.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	database, err := s.activeDatabase()
	if err != nil {
		return err
	}

	cols, err := marshalColumns(sch)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO model_tables (database, name, columns) VALUES (?, ?, ?)
		ON CONFLICT (database, name) DO UPDATE SET columns = excluded.columns
	`, database, table, cols)
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	s.columns[columnsKey(database, table)] = sch
	return nil
}

// Insert implements storage.Adapter.
func (s *Store) Insert(ctx context.Context, table string, data map[string]any) (storage.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	database, err := s.activeDatabase()
	if err != nil {
		return nil, err
	}

	payload, err := marshalPayload(data)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().Format(storage.TimeLayout)

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO model_tables (database, name) VALUES (?, ?)`,
			database, table); err != nil {
			return fmt.Errorf("ensure table: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE model_tables SET next_id = next_id + 1 WHERE database = ? AND name = ?`,
			database, table); err != nil {
			return fmt.Errorf("advance id: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT next_id FROM model_tables WHERE database = ? AND name = ?`,
			database, table).Scan(&id); err != nil {
			return fmt.Errorf("read id: %w", err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO rows (database, tbl, id, payload, create_time, update_time, deleted)
			VALUES (?, ?, ?, ?, ?, ?, 0)
		`, database, table, id, payload, now, now)
		if err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}

	cols, err := s.columnsFor(ctx, database, table)
	if err != nil {
		return nil, err
	}
	return buildRow(id, payload, now, now, false, cols)
}

// Update implements storage.Adapter.
func (s *Store) Update(ctx context.Context, table string, id int64, data map[string]any) (storage.Row, bool, error) {
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

	current, found, err := s.readRow(ctx, database, table, id, cols)
	if err != nil {
		return nil, false, err
	}
	if !found || current[storage.FieldDeleted] == true {
		return nil, false, nil
	}

	for k, v := range data {
		if !storage.IsManaged(k) {
			current[k] = v
		}
	}
	payload, err := marshalPayload(current)
	if err != nil {
		return nil, false, err
	}
	now := s.clock.Now().Format(storage.TimeLayout)

	_, err = s.db.ExecContext(ctx, `
		UPDATE rows SET payload = ?, update_time = ?
		WHERE database = ? AND tbl = ? AND id = ?
	`, payload, now, database, table, id)
	if err != nil {
		return nil, false, fmt.Errorf("update %s/%d: %w", table, id, err)
	}

	createTime, _ := current[storage.FieldCreateTime].(string)
	row, err := buildRow(id, payload, createTime, now, false, cols)
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

// Delete implements storage.Adapter.
func (s *Store) Delete(ctx context.Context, table string, id int64, soft bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	database, err := s.activeDatabase()
	if err != nil {
		return false, err
	}

	var res sql.Result
	if soft {
		res, err = s.db.ExecContext(ctx,
			`UPDATE rows SET deleted = 1 WHERE database = ? AND tbl = ? AND id = ?`,
			database, table, id)
	} else {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM rows WHERE database = ? AND tbl = ? AND id = ?`,
			database, table, id)
	}
	if err != nil {
		return false, fmt.Errorf("delete %s/%d: %w", table, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s/%d: rows affected: %w", table, id, err)
	}
	return n > 0, nil
}
