package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/automodel/internal/queryir"
	"github.com/roach88/automodel/internal/schema"
	"github.com/roach88/automodel/internal/storage"
	"github.com/roach88/automodel/internal/storage/storagetest"
	"github.com/roach88/automodel/internal/testutil"
)

func TestStore_AdapterSuite(t *testing.T) {
	storagetest.RunAdapterSuite(t, func(t *testing.T, clock storage.Clock) storage.Adapter {
		s, err := Open(filepath.Join(t.TempDir(), "suite.db"), storage.WithClock(clock))
		require.NoError(t, err)
		return s
	})
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	assert.Equal(t, path, s.Path())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	// Verify schema is intact
	for _, table := range []string{"databases", "model_tables", "rows"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_RejectsNewerSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	_ = s.Close()
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.want); err != nil {
				t.Error(err)
			}
		})
	}
}

// Persistence tests

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SelectDatabase(ctx, "main"))
	require.NoError(t, s1.CreateTable(ctx, "users", schema.Extract(testutil.UserShape())))
	_, err = s1.Insert(ctx, "users", testutil.User("Alice", 30, "alice@example.com"))
	require.NoError(t, err)
	_, err = s1.Insert(ctx, "users", testutil.User("Bob", 25, "bob@example.com"))
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	assert.Equal(t, "", s2.Database())
	require.NoError(t, s2.SelectDatabase(ctx, "main"))

	row, found, err := s2.Fetch(ctx, "users", 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Bob", row["name"])
	assert.Equal(t, int64(25), row["age"])

	// The id counter survives the reopen.
	row, err = s2.Insert(ctx, "users", testutil.User("Carol", 41, "carol@example.com"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), row[storage.FieldID])
}

func TestStore_ColumnsLoadedFromDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cols.db")
	sch := schema.Schema{
		{Name: "ratio", Type: schema.Real},
		{Name: "blob", Type: schema.Optional(schema.Binary)},
	}

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SelectDatabase(ctx, "main"))
	require.NoError(t, s1.CreateTable(ctx, "samples", sch))
	_, err = s1.Insert(ctx, "samples", map[string]any{"ratio": 3.0, "blob": []byte("hi")})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// A fresh store has an empty cache and must read the columns back.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.SelectDatabase(ctx, "main"))

	rows, err := s2.Query(ctx, "samples", queryir.Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3.0, rows[0]["ratio"])
	assert.Equal(t, []byte("hi"), rows[0]["blob"])
}

func TestStore_CreateTableRequiresDatabase(t *testing.T) {
	s := createTestStore(t)
	err := s.CreateTable(context.Background(), "users", nil)
	assert.ErrorIs(t, err, storage.ErrNoDatabase)
}

func TestStore_InsertWithoutCreateTable(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.SelectDatabase(ctx, "main"))

	row, err := s.Insert(ctx, "notes", map[string]any{"body": "hello", "n": 7})
	require.NoError(t, err)
	assert.Equal(t, int64(1), row[storage.FieldID])
	assert.Equal(t, "hello", row["body"])
	assert.Equal(t, int64(7), row["n"])
}

func TestStore_MatchesMemoryBackend(t *testing.T) {
	ctx := context.Background()
	shape := schema.MustShape("Reading",
		schema.NewField("count", schema.Integer),
		schema.NewField("ratio", schema.Real),
		schema.NewField("label", schema.Text),
	)

	disk, err := Open(filepath.Join(t.TempDir(), "agree.db"), storage.WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })
	mem := storage.NewMemory(storage.WithClock(testutil.NewDeterministicClock()))

	inputs := []map[string]any{
		{"count": float64(3), "ratio": 2, "label": "a"},
		{"count": int32(7), "ratio": float32(0.5), "label": "b"},
		{"count": uint16(1), "ratio": int64(9), "label": "c"},
	}

	results := make(map[string][]storage.Row)
	for name, a := range map[string]storage.Adapter{"sqlite": disk, "memory": mem} {
		require.NoError(t, a.SelectDatabase(ctx, "main"))
		require.NoError(t, a.CreateTable(ctx, "readings", schema.Extract(shape)))
		for _, in := range inputs {
			_, err := a.Insert(ctx, "readings", in)
			require.NoError(t, err)
		}
		rows, err := a.Query(ctx, "readings", queryir.Query{OrderBy: "-count"})
		require.NoError(t, err)
		results[name] = rows
	}

	assert.Equal(t, results["memory"], results["sqlite"])
	require.Len(t, results["sqlite"], 3)
	assert.Equal(t, int64(7), results["sqlite"][0]["count"])
	assert.Equal(t, float64(0.5), results["sqlite"][0]["ratio"])
}
