package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/automodel/internal/storage"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T, opts ...storage.Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
