package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fwojciec/pagegraph"
	"github.com/fwojciec/pagegraph/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

// pragmaValue reads a single-value pragma.
func pragmaValue[T any](t *testing.T, db *sqlite.DB, name string) T {
	t.Helper()
	var v T
	require.NoError(t, db.QueryRowContext(context.Background(), "PRAGMA "+name).Scan(&v))
	return v
}

func TestDB_Open(t *testing.T) {
	t.Parallel()

	t.Run("creates the graph tables", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		for _, table := range []string{"graphs", "objects", "relationships"} {
			var n int
			err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
			require.NoError(t, err, table)
		}
		assert.Equal(t, sqlite.SchemaVersion, pragmaValue[int](t, db, "user_version"))
	})

	t.Run("file databases use WAL and enforce foreign keys", func(t *testing.T) {
		t.Parallel()

		db := sqlite.NewDB(filepath.Join(t.TempDir(), "graphs.db"))
		require.NoError(t, db.Open())
		defer db.Close()

		assert.Equal(t, "wal", pragmaValue[string](t, db, "journal_mode"))
		assert.Equal(t, 1, pragmaValue[int](t, db, "foreign_keys"))
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "graphs.db")
		first := sqlite.NewDB(path)
		require.NoError(t, first.Open())
		_, err := first.ExecContext(context.Background(),
			`INSERT INTO graphs (id, analyzed_at, created_at) VALUES ('g1', '', '')`)
		require.NoError(t, err)
		require.NoError(t, first.Close())

		second := sqlite.NewDB(path)
		require.NoError(t, second.Open())
		defer second.Close()

		var n int
		require.NoError(t, second.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM graphs").Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("rejects a database from a newer version", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "graphs.db")
		db := sqlite.NewDB(path)
		require.NoError(t, db.Open())
		_, err := db.ExecContext(context.Background(), "PRAGMA user_version = 99")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		err = sqlite.NewDB(path).Open()

		assert.Equal(t, pagegraph.ECONFLICT, pagegraph.ErrorCode(err))
		assert.Contains(t, pagegraph.ErrorMessage(err), "99")
	})

	t.Run("fails for an unreachable path", func(t *testing.T) {
		t.Parallel()

		assert.Error(t, sqlite.NewDB("/nonexistent/path/db.sqlite").Open())
	})
}
