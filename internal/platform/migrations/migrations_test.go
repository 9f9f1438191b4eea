package migrations

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/internal/platform/database"
)

func TestEmbeddedMigrations_HaveGooseDirectives(t *testing.T) {
	for _, dir := range []string{"postgres", "sqlite"} {
		entries, err := fs.ReadDir(files, dir)
		require.NoError(t, err)
		require.NotEmpty(t, entries)

		for _, e := range entries {
			b, err := fs.ReadFile(files, dir+"/"+e.Name())
			require.NoError(t, err)
			s := string(b)
			assert.Contains(t, s, "-- +goose Up", e.Name())
			assert.Contains(t, s, "-- +goose Down", e.Name())
		}
	}
}

func TestEmbeddedMigrations_SameVersionsPerDialect(t *testing.T) {
	pg, err := fs.Glob(files, "postgres/*.sql")
	require.NoError(t, err)
	lite, err := fs.Glob(files, "sqlite/*.sql")
	require.NoError(t, err)

	base := func(paths []string) []string {
		out := make([]string, len(paths))
		for i, p := range paths {
			out[i] = filepath.Base(p)
		}
		return out
	}
	assert.Equal(t, base(pg), base(lite))
}

func TestDir_UnknownDriver(t *testing.T) {
	_, err := Dir("mysql")
	assert.Error(t, err)
}

func TestRun_SQLiteUpAndDown(t *testing.T) {
	Quiet()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Up(db.DB, "sqlite"))

	var tables []string
	require.NoError(t, db.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('users','members','books','loans','loan_lines') ORDER BY name`))
	assert.Equal(t, []string{"books", "loan_lines", "loans", "members", "users"}, tables)

	// idempotent
	require.NoError(t, Up(db.DB, "sqlite"))

	require.NoError(t, Run(db.DB, "sqlite", CommandDown))
	var n int
	require.NoError(t, db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'loan_lines'`))
	assert.Zero(t, n)
}

func TestRun_UnknownCommand(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	err = Run(db.DB, "sqlite", Command("redo-all"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown migration command"))
}
