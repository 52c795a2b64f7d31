package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	in := time.Date(2026, 8, 30, 23, 45, 12, 999, loc)
	got := Day(in)
	require.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, loc), got)
	require.Equal(t, loc, got.Location())
}

func TestMigrateAndSeedIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("migrations")
	require.NoError(t, err)

	require.NoError(t, RunMigrations(dbPath, migrations))
	// re-running against an up-to-date database is a no-op
	require.NoError(t, RunMigrations(dbPath, migrations))

	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SeedDefaults(ctx, db, "BRL"))
	require.NoError(t, SeedDefaults(ctx, db, "BRL"))

	var wallets, profiles int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM wallets").Scan(&wallets))
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles").Scan(&profiles))
	require.Equal(t, 1, wallets)
	require.Equal(t, 1, profiles)
}
