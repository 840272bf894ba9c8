package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/infra/sqlite"
)

func TestMigrate_RunsAllMigrations(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	ctx := context.Background()

	require.NoError(t, sqlite.MigrateUp(ctx, db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Positive(t, count, "schema_migrations rows after MigrateUp")

	var name string
	row := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'fixture'")
	require.NoError(t, row.Scan(&name), "fixture table missing after MigrateUp")
}

// TestMigrate_Idempotent verifies that running MigrateUp twice does not fail.
func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	ctx := context.Background()

	require.NoError(t, sqlite.MigrateUp(ctx, db))
	require.NoError(t, sqlite.MigrateUp(ctx, db), "second run")
}

func TestMigrationVersion(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	ctx := context.Background()

	before, err := sqlite.MigrationVersion(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, before)

	require.NoError(t, sqlite.MigrateUp(ctx, db))

	after, err := sqlite.MigrationVersion(ctx, db)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after, 1)
}
