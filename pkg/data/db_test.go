package data

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/mchmarny/molweight/pkg/averages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	createSpeciesSQL = `CREATE TABLE species (sample TEXT, n REAL, mw REAL)`
	insertSpeciesSQL = `INSERT INTO species (sample, n, mw) VALUES
		('a', 1, 1), ('a', 2, 2), ('a', 3, 3), ('a', 2, 4), ('a', 1, 5), ('b', 9, 100)`
	selectSpeciesSQL = `SELECT n, mw FROM species WHERE sample = 'a' ORDER BY mw`
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := GetDB(DriverSQLite, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(createSpeciesSQL)
	require.NoError(t, err)
	_, err = db.Exec(insertSpeciesSQL)
	require.NoError(t, err)
	return db
}

func TestGetDB_Errors(t *testing.T) {
	_, err := GetDB("mysql", "dsn")
	assert.Error(t, err)

	_, err = GetDB(DriverSQLite, "")
	assert.Error(t, err)
}

func TestLoadSQL_SQLite(t *testing.T) {
	db := setupTestDB(t)

	p, err := LoadSQL(context.Background(), db, selectSpeciesSQL)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 2, 1}, p.Counts)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, p.Weights)

	mn, err := averages.Mn(p.Counts, p.Weights)
	require.NoError(t, err)
	assert.Equal(t, 3.0, mn)
}

func TestLoadSQL_Args(t *testing.T) {
	db := setupTestDB(t)

	p, err := LoadSQL(context.Background(), db, `SELECT n, mw FROM species WHERE sample = ?`, "b")
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, p.Counts)
}

func TestLoadSQL_Errors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := LoadSQL(ctx, nil, selectSpeciesSQL)
	assert.ErrorIs(t, err, errDBNotInitialized)

	_, err = LoadSQL(ctx, db, " ")
	assert.Error(t, err)

	_, err = LoadSQL(ctx, db, `SELECT n FROM species`)
	assert.Error(t, err)

	_, err = LoadSQL(ctx, db, `SELECT n, mw FROM species WHERE sample = 'none'`)
	assert.ErrorIs(t, err, averages.ErrEmpty)

	_, err = LoadSQL(ctx, db, `SELECT * FROM missing`)
	assert.Error(t, err)
}

func TestLoadSQL_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("molweight"),
		postgres.WithUsername("molweight"),
		postgres.WithPassword("molweight"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := GetDB(DriverPostgres, dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, `CREATE TABLE species (sample TEXT, n DOUBLE PRECISION, mw DOUBLE PRECISION)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insertSpeciesSQL)
	require.NoError(t, err)

	p, err := LoadSQL(ctx, db, `SELECT n, mw FROM species WHERE sample = $1 ORDER BY mw`, "a")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 2, 1}, p.Counts)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, p.Weights)
}
