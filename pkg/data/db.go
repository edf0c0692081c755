package data

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// Drivers lists the database/sql drivers populations can be read from.
	Drivers = []string{DriverSQLite, DriverPostgres}

	errDBNotInitialized = errors.New("database not initialized")
)

// GetDB opens a database handle for one of the supported drivers.
func GetDB(driver, dsn string) (*sql.DB, error) {
	if !Contains(Drivers, driver) {
		return nil, errors.Errorf("unsupported driver %q (supported: %s)", driver, strings.Join(Drivers, ", "))
	}
	if dsn == "" {
		return nil, errors.New("dsn not specified")
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", driver)
	}
	return conn, nil
}

// LoadSQL reads a population from the rows returned by query. Each row must
// yield two numeric columns: count, then weight.
func LoadSQL(ctx context.Context, db *sql.DB, query string, args ...any) (*Population, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query not specified")
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute population query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read query columns")
	}
	if len(cols) != csvColumns {
		return nil, errors.Errorf("population query must return 2 columns (count, weight), got %d: %v", len(cols), cols)
	}

	p := &Population{}
	for rows.Next() {
		var n, w float64
		if err := rows.Scan(&n, &w); err != nil {
			return nil, errors.Wrapf(err, "failed to scan row %d", p.Len()+1)
		}
		p.Counts = append(p.Counts, n)
		p.Weights = append(p.Weights, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate population rows")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("population queried", "species", p.Len())
	return p, nil
}

// Contains checks for val in list
func Contains[T comparable](list []T, val T) bool {
	if list == nil {
		return false
	}
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
