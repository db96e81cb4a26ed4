package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// ErrUnsupportedDriver is returned for drivers without a bun dialect.
var ErrUnsupportedDriver = errors.New("storage: unsupported driver")

// Open connects a bun database for driver. sqlite uses mattn/go-sqlite3 and
// postgres uses lib/pq. In-memory sqlite databases are pinned to a single
// connection so every query sees the same schema.
func Open(driver, dsn string) (*bun.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("storage: dsn required for %s", driver)
	}
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, err
		}
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			sqlDB.SetMaxOpenConns(1)
		}
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case "postgres", "postgresql", "pg":
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}
