package testsupport

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewSQLiteMemoryDB opens an in-memory sqlite database. Named databases are
// isolated from each other while connections to the same name share state.
func NewSQLiteMemoryDB(name ...string) (*sql.DB, error) {
	dsn := "file::memory:?cache=shared"
	if len(name) > 0 && strings.TrimSpace(name[0]) != "" {
		dsn = "file:" + strings.TrimSpace(name[0]) + "?mode=memory&cache=shared"
	}
	return sql.Open("sqlite3", dsn)
}

// NewSQLiteBunDB wraps a named in-memory sqlite database with bun.
func NewSQLiteBunDB(name string) (*bun.DB, error) {
	sqlDB, err := NewSQLiteMemoryDB(name)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}
