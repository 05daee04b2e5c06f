package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DBTX is an interface abstracting *sqlx.DB and *sqlx.Tx for repository use.
type DBTX interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	Rebind(query string) string
	DriverName() string
}

// Dialect covers the few statements that differ between the supported databases.
// Every query is written with '?' placeholders and rebound by sqlx.
type Dialect string

const (
	DialectOracle   Dialect = "oracle"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driverName string) Dialect {
	switch driverName {
	case "oracle":
		return DialectOracle
	case "sqlite", "sqlite3":
		return DialectSQLite
	default:
		return DialectPostgres
	}
}

// ForUpdate is the row-lock suffix. SQLite serialises writers instead.
func (d Dialect) ForUpdate() string {
	if d == DialectSQLite {
		return ""
	}
	return " FOR UPDATE"
}

// Paginate appends a limit/offset clause.
func (d Dialect) Paginate(query string, limit, offset int) string {
	if d == DialectOracle {
		if offset > 0 {
			return fmt.Sprintf("%s OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", query, offset, limit)
		}
		return fmt.Sprintf("%s FETCH FIRST %d ROWS ONLY", query, limit)
	}
	if offset > 0 {
		return fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
	}
	return fmt.Sprintf("%s LIMIT %d", query, limit)
}

// InsertIgnore builds an INSERT that silently skips rows violating the unique
// key. RowsAffected is 1 when the row was inserted and 0 when it already existed.
func (d Dialect) InsertIgnore(table string, key []string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	cols := strings.Join(columns, ", ")
	switch d {
	case DialectOracle:
		return fmt.Sprintf("INSERT /*+ IGNORE_ROW_ON_DUPKEY_INDEX(%s(%s)) */ INTO %s (%s) VALUES (%s)",
			table, strings.Join(key, ", "), table, cols, placeholders)
	case DialectSQLite:
		return fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)", table, cols, placeholders)
	default:
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO NOTHING",
			table, cols, placeholders, strings.Join(key, ", "))
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}
