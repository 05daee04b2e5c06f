package database

import (
	"fmt"
	"strings"

	"learnquest/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver ("pgx")
	_ "github.com/sijms/go-ora/v2"     // Oracle driver ("oracle")
	_ "modernc.org/sqlite"             // SQLite driver ("sqlite")
)

const (
	DriverOracle   = "oracle"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

func init() {
	// sqlx does not know these driver names; queries are written with '?'.
	sqlx.BindDriver("oracle", sqlx.NAMED)
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLDriverName maps a configured driver to the database/sql driver name.
func SQLDriverName(driver string) (string, error) {
	switch driver {
	case DriverOracle, "":
		return "oracle", nil
	case DriverPostgres:
		return "pgx", nil
	case DriverSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Connect opens and pings a sqlx connection for the configured driver.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	name, err := SQLDriverName(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	switch driver {
	case DriverOracle, "":
		// Oracle reports unquoted column names in upper case.
		db.Mapper = reflectx.NewMapperTagFunc("db", strings.ToUpper, strings.ToUpper)
	case DriverSQLite:
		// A single writer avoids SQLITE_BUSY under concurrent ledger updates.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	logger.Get().Info("Successfully connected to database", zap.String("driver", driver))
	return db, nil
}
