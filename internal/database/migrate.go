package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"learnquest/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// Oracle errors that mean the object is already in the requested state.
var oracleIgnorableUp = []string{"ORA-00955", "ORA-01408", "ORA-02260", "ORA-02261"}
var oracleIgnorableDown = []string{"ORA-00942", "ORA-01418"}

// OpenMigrationDB opens a plain database/sql handle for schema changes.
// golang-migrate closes the handle it is given, so it is kept apart from the
// application pool.
func OpenMigrationDB(driver, dsn string) (*sql.DB, error) {
	name, err := SQLDriverName(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}
	return db, nil
}

// NewMigrator builds a golang-migrate instance over the embedded migrations
// for postgres and sqlite. Oracle uses the statement runner below.
func NewMigrator(driver string, db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, path.Join("migrations", driver))
	if err != nil {
		return nil, fmt.Errorf("could not load %s migrations: %w", driver, err)
	}

	var target migratedb.Driver
	switch driver {
	case DriverPostgres:
		target, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	case DriverSQLite:
		target, err = sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	default:
		return nil, fmt.Errorf("golang-migrate is not used for driver %s", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", src, driver, target)
}

// RunMigrations applies all pending up migrations.
func RunMigrations(driver string, db *sql.DB) error {
	if driver == DriverOracle || driver == "" {
		return runOracleMigrations(db, true)
	}
	m, err := NewMigrator(driver, db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not apply migrations: %w", err)
	}
	logger.Get().Info("Migrations completed successfully", zap.String("driver", driver))
	return nil
}

// RollbackMigrations reverts the given number of migrations (all when steps <= 0).
func RollbackMigrations(driver string, db *sql.DB, steps int) error {
	if driver == DriverOracle || driver == "" {
		return runOracleMigrations(db, false)
	}
	m, err := NewMigrator(driver, db)
	if err != nil {
		return err
	}
	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not roll back migrations: %w", err)
	}
	return nil
}

// MigrationVersion reports the applied schema version.
func MigrationVersion(driver string, db *sql.DB) (uint, bool, error) {
	if driver == DriverOracle || driver == "" {
		return 0, false, errors.New("version tracking is not available for oracle")
	}
	m, err := NewMigrator(driver, db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func runOracleMigrations(db *sql.DB, up bool) error {
	suffix, ignorable := ".up.sql", oracleIgnorableUp
	if !up {
		suffix, ignorable = ".down.sql", oracleIgnorableDown
	}

	dir := "migrations/oracle"
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if !up {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}

	for _, name := range files {
		content, err := fs.ReadFile(migrationsFS, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		for _, stmt := range SplitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				if hasOracleCode(err, ignorable) {
					logger.Get().Debug("Skipping statement already applied", zap.String("file", name), zap.Error(err))
					continue
				}
				return fmt.Errorf("could not execute migration %s: %w", name, err)
			}
		}
		logger.Get().Info("Executed migration", zap.String("file", name))
	}
	return nil
}

// SplitStatements splits a SQL script on ';' line endings. The Oracle driver
// executes one statement per call and rejects the trailing semicolon.
func SplitStatements(script string) []string {
	var stmts []string
	var current strings.Builder
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(current.String()), ";")
			stmts = append(stmts, stmt)
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts
}

func hasOracleCode(err error, codes []string) bool {
	msg := err.Error()
	for _, code := range codes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
