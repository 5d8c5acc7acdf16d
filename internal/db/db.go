// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/codr1/Trainyard/internal/config"
	dbgen "github.com/codr1/Trainyard/internal/db/generated"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB bundles the connection pool with sqlc queries bound to it. Inside
// RunInTx the Queries field is bound to the transaction instead.
type DB struct {
	*sql.DB
	Queries *dbgen.Queries
}

// sqliteParams are forced onto every DSN. Foreign keys back the reference
// checks; BEGIN IMMEDIATE takes the write lock up front so capacity and
// refund checks inside RunInTx cannot interleave with another writer.
var sqliteParams = map[string]string{
	"_fk":           "1",
	"_busy_timeout": "5000",
	"_journal_mode": "WAL",
	"_txlock":       "immediate",
}

// New opens the SQLite database at path, applies the embedded migrations and
// binds the generated queries.
func New(path string) (*DB, error) {
	dsn, err := DSN(path)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := runMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{
		DB:      sqlDB,
		Queries: dbgen.New(sqlDB),
	}, nil
}

// NewFromConfig creates the database described by cfg, creating its directory
// when missing. Only the "sqlite" driver is supported.
func NewFromConfig(cfg *config.Config) (*DB, error) {
	if cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Filename), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	return New(cfg.Database.Filename)
}

// DSN appends sqliteParams to path, keeping any parameter the caller
// already set.
func DSN(path string) (string, error) {
	base, rawQuery, _ := strings.Cut(path, "?")
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("database path is required")
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse database parameters: %w", err)
	}
	for key, value := range sqliteParams {
		if !query.Has(key) {
			query.Set(key, value)
		}
	}
	return base + "?" + query.Encode(), nil
}

// NewMigrate returns a migrator over the embedded SQL migrations bound to db.
func NewMigrate(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not create source: %w", err)
	}

	m, err := migrate.NewWithInstance(
		"iofs", source,
		"sqlite3", driver,
	)
	if err != nil {
		return nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, nil
}

// runMigrations applies the embedded SQL migrations to the provided database.
// A "no change" result is not treated as an error.
func runMigrations(db *sql.DB) error {
	m, err := NewMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// RunInTx runs fn against a transaction-bound DB. fn's error rolls the
// transaction back and is returned unchanged so HandlerErrors keep their
// status; a panic rolls back and is re-raised.
func (db *DB) RunInTx(ctx context.Context, fn func(*DB) error) error {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&DB{DB: db.DB, Queries: dbgen.New(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
