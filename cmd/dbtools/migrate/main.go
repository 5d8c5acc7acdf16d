// cmd/dbtools/migrate/main.go
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/Trainyard/internal/config"
	"github.com/codr1/Trainyard/internal/db"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML configuration (used when -db is empty)")
		dbPath     = flag.String("db", "", "Path to SQLite database")
		command    = flag.String("command", "", "Command to run (up, down, steps, version, force)")
		steps      = flag.Int("n", 1, "Migration count for steps, or target version for force")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *command == "" || (*dbPath == "" && *configPath == "") {
		flag.Usage()
		os.Exit(1)
	}

	path, err := resolveDBPath(*dbPath, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create database directory")
	}

	dsn, err := db.DSN(path)
	if err != nil {
		log.Fatal().Err(err).Str("db", path).Msg("Invalid database path")
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.Fatal().Err(err).Str("db", path).Msg("Failed to open database")
	}

	m, err := db.NewMigrate(sqlDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Migration init failed")
	}
	defer m.Close()

	if err := run(m, *command, *steps); err != nil {
		log.Fatal().Err(err).Str("command", *command).Msg("Migration failed")
	}
}

func resolveDBPath(dbPath, configPath string) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return cfg.Database.Filename, nil
}

func run(m *migrate.Migrate, command string, n int) error {
	switch command {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		return ignoreNoChange(m.Down())
	case "steps":
		return ignoreNoChange(m.Steps(n))
	case "force":
		return m.Force(n)
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("Version: none")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("No migrations to apply")
		return nil
	}
	if err == nil {
		log.Info().Msg("Migrations applied")
	}
	return err
}
