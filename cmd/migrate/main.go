package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/alexivanou/weather-widget/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, version or force")
		version = flag.Int("version", -1, "Target version for the force command")
		dir     = flag.String("dir", "migrations", "Directory holding the sqlite/ and postgres/ migration sets")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	sourceURL, databaseURL, err := migrationURLs(cfg.DB, *dir)
	if err != nil {
		logger.Fatal("Cannot migrate storage backend", zap.String("type", string(cfg.DB.Type)), zap.Error(err))
	}

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		logger.Fatal("Failed to create migration instance", zap.Error(err))
	}
	defer m.Close()

	logger.Info("Running migration command", zap.String("command", *command), zap.String("source", sourceURL))

	switch *command {
	case "up":
		err = ignoreNoChange(m.Up())
	case "down":
		err = ignoreNoChange(m.Down())
	case "force":
		if *version < 0 {
			logger.Fatal("force requires -version")
		}
		err = m.Force(*version)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil {
			logger.Fatal("Failed to get version", zap.Error(verr))
		}
		logger.Info("Migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	default:
		logger.Fatal("Unknown command", zap.String("command", *command))
	}
	if err != nil {
		logger.Fatal("Migration failed", zap.String("command", *command), zap.Error(err))
	}

	logger.Info("Migration command completed successfully")
}

// migrationURLs returns the golang-migrate source and database URLs for cfg
func migrationURLs(cfg config.DBConfig, dir string) (string, string, error) {
	switch {
	case cfg.IsMemory():
		return "", "", errors.New("in-memory storage is migrated by the app on startup")
	case cfg.IsSQLite():
		return fmt.Sprintf("file://%s/sqlite", dir), "sqlite3://" + cfg.Path, nil
	case cfg.IsSQL():
		return fmt.Sprintf("file://%s/postgres", dir), cfg.DSN(), nil
	}
	return "", "", errors.New("backend has no schema")
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
