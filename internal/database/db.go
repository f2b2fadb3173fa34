package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Config describes the report store connection. Driver selects the backend;
// DSN, when set, bypasses the per-driver builders entirely.
type Config struct {
	Driver string
	Path   string // sqlite file path, empty or ":memory:" for in-memory
	DSN    string

	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Options  map[string]string
}

type driverOpener func(Config) (*gorm.DB, error)

var openers = map[string]driverOpener{
	"sqlite":   openSQLite,
	"postgres": openPostgres,
	"mysql":    openMySQL,
}

// Open connects to the configured backend. An empty driver means sqlite,
// which keeps single-binary deployments working with zero configuration.
func Open(cfg Config) (*gorm.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	open, ok := openers[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return open(cfg)
}

// AutoMigrateAndSeed prepares a fresh or upgraded store for serving:
// schema first, then the bootstrap rows reviews depend on.
func AutoMigrateAndSeed(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := SeedData(db); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}
	return nil
}
