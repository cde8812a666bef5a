// Package reference opens the compound reference store selected by
// configuration. Every backend starts out holding the built-in seed dataset.
package reference

import (
	"fmt"
	"strings"

	"phasecore/internal/infra/reference/memory"
	"phasecore/internal/infra/reference/postgres"
	"phasecore/internal/infra/reference/sqlite"
	"phasecore/pkg/domain"
)

// Driver names a reference backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvDriver      = "PHASECORE_REFERENCE_DRIVER"
	EnvSQLitePath  = "PHASECORE_SQLITE_PATH"
	EnvPostgresDSN = "PHASECORE_POSTGRES_DSN"
)

// Config selects a backend. Empty paths fall back to each backend's default.
type Config struct {
	Driver      Driver
	SQLitePath  string
	PostgresDSN string
}

// ConfigFromEnv reads reference settings through getenv; memory is the
// default driver.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		Driver:      Driver(strings.ToLower(strings.TrimSpace(getenv(EnvDriver)))),
		SQLitePath:  getenv(EnvSQLitePath),
		PostgresDSN: getenv(EnvPostgresDSN),
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverMemory
	}
	return cfg
}

// Open constructs the configured store. Callers own the returned store and
// must Close it.
func Open(cfg Config) (domain.ReferenceStore, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return memory.NewSeededStore()
	case DriverSQLite:
		return sqlite.NewStore(cfg.SQLitePath)
	case DriverPostgres:
		return postgres.NewStore(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown reference driver %q", cfg.Driver)
	}
}
