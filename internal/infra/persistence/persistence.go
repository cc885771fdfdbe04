// Package persistence selects a snapshot archive backend from environment
// configuration.
package persistence

import (
	"fmt"
	"os"
	"strings"

	"euclidcore/internal/infra/persistence/memory"
	"euclidcore/internal/infra/persistence/postgres"
	"euclidcore/internal/infra/persistence/sqlite"
	"euclidcore/pkg/domain"
)

// Environment variables consumed by OpenFromEnv.
const (
	EnvDriver      = "EUCLIDCORE_STORAGE_DRIVER"
	EnvSQLitePath  = "EUCLIDCORE_SQLITE_PATH"
	EnvPostgresDSN = "EUCLIDCORE_POSTGRES_DSN"
)

// Supported driver names.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenFromEnv opens the archive named by EUCLIDCORE_STORAGE_DRIVER. An unset
// driver defaults to sqlite so sessions survive restarts out of the box. The
// returned closer is a no-op for the memory driver.
func OpenFromEnv() (domain.SpaceArchive, func() error, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv(EnvDriver)))
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return memory.NewStore(), func() error { return nil }, nil
	case DriverSQLite:
		store, err := sqlite.NewStore(os.Getenv(EnvSQLitePath))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case DriverPostgres:
		store, err := postgres.NewStore(os.Getenv(EnvPostgresDSN))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}
