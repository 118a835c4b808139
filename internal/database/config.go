package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"boekhouden/internal/config"
)

// Driver names accepted in db.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// dialector returns the gorm dialector for the configured driver.
func dialector(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		// Foreign keys are off by default in sqlite.
		return sqlite.Open(fmt.Sprintf("file:%s?_foreign_keys=on", cfg.Path)), nil
	case DriverPostgres:
		return postgres.New(postgres.Config{
			DSN:                  cfg.PostgresDSN(),
			PreferSimpleProtocol: true,
		}), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
