// Package database opens the gorm connection and applies the embedded
// schema migrations.
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"boekhouden/internal/config"
	"boekhouden/internal/logger"
	"boekhouden/migrations"
)

// Manager handles database operations
type Manager struct {
	db     *gorm.DB
	driver string
}

// NewManager connects to the configured database.
func NewManager(cfg config.DBConfig) (*Manager, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if cfg.Driver == DriverPostgres {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	} else {
		// A single writer avoids "database is locked" on the local file.
		sqlDB.SetMaxOpenConns(1)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	return &Manager{db: db, driver: driver}, nil
}

// NewManagerWithDB wraps an already opened connection.
func NewManagerWithDB(db *gorm.DB, driver string) *Manager {
	return &Manager{db: db, driver: driver}
}

// RunMigrations applies pending SQL migrations for the configured driver.
func (m *Manager) RunMigrations() error {
	logger.Get().Info("Running database migrations...")

	mig, src, err := m.migrator()
	if err != nil {
		return err
	}
	defer closeSource(src)

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// RollbackMigrations reverts the given number of migrations.
func (m *Manager) RollbackMigrations(steps int) error {
	mig, src, err := m.migrator()
	if err != nil {
		return err
	}
	defer closeSource(src)

	if err := mig.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

// MigrationVersion returns the applied schema version.
func (m *Manager) MigrationVersion() (uint, bool, error) {
	mig, src, err := m.migrator()
	if err != nil {
		return 0, false, err
	}
	defer closeSource(src)

	version, dirty, err := mig.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// migrator shares the gorm connection with golang-migrate. The database
// driver is not closed here since that would close the gorm pool too.
func (m *Manager) migrator() (*migrate.Migrate, source.Driver, error) {
	sqlDB, err := m.db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	var (
		instance migratedb.Driver
		dir      string
	)
	switch m.driver {
	case DriverPostgres:
		instance, err = postgres.WithInstance(sqlDB, &postgres.Config{})
		dir = "postgres"
	default:
		instance, err = sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
		dir = "sqlite"
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migrate driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open migrations: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", src, m.driver, instance)
	if err != nil {
		closeSource(src)
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mig, src, nil
}

func closeSource(src source.Driver) {
	if src == nil {
		return
	}
	if err := src.Close(); err != nil {
		logger.Get().Warnf("migrate source close error: %v", err)
	}
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close closes the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
