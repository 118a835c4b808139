package main

import (
	"fmt"
	"os"
	"strconv"

	"boekhouden/internal/config"
	"boekhouden/internal/database"
	"boekhouden/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: migrate <up|down|version> [N]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	m, err := database.NewManager(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Get().Warnf("database close error: %v", err)
		}
	}()

	command := os.Args[1]

	switch command {
	case "up":
		if err := m.RunMigrations(); err != nil {
			return err
		}

	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil || steps < 1 {
				return fmt.Errorf("invalid step count: %q", os.Args[2])
			}
		}
		if err := m.RollbackMigrations(steps); err != nil {
			return err
		}
		logger.Get().Infof("Rolled back %d migration(s)", steps)

	case "version":
		version, dirty, err := m.MigrationVersion()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Get().Infof("Driver: %s, version: %d, dirty: %v", cfg.DB.Driver, version, dirty)

	default:
		return fmt.Errorf("unknown command: %s (use up, down, or version)", command)
	}

	return nil
}
