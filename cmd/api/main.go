package main

import (
	"fmt"
	"os"

	"boekhouden/internal/config"
	"boekhouden/internal/database"
	"boekhouden/internal/logger"
	"boekhouden/internal/server"

	_ "boekhouden/internal/docs" // Import swagger docs
)

// @title           Boekhouden API
// @version         1.0
// @description     Bookkeeping for a Belgian self-employed practice: bank statement import, rule-based categorization, reconciliation of private expenses, depreciation and the yearly P&L.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Web.PasswordHash == "" {
		log.Warn("WEB_PASSWORD_HASH is not set, login is disabled (see `boekhouden hash-password`)")
	}

	// Categories, rules and accounts
	registry, err := config.LoadRegistry(appConfig.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	dbManager, err := database.NewManager(appConfig.DB)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	router := server.NewRouter(appConfig, dbManager.DB(), registry)

	log.Infof("Starting boekhouden API on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
