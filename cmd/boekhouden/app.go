package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"boekhouden/internal/config"
	"boekhouden/internal/database"
	"boekhouden/internal/logger"
	"boekhouden/internal/rules"
	"boekhouden/internal/services"
)

// Command annotations that trim setup.
const (
	skipDB        = "skip-db"
	skipConfig    = "skip-config"
	skipRuleCheck = "skip-rule-check"
)

const cliActor = "cli"

// app is the state shared by all commands. Setup runs once per
// invocation, before the command itself.
type app struct {
	configDir string
	year      int

	cfg      *config.Config
	registry *config.Registry
	dbm      *database.Manager

	transactions   services.TransactionServicer
	categorization services.CategorizationServicer
	matches        services.MatchServicer
	rules          services.RuleServicer
	categories     services.CategoryServicer
	assets         services.AssetServicer
	reports        services.ReportServicer
	imports        services.ImportServicer
	audit          services.AuditServicer
}

func (a *app) setup(cmd *cobra.Command) error {
	if _, ok := cmd.Annotations[skipConfig]; ok || cmd.Name() == "help" {
		return nil
	}

	cfg, err := config.LoadDir(a.configDir)
	if err != nil {
		return err
	}
	registry, err := config.LoadRegistry(cfg.ConfigDir)
	if err != nil {
		return err
	}
	// A broken rules.yaml stops every command before data is touched,
	// except the ones needed to inspect and repair it.
	if _, ok := cmd.Annotations[skipRuleCheck]; !ok {
		if _, err := rules.NewRuleSet(registry.CurrentRules(), registry.Categories, cfg.Books.RevenueCategory); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
	}

	a.cfg = cfg
	a.registry = registry
	a.rules = services.NewRuleService(registry, cfg.Books)
	a.categories = services.NewCategoryService(registry)

	if _, ok := cmd.Annotations[skipDB]; ok {
		return nil
	}

	dbm, err := database.NewManager(cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := dbm.RunMigrations(); err != nil {
		_ = dbm.Close()
		return err
	}
	a.dbm = dbm

	db := dbm.DB()
	a.audit = services.NewAuditService(db)
	a.transactions = services.NewTransactionService(db, registry, cfg.Books)
	a.categorization = services.NewCategorizationService(db, registry, cfg.Books)
	a.matches = services.NewMatchService(db, cfg.Matching, cfg.Books)
	a.assets = services.NewAssetService(db)
	a.reports = services.NewReportService(db, registry, cfg.Books, cfg.Company)
	a.imports = services.NewImportService(db)
	return nil
}

func (a *app) close() {
	if a.dbm == nil {
		return
	}
	if err := a.dbm.Close(); err != nil {
		logger.Get().Warnw("database close error", "error", err)
	}
	a.dbm = nil
}

// fiscalYear is --year, or the configured year when the flag is absent.
func (a *app) fiscalYear() int {
	if a.year != 0 {
		return a.year
	}
	return a.cfg.Company.FiscalYear
}

// record writes an audit entry for a command that changed data.
func (a *app) record(action, resourceType, resourceID string, changes map[string]interface{}) {
	if a.audit == nil {
		return
	}
	a.audit.Log(cliActor, action, resourceType, resourceID, "", changes)
}
