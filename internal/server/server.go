// Package server builds the HTTP API: services, handlers and routes on one
// gin engine.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"boekhouden/internal/config"
	"boekhouden/internal/handlers"
	"boekhouden/internal/middleware"
	"boekhouden/internal/services"
	"boekhouden/internal/validator"
)

// NewRouter wires the API on db and registry.
func NewRouter(cfg *config.Config, db *gorm.DB, registry *config.Registry) *gin.Engine {
	validator.Register()

	// Services
	auditService := services.NewAuditService(db)
	transactionService := services.NewTransactionService(db, registry, cfg.Books)
	categorizationService := services.NewCategorizationService(db, registry, cfg.Books)
	matchService := services.NewMatchService(db, cfg.Matching, cfg.Books)
	ruleService := services.NewRuleService(registry, cfg.Books)
	categoryService := services.NewCategoryService(registry)
	assetService := services.NewAssetService(db)
	reportService := services.NewReportService(db, registry, cfg.Books, cfg.Company)
	importService := services.NewImportService(db)

	// Handlers
	secret := []byte(cfg.JWT.Secret)
	authHandler := handlers.NewAuthHandler(cfg.Web.PasswordHash, secret, cfg.JWT.ExpiresIn)
	transactionHandler := handlers.NewTransactionHandler(transactionService, categorizationService, auditService)
	matchHandler := handlers.NewMatchHandler(matchService, auditService)
	ruleHandler := handlers.NewRuleHandler(ruleService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	assetHandler := handlers.NewAssetHandler(assetService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)
	importHandler := handlers.NewImportHandler(importService, auditService)

	router := gin.New()
	// Transaction ids contain a slash and arrive URL-encoded.
	router.UseRawPath = true
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.Web.CORSOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(secret))

	imports := protected.Group("/imports")
	imports.POST("", importHandler.ImportStatement)
	imports.GET("", importHandler.ListImports)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id/category", transactionHandler.AssignCategory)
	transactions.DELETE("/:id/category", transactionHandler.ClearCategory)
	protected.POST("/categorize", transactionHandler.Categorize)

	matches := protected.Group("/matches")
	matches.POST("/run", matchHandler.RunMatches)
	matches.GET("", matchHandler.ListMatches)
	matches.POST("", matchHandler.CreateMatch)
	matches.POST("/reject", matchHandler.RejectPair)
	matches.POST("/:id/accept", matchHandler.AcceptMatch)
	matches.POST("/:id/reject", matchHandler.RejectMatch)

	rules := protected.Group("/rules")
	rules.GET("", ruleHandler.ListRules)
	rules.POST("", ruleHandler.CreateRule)
	rules.POST("/test", ruleHandler.TestRule)
	rules.POST("/:id/disable", ruleHandler.DisableRule)

	categories := protected.Group("/categories")
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategory)

	assets := protected.Group("/assets")
	assets.GET("", assetHandler.ListAssets)
	assets.POST("", assetHandler.CreateAsset)
	assets.POST("/import", assetHandler.ImportAssets)
	assets.GET("/:id", assetHandler.GetAsset)
	assets.POST("/:id/dispose", assetHandler.DisposeAsset)

	reports := protected.Group("/reports")
	reports.GET("/:year", reportHandler.GetReport)
	reports.GET("/:year/excel", reportHandler.GetExcel)
	reports.GET("/:year/pdf", reportHandler.GetPDF)

	return router
}
