package main

import (
	"fmt"
	"net/http"
	"os"

	"moneta/internal/config"
	"moneta/internal/database"
	"moneta/internal/exchange"
	"moneta/internal/handlers"
	"moneta/internal/logger"
	"moneta/internal/middleware"
	"moneta/internal/services"
	"moneta/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "moneta/internal/docs" // Import swagger docs
)

// @title           Moneta API
// @version         1.0
// @description     Moneta is a personal finance ledger that aggregates accounts, categories, loans, and exchange rates into balances, statistics, and chart series.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

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

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize services. The loan service sits at the bottom of the
	// dependency order: it only needs the database and the rate resolver.
	db := dbManager.DB()
	rateService := services.NewRateService(db, appConfig.BaseCurrency)
	resolver := exchange.NewResolver(rateService, appConfig.BaseCurrency)
	loanService := services.NewLoanService(db, resolver, services.ProcessingHooks{
		OnStart: func() { log.Debug("loan reconciliation started") },
		OnEnd:   func() { log.Debug("loan reconciliation finished") },
	})
	accountService := services.NewAccountService(db, loanService)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, accountService, loanService)
	statsService := services.NewStatsService(db, resolver)

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	loanHandler := handlers.NewLoanHandler(loanService)
	rateHandler := handlers.NewRateHandler(rateService)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Account routes
	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/stats", statsHandler.GetAccountStats)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	// Category routes
	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	categories.GET("/:id/stats", statsHandler.GetCategoryStats)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.POST("/transfer", transactionHandler.CreateTransfer)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.POST("/:id/pay", transactionHandler.PayPlannedTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Loan routes
	loans := v1.Group("/loans")
	loans.POST("", loanHandler.CreateLoan)
	loans.GET("", loanHandler.GetLoans)
	loans.GET("/:id", loanHandler.GetLoanByID)
	loans.DELETE("/:id", loanHandler.DeleteLoan)
	loans.POST("/:id/records", loanHandler.CreateLoanRecord)
	loans.GET("/:id/records", loanHandler.GetLoanRecords)

	loanRecords := v1.Group("/loan-records")
	loanRecords.PUT("/:id", loanHandler.UpdateLoanRecord)
	loanRecords.DELETE("/:id", loanHandler.DeleteLoanRecord)

	// Exchange rate routes
	rates := v1.Group("/rates")
	rates.GET("", rateHandler.GetRates)
	rates.PUT("", rateHandler.UpsertRate)

	// Aggregation routes
	v1.GET("/stats", statsHandler.GetWalletStats)
	chartsGroup := v1.Group("/charts")
	chartsGroup.GET("/balance", statsHandler.GetBalanceChart)
	chartsGroup.GET("/income-expense", statsHandler.GetIncomeExpenseChart)
	chartsGroup.GET("/counts", statsHandler.GetIncomeExpenseCountChart)

	log.Infof("Starting Moneta server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
