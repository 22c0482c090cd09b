package integration

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"moneta/internal/exchange"
	"moneta/internal/handlers"
	"moneta/internal/logger"
	"moneta/internal/middleware"
	"moneta/internal/models"
	"moneta/internal/services"
	"moneta/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:moneta_integration_%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.Account{},
		&models.Category{},
		&models.Transaction{},
		&models.Loan{},
		&models.LoanRecord{},
		&models.ExchangeRate{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite, with USD as the base currency.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	rateService := services.NewRateService(db, "USD")
	resolver := exchange.NewResolver(rateService, "USD")
	loanService := services.NewLoanService(db, resolver, services.ProcessingHooks{})
	accountService := services.NewAccountService(db, loanService)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, accountService, loanService)
	statsService := services.NewStatsService(db, resolver)

	// Handlers
	accountHandler := handlers.NewAccountHandler(accountService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	loanHandler := handlers.NewLoanHandler(loanService)
	rateHandler := handlers.NewRateHandler(rateService)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetAccounts)
	accounts.GET("/:id", accountHandler.GetAccountByID)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/stats", statsHandler.GetAccountStats)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)
	categories.GET("/:id/stats", statsHandler.GetCategoryStats)

	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.POST("/transfer", transactionHandler.CreateTransfer)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.POST("/:id/pay", transactionHandler.PayPlannedTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

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

	rates := v1.Group("/rates")
	rates.GET("", rateHandler.GetRates)
	rates.PUT("", rateHandler.UpsertRate)

	v1.GET("/stats", statsHandler.GetWalletStats)

	charts := v1.Group("/charts")
	charts.GET("/balance", statsHandler.GetBalanceChart)
	charts.GET("/income-expense", statsHandler.GetIncomeExpenseChart)
	charts.GET("/counts", statsHandler.GetIncomeExpenseCountChart)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// createAccount creates an account through the API and returns its ID.
// An empty currency leaves the account reporting in the base currency.
func (app *testApp) createAccount(t *testing.T, name, currency string) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q}`, name)
	if currency != "" {
		body = fmt.Sprintf(`{"name":%q,"currency":%q}`, name, currency)
	}
	rec := app.request("POST", "/api/v1/accounts", body)
	if rec.Code != 201 {
		t.Fatalf("create account failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["account"].(map[string]interface{})["id"].(string)
}

// setRate stores an exchange rate from the base currency through the API.
func (app *testApp) setRate(t *testing.T, currency, rate string) {
	t.Helper()
	rec := app.request("PUT", "/api/v1/rates", fmt.Sprintf(`{"currency":%q,"rate":%q}`, currency, rate))
	if rec.Code != 200 {
		t.Fatalf("set rate failed: %d %s", rec.Code, rec.Body.String())
	}
}
