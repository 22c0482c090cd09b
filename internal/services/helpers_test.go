package services

import (
	"testing"

	"gorm.io/gorm"

	"moneta/internal/exchange"
	"moneta/internal/pagination"
	"moneta/internal/testutil"
)

func page(n int) pagination.PageRequest {
	return pagination.PageRequest{Page: n, PageSize: 50}
}

// testServices wires the full service graph over one in-memory database with
// USD as the base currency.
type testServices struct {
	db         *gorm.DB
	rates      RateServicer
	resolver   *exchange.Resolver
	loans      LoanServicer
	accounts   AccountServicer
	categories CategoryServicer
	txns       TransactionServicer
	stats      StatsServicer
}

func setupServices(t *testing.T) *testServices {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	rates := NewRateService(db, "USD")
	resolver := exchange.NewResolver(rates, "USD")
	loans := NewLoanService(db, resolver, ProcessingHooks{})
	accounts := NewAccountService(db, loans)
	categories := NewCategoryService(db)
	txns := NewTransactionService(db, accounts, loans)
	stats := NewStatsService(db, resolver)

	return &testServices{
		db:         db,
		rates:      rates,
		resolver:   resolver,
		loans:      loans,
		accounts:   accounts,
		categories: categories,
		txns:       txns,
		stats:      stats,
	}
}
