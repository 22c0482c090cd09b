package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/charts"
	"moneta/internal/ledger"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/timerange"
)

// AccountUpdateFields holds the optional fields for updating an account.
// Currency is a double pointer so callers can distinguish "unchanged" from
// "clear to base currency".
type AccountUpdateFields struct {
	Name     *string
	Currency **string
	Color    *string
	Icon     *string
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(name string, currency *string, color, icon string) (*models.Account, error)
	GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(accountID string) (*models.Account, error)
	UpdateAccount(accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(accountID string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(name, color, icon string) (*models.Category, error)
	GetCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(categoryID string) (*models.Category, error)
	UpdateCategory(categoryID string, name, color, icon *string) (*models.Category, error)
	DeleteCategory(categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	Planned    *bool
}

// TransactionUpdateFields holds the optional fields for updating a
// transaction. CategoryID is a double pointer so callers can distinguish
// "unchanged" from "clear the category".
type TransactionUpdateFields struct {
	AccountID  *string
	CategoryID **string
	Type       *models.TransactionType
	Amount     *decimal.Decimal
	Title      *string
	DateTime   *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(accountID string, categoryID *string, txType models.TransactionType, amount decimal.Decimal, title string, dateTime, dueDate *time.Time) (*models.Transaction, error)
	CreateTransfer(fromAccountID, toAccountID string, amount decimal.Decimal, toAmount *decimal.Decimal, title string, dateTime *time.Time) (*models.Transaction, error)
	GetTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(transactionID string) (*models.Transaction, error)
	UpdateTransaction(transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	PayPlannedTransaction(transactionID string, paidAt time.Time) (*models.Transaction, error)
	DeleteTransaction(transactionID string) error
}

// CreateLoanRecordData carries the input for creating a loan record.
// CreateTransaction controls whether a shadow transaction backs the record.
type CreateLoanRecordData struct {
	Amount            decimal.Decimal
	AccountID         *string
	DateTime          time.Time
	Note              string
	Interest          bool
	CreateTransaction bool
}

// LoanRecordUpdateFields holds the optional fields for updating a loan record.
type LoanRecordUpdateFields struct {
	Amount    *decimal.Decimal
	AccountID *string
	DateTime  *time.Time
	Note      *string
	Interest  *bool
}

// LoanReconciler is the narrow slice of the loan engine that other services
// depend on to keep loan records and their shadow transactions consistent.
type LoanReconciler interface {
	// WithTx returns a reconciler bound to the given database handle, so a
	// caller can reconcile inside its own transaction and keep the record
	// and shadow transaction as one atomic write.
	WithTx(tx *gorm.DB) LoanReconciler
	// ReconcileFromTransaction updates the loan record backing a directly
	// edited transaction; the transaction is the source of truth. A missing
	// loan or record is a benign no-op.
	ReconcileFromTransaction(txn *models.Transaction) error
	// RecalculateConvertedAmounts re-prices the converted amount of every
	// loan record affected by a change to the given account's currency.
	RecalculateConvertedAmounts(accountID string) error
}

// LoanServicer defines the contract for loan-related business logic,
// including the reconciliation engine that keeps loan records and their
// shadow transactions mutually consistent.
type LoanServicer interface {
	LoanReconciler

	CreateLoan(name string, accountID *string, amount decimal.Decimal, loanType models.LoanType, currency string) (*models.Loan, error)
	GetLoans(page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error)
	GetLoanByID(loanID string) (*models.Loan, error)
	DeleteLoan(loanID string) error

	CreateLoanRecord(loanID string, data CreateLoanRecordData) (*models.LoanRecord, error)
	GetLoanRecords(loanID string) ([]models.LoanRecord, error)
	UpdateLoanRecord(recordID string, fields LoanRecordUpdateFields) (*models.LoanRecord, error)
	DeleteLoanRecord(recordID string) error
}

// RateServicer defines the contract for exchange-rate storage. It doubles as
// the exchange.RateSource backing the resolver.
type RateServicer interface {
	GetRate(base, currency string) (decimal.Decimal, error)
	GetRates() ([]models.ExchangeRate, error)
	UpsertRate(currency string, rate decimal.Decimal) (*models.ExchangeRate, error)
}

// StatsServicer defines the contract for ledger aggregation queries: entity
// statistics and chart series. All wallet-wide values are expressed in the
// base currency.
type StatsServicer interface {
	AccountStats(ctx context.Context, accountID string, rng timerange.ClosedTimeRange) (*ledger.Stats, error)
	CategoryStats(ctx context.Context, categoryID string, rng timerange.ClosedTimeRange, accountIDs []string) (*ledger.Stats, error)
	WalletStats(ctx context.Context, rng timerange.ClosedTimeRange) (*ledger.Stats, error)

	BalanceChart(ctx context.Context, accountID *string, from, to time.Time, interval timerange.Interval) ([]charts.Point[decimal.Decimal], error)
	IncomeExpenseChart(ctx context.Context, accountID *string, from, to time.Time, interval timerange.Interval) ([]charts.Point[ledger.IncomeExpensePair], error)
	IncomeExpenseCountChart(ctx context.Context, accountID *string, from, to time.Time, interval timerange.Interval) ([]charts.Point[ledger.CountPair], error)

	CategoryIncomeExpenseChart(ctx context.Context, categoryID string, from, to time.Time, interval timerange.Interval) ([]charts.Point[ledger.IncomeExpensePair], error)
	CategoryIncomeExpenseCountChart(ctx context.Context, categoryID string, from, to time.Time, interval timerange.Interval) ([]charts.Point[ledger.CountPair], error)
}
