package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestAccount creates an account reporting in the base currency.
func CreateTestAccount(t *testing.T, db *gorm.DB) *models.Account {
	t.Helper()

	account := &models.Account{
		Name: fmt.Sprintf("Test Account %d", nextID()),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestAccountWithCurrency creates an account with an explicit currency.
func CreateTestAccountWithCurrency(t *testing.T, db *gorm.DB, currency string) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		Currency: &currency,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()

	category := &models.Category{
		Name: fmt.Sprintf("Test Category %d", nextID()),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a settled transaction of the given type and
// amount, dated now.
func CreateTestTransaction(t *testing.T, db *gorm.DB, accountID string, txType models.TransactionType, amount decimal.Decimal) *models.Transaction {
	t.Helper()
	return CreateTestTransactionAt(t, db, accountID, txType, amount, time.Now())
}

// CreateTestTransactionAt creates a settled transaction with an explicit date.
func CreateTestTransactionAt(t *testing.T, db *gorm.DB, accountID string, txType models.TransactionType, amount decimal.Decimal, at time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		DateTime:  &at,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestLoan creates a loan of the given type and currency.
func CreateTestLoan(t *testing.T, db *gorm.DB, accountID *string, loanType models.LoanType, currency string) *models.Loan {
	t.Helper()

	loan := &models.Loan{
		Name:      fmt.Sprintf("Test Loan %d", nextID()),
		AccountID: accountID,
		Amount:    decimal.NewFromInt(1000),
		Type:      loanType,
		Currency:  currency,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}
	return loan
}

// CreateTestLoanRecord creates a loan record dated now.
func CreateTestLoanRecord(t *testing.T, db *gorm.DB, loanID string, accountID *string, amount decimal.Decimal) *models.LoanRecord {
	t.Helper()

	record := &models.LoanRecord{
		LoanID:    loanID,
		AccountID: accountID,
		Amount:    amount,
		DateTime:  time.Now(),
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test loan record: %v", err)
	}
	return record
}

// SetTestRate stores an exchange rate from base to currency.
func SetTestRate(t *testing.T, db *gorm.DB, base, currency string, rate decimal.Decimal) {
	t.Helper()

	row := &models.ExchangeRate{
		BaseCurrency: base,
		Currency:     currency,
		Rate:         rate,
		UpdatedAt:    time.Now(),
	}
	if err := db.Save(row).Error; err != nil {
		t.Fatalf("failed to set test rate: %v", err)
	}
}
