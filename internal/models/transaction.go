package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction represents a financial transaction in the system.
// Amount is expressed in the source account's currency; ToAmount carries the
// destination-currency amount for cross-currency transfers.
//
// A live transaction has exactly one of DateTime (settled) or DueDate
// (planned) set; once a planned payment is paid, both may be set.
type Transaction struct {
	Base
	AccountID  string           `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID *string          `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type       TransactionType  `gorm:"not null" json:"type"`
	Amount     decimal.Decimal  `gorm:"type:numeric;not null" json:"amount"`
	Title      string           `json:"title"`
	DateTime   *time.Time       `gorm:"index" json:"date_time,omitempty"`
	DueDate    *time.Time       `json:"due_date,omitempty"`
	IsSynced   bool             `gorm:"default:false" json:"is_synced"`

	// For transfers
	ToAccountID *string          `gorm:"type:uuid;index" json:"to_account_id,omitempty"`
	ToAmount    *decimal.Decimal `gorm:"type:numeric" json:"to_amount,omitempty"`

	// For loan shadow transactions
	LoanID       *string `gorm:"type:uuid" json:"loan_id,omitempty"`
	LoanRecordID *string `gorm:"type:uuid;index" json:"loan_record_id,omitempty"`

	// Relationships
	Account   Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	ToAccount *Account  `gorm:"foreignKey:ToAccountID" json:"to_account,omitempty"`
	Category  *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Settled reports whether the transaction has happened (DateTime set).
func (t *Transaction) Settled() bool {
	return t.DateTime != nil
}

// Planned reports whether the transaction is a planned payment that has not
// been settled yet.
func (t *Transaction) Planned() bool {
	return t.DueDate != nil && t.DateTime == nil
}

// ReceivedAmount returns the amount credited to the destination account of a
// transfer: ToAmount when set (cross-currency), otherwise Amount.
func (t *Transaction) ReceivedAmount() decimal.Decimal {
	if t.ToAmount != nil {
		return *t.ToAmount
	}
	return t.Amount
}
