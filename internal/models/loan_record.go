package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanRecord represents one repayment (or interest charge) against a loan.
//
// ConvertedAmount caches the amount expressed in the loan's anchor currency
// and is non-nil exactly when the record's account currency differs from the
// loan's. It is re-priced at the current spot rate on every edit.
type LoanRecord struct {
	Base
	LoanID    string           `gorm:"type:uuid;not null;index" json:"loan_id"`
	AccountID *string          `gorm:"type:uuid" json:"account_id,omitempty"`
	Amount    decimal.Decimal  `gorm:"type:numeric;not null" json:"amount"`
	Note      string           `json:"note"`
	DateTime  time.Time        `gorm:"not null" json:"date_time"`
	Interest  bool             `gorm:"default:false" json:"interest"`
	IsSynced  bool             `gorm:"default:false" json:"is_synced"`

	ConvertedAmount *decimal.Decimal `gorm:"type:numeric" json:"converted_amount,omitempty"`

	// Relationships
	Loan    Loan     `gorm:"foreignKey:LoanID" json:"loan,omitempty"`
	Account *Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}
