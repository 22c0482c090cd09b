package models

import "github.com/shopspring/decimal"

// LoanType represents the direction of a loan.
type LoanType string

const (
	LoanTypeBorrow LoanType = "borrow"
	LoanTypeLend   LoanType = "lend"
)

// Loan represents borrowed or lent money. AccountID is the account funding or
// receiving the loan; when nil, Currency (or the base currency) anchors the
// loan's currency instead.
type Loan struct {
	Base
	Name      string          `gorm:"not null" json:"name"`
	AccountID *string         `gorm:"type:uuid" json:"account_id,omitempty"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Type      LoanType        `gorm:"not null" json:"type"`
	Currency  string          `json:"currency"`

	// Relationships
	Account *Account     `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Records []LoanRecord `gorm:"foreignKey:LoanID" json:"records,omitempty"`
}
