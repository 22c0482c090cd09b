package models

// Account represents a financial account in the system.
// Currency is nullable; a nil currency means the account reports in the
// configured base currency.
type Account struct {
	Base
	Name     string  `gorm:"not null" json:"name"`
	Currency *string `json:"currency,omitempty"`
	Color    string  `json:"color"`
	Icon     string  `json:"icon"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}

// CurrencyOrDefault returns the account's currency, falling back to the
// given base currency when none is set.
func (a *Account) CurrencyOrDefault(base string) string {
	if a.Currency == nil || *a.Currency == "" {
		return base
	}
	return *a.Currency
}
