package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate stores how many units of Currency one unit of BaseCurrency
// buys. All rates are anchored at the configured base currency; cross-rates
// are composed through it.
type ExchangeRate struct {
	BaseCurrency string          `gorm:"primaryKey" json:"base_currency"`
	Currency     string          `gorm:"primaryKey" json:"currency"`
	Rate         decimal.Decimal `gorm:"type:numeric;not null" json:"rate"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
