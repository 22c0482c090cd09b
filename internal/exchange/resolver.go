// Package exchange converts monetary amounts between currencies using rates
// anchored at a single base currency. A missing rate is always surfaced as
// RATE_UNAVAILABLE; conversion never silently falls back to 1:1, which would
// corrupt cross-currency balances.
package exchange

import (
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
)

// RateSource supplies the rate from the base currency to another currency:
// how many units of currency one unit of base buys. Implementations return
// ErrRateUnavailable when no rate is known.
type RateSource interface {
	GetRate(base, currency string) (decimal.Decimal, error)
}

// RateSourceFunc adapts a plain function to a RateSource.
type RateSourceFunc func(base, currency string) (decimal.Decimal, error)

// GetRate implements RateSource.
func (f RateSourceFunc) GetRate(base, currency string) (decimal.Decimal, error) {
	return f(base, currency)
}

// Resolver converts amounts between currencies through the base currency.
type Resolver struct {
	source RateSource
	base   string
}

// NewResolver creates a Resolver anchored at the given base currency.
func NewResolver(source RateSource, baseCurrency string) *Resolver {
	return &Resolver{source: source, base: baseCurrency}
}

// BaseCurrency returns the currency all cross-entity aggregates report in.
func (r *Resolver) BaseCurrency() string {
	return r.base
}

// Convert converts amount from one currency to another. Same-currency
// conversion is the identity and performs no lookup. When either side is the
// base currency a single rate lookup suffices; otherwise the cross-rate is
// composed through the base.
func (r *Resolver) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	if from == r.base {
		rate, err := r.lookup(to)
		if err != nil {
			return decimal.Zero, err
		}
		return amount.Mul(rate), nil
	}

	fromRate, err := r.lookup(from)
	if err != nil {
		return decimal.Zero, err
	}
	inBase := amount.Div(fromRate)

	if to == r.base {
		return inBase, nil
	}

	toRate, err := r.lookup(to)
	if err != nil {
		return decimal.Zero, err
	}
	return inBase.Mul(toRate), nil
}

// ToBase converts amount from the given currency into the base currency.
func (r *Resolver) ToBase(amount decimal.Decimal, from string) (decimal.Decimal, error) {
	return r.Convert(amount, from, r.base)
}

func (r *Resolver) lookup(currency string) (decimal.Decimal, error) {
	rate, err := r.source.GetRate(r.base, currency)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrRateUnavailable,
			"no usable rate for "+r.base+"/"+currency)
	}
	return rate, nil
}
