package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// rateService stores exchange rates against a fixed base currency. It
// implements both RateServicer and exchange.RateSource, so the resolver can
// read rates straight out of the store.
type rateService struct {
	db   *gorm.DB
	base string
}

// NewRateService creates a new RateServicer for the given base currency.
func NewRateService(db *gorm.DB, baseCurrency string) RateServicer {
	return &rateService{db: db, base: strings.ToUpper(baseCurrency)}
}

// GetRate returns the stored rate from base to currency. Base-to-base is
// always 1. A missing or non-positive rate is unavailable, never zero.
func (s *rateService) GetRate(base, currency string) (decimal.Decimal, error) {
	base = strings.ToUpper(base)
	currency = strings.ToUpper(currency)
	if base == currency {
		return decimal.NewFromInt(1), nil
	}

	var rate models.ExchangeRate
	err := s.db.Where("base_currency = ? AND currency = ?", base, currency).
		First(&rate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrRateUnavailable, "no rate for "+base+" to "+currency)
	}
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if rate.Rate.Sign() <= 0 {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrRateUnavailable, "stored rate for "+currency+" is not positive")
	}
	return rate.Rate, nil
}

// GetRates returns all stored rates for the base currency.
func (s *rateService) GetRates() ([]models.ExchangeRate, error) {
	var rates []models.ExchangeRate
	if err := s.db.Where("base_currency = ?", s.base).
		Order("currency ASC").
		Find(&rates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rates, nil
}

// UpsertRate stores or overwrites the rate from the base currency to the
// given currency.
func (s *rateService) UpsertRate(currency string, rate decimal.Decimal) (*models.ExchangeRate, error) {
	currency = strings.ToUpper(currency)
	if currency == s.base {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot set a rate for the base currency itself")
	}
	if rate.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rate must be greater than zero")
	}

	row := &models.ExchangeRate{
		BaseCurrency: s.base,
		Currency:     currency,
		Rate:         rate,
		UpdatedAt:    time.Now(),
	}
	if err := s.db.Save(row).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return row, nil
}
