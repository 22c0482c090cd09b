package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"moneta/internal/charts"
	apperrors "moneta/internal/errors"
	"moneta/internal/exchange"
	"moneta/internal/ledger"
	"moneta/internal/models"
	"moneta/internal/timerange"
)

// statsService answers aggregation queries by feeding gorm-backed transaction
// sources into the ledger engine. Cross-account figures are converted into
// the base currency through the resolver.
type statsService struct {
	db       *gorm.DB
	resolver *exchange.Resolver
}

// NewStatsService creates a new StatsServicer.
func NewStatsService(db *gorm.DB, resolver *exchange.Resolver) StatsServicer {
	return &statsService{db: db, resolver: resolver}
}

// ownedSource fetches settled transactions owned by an account. Planned
// payments have a null date_time and never match the range predicate.
func (s *statsService) ownedSource() ledger.TransactionSource {
	return ledger.SourceFunc(func(ctx context.Context, accountID string, from, to time.Time) ([]models.Transaction, error) {
		var txns []models.Transaction
		err := s.db.WithContext(ctx).
			Where("account_id = ?", accountID).
			Where("date_time BETWEEN ? AND ?", from, to).
			Find(&txns).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return txns, nil
	})
}

// inboundSource fetches settled transfers arriving at an account.
func (s *statsService) inboundSource() ledger.TransactionSource {
	return ledger.SourceFunc(func(ctx context.Context, accountID string, from, to time.Time) ([]models.Transaction, error) {
		var txns []models.Transaction
		err := s.db.WithContext(ctx).
			Where("to_account_id = ? AND type = ?", accountID, models.TransactionTypeTransfer).
			Where("date_time BETWEEN ? AND ?", from, to).
			Find(&txns).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return txns, nil
	})
}

// categorySource fetches settled transactions in a category, optionally
// restricted to a set of accounts. An empty categoryID selects the
// uncategorized bucket.
func (s *statsService) categorySource(accountIDs []string) ledger.TransactionSource {
	return ledger.SourceFunc(func(ctx context.Context, categoryID string, from, to time.Time) ([]models.Transaction, error) {
		q := s.db.WithContext(ctx).
			Where("date_time BETWEEN ? AND ?", from, to)
		if categoryID == "" {
			q = q.Where("category_id IS NULL")
		} else {
			q = q.Where("category_id = ?", categoryID)
		}
		if len(accountIDs) > 0 {
			q = q.Where("account_id IN ?", accountIDs)
		}

		var txns []models.Transaction
		if err := q.Find(&txns).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return txns, nil
	})
}

// ensureAccountExists checks the account row is present without computing
// any aggregates.
func (s *statsService) ensureAccountExists(ctx context.Context, accountID string) error {
	var account models.Account
	if err := s.db.WithContext(ctx).Select("id").Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *statsService) ensureCategoryExists(ctx context.Context, categoryID string) error {
	var category models.Category
	if err := s.db.WithContext(ctx).Select("id").Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AccountStats computes balance, income, expense, and counts for one account
// over the range, in the account's own currency.
func (s *statsService) AccountStats(ctx context.Context, accountID string, rng timerange.ClosedTimeRange) (*ledger.Stats, error) {
	if err := s.ensureAccountExists(ctx, accountID); err != nil {
		return nil, err
	}
	return ledger.CalculateAccountStats(ctx, accountID, rng, s.ownedSource(), s.inboundSource())
}

// CategoryStats computes the standard aggregates for one category. An empty
// categoryID selects the uncategorized bucket; accountIDs, when non-empty,
// restrict the query to those accounts.
func (s *statsService) CategoryStats(ctx context.Context, categoryID string, rng timerange.ClosedTimeRange, accountIDs []string) (*ledger.Stats, error) {
	if categoryID != "" {
		if err := s.ensureCategoryExists(ctx, categoryID); err != nil {
			return nil, err
		}
	}
	return ledger.CalculateCategoryStats(ctx, categoryID, rng, s.categorySource(accountIDs))
}

// WalletStats sums the per-account statistics across every account, each
// converted into the base currency.
func (s *statsService) WalletStats(ctx context.Context, rng timerange.ClosedTimeRange) (*ledger.Stats, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	accounts, err := s.allAccounts(ctx)
	if err != nil {
		return nil, err
	}

	total := &ledger.Stats{
		Balance: decimal.Zero,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	for _, account := range accounts {
		stats, err := ledger.CalculateAccountStats(ctx, account.ID, rng, s.ownedSource(), s.inboundSource())
		if err != nil {
			return nil, err
		}

		currency := account.CurrencyOrDefault(s.resolver.BaseCurrency())
		balance, err := s.resolver.ToBase(stats.Balance, currency)
		if err != nil {
			return nil, err
		}
		income, err := s.resolver.ToBase(stats.Income, currency)
		if err != nil {
			return nil, err
		}
		expense, err := s.resolver.ToBase(stats.Expense, currency)
		if err != nil {
			return nil, err
		}

		total.Balance = total.Balance.Add(balance)
		total.Income = total.Income.Add(income)
		total.Expense = total.Expense.Add(expense)
		total.IncomeCount += stats.IncomeCount
		total.ExpenseCount += stats.ExpenseCount
	}
	return total, nil
}

// BalanceChart produces the cumulative balance series over [from, to] at the
// given interval. With an accountID the series is in that account's currency;
// without one it spans the whole wallet in the base currency.
func (s *statsService) BalanceChart(ctx context.Context, accountID *string, from, to time.Time, interval timerange.Interval) ([]charts.Point[decimal.Decimal], error) {
	ranges, err := s.partition(from, to, interval)
	if err != nil {
		return nil, err
	}

	if accountID != nil {
		if err := s.ensureAccountExists(ctx, *accountID); err != nil {
			return nil, err
		}
		return charts.BalanceChart(ctx, ranges, func(ctx context.Context, rng timerange.ClosedTimeRange) (decimal.Decimal, error) {
			return ledger.CalculateAccountBalance(ctx, *accountID, rng, s.ownedSource(), s.inboundSource())
		})
	}

	accounts, err := s.allAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return charts.BalanceChart(ctx, ranges, func(ctx context.Context, rng timerange.ClosedTimeRange) (decimal.Decimal, error) {
		return s.walletBalance(ctx, accounts, rng)
	})
}

// IncomeExpenseChart produces per-bucket income/expense totals.
func (s *statsService) IncomeExpenseChart(ctx context.Context, accountID *string, from, to time.Time, interval timerange.Interval) ([]charts.Point[ledger.IncomeExpensePair], error) {
	ranges, err := s.partition(from, to, interval)
	if err != nil {
		return nil, err
	}

	if accountID != nil {
		if err := s.ensureAccountExists(ctx, *accountID); err != nil {
			return nil, err
		}
		return charts.PerBucketChart(ctx, ranges, func(ctx context.Context, rng timerange.ClosedTimeRange) (ledger.IncomeExpensePair, error) {
			return ledger.CalculateAccountIncomeExpense(ctx, *accountID, rng, s.ownedSource(), s.inboundSource())
		})
	}

	accounts, err := s.allAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return charts.PerBucketChart(ctx, ranges, func(ctx context.Context, rng timerange.ClosedTimeRange) (ledger.IncomeExpensePair, error) {
		total := ledger.IncomeExpensePair{Income: decimal.Zero, Expense: decimal.Zero}
		for _, account := range accounts {
			pair, err := ledger.CalculateAccountIncomeExpense(ctx, account.ID, rng, s.ownedSource(), s.inboundSource())
			if err != nil {
				return ledger.IncomeExpensePair{}, err
			}
			currency := account.CurrencyOrDefault(s.resolver.BaseCurrency())
			income, err := s.resolver.ToBase(pair.Income, currency)
			if err != nil {
				return ledger.IncomeExpensePair{}, err
			}
			expense, err := s.resolver.ToBase(pair.Expense, currency)
			if err != nil {
				return ledger.IncomeExpensePair{}, err
			}
			total = total.Add(ledger.IncomeExpensePair{Income: income, Expense: expense})
		}
		return total, nil
	})
}

// IncomeExpenseCountChart produces per-bucket transaction counts. Counts are
// currency-independent, so no conversion is involved.
func (s *statsService) IncomeExpenseCountChart(ctx context.Context, accountID *string, from, to time.Time, interval timerange.Interval) ([]charts.Point[ledger.CountPair], error) {
	ranges, err := s.partition(from, to, interval)
	if err != nil {
		return nil, err
	}

	countPair := func(ctx context.Context, id string, rng timerange.ClosedTimeRange) (ledger.CountPair, error) {
		values, err := ledger.CalculateValues(ctx, id, rng, s.ownedSource(), s.inboundSource(),
			ledger.AccountIncomeCount, ledger.AccountExpenseCount)
		if err != nil {
			return ledger.CountPair{}, err
		}
		return ledger.CountPair{
			Income:  int(values[0].IntPart()),
			Expense: int(values[1].IntPart()),
		}, nil
	}

	if accountID != nil {
		if err := s.ensureAccountExists(ctx, *accountID); err != nil {
			return nil, err
		}
		return charts.PerBucketChart(ctx, ranges, func(ctx context.Context, rng timerange.ClosedTimeRange) (ledger.CountPair, error) {
			return countPair(ctx, *accountID, rng)
		})
	}

	accounts, err := s.allAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return charts.PerBucketChart(ctx, ranges, func(ctx context.Context, rng timerange.ClosedTimeRange) (ledger.CountPair, error) {
		total := ledger.CountPair{}
		for _, account := range accounts {
			pair, err := countPair(ctx, account.ID, rng)
			if err != nil {
				return ledger.CountPair{}, err
			}
			total = total.Add(pair)
		}
		return total, nil
	})
}

// CategoryIncomeExpenseChart produces per-bucket income/expense totals for
// one category. An empty categoryID selects the uncategorized bucket. Values
// are raw sums: category amounts are not currency-converted.
func (s *statsService) CategoryIncomeExpenseChart(ctx context.Context, categoryID string, from, to time.Time, interval timerange.Interval) ([]charts.Point[ledger.IncomeExpensePair], error) {
	ranges, err := s.partition(from, to, interval)
	if err != nil {
		return nil, err
	}
	if categoryID != "" {
		if err := s.ensureCategoryExists(ctx, categoryID); err != nil {
			return nil, err
		}
	}

	source := s.categorySource(nil)
	return charts.PerBucketChart(ctx, ranges, func(ctx context.Context, rng timerange.ClosedTimeRange) (ledger.IncomeExpensePair, error) {
		values, err := ledger.CalculateValues(ctx, categoryID, rng, source, nil,
			ledger.CategoryIncome, ledger.CategoryExpense)
		if err != nil {
			return ledger.IncomeExpensePair{}, err
		}
		return ledger.IncomeExpensePair{Income: values[0], Expense: values[1]}, nil
	})
}

// CategoryIncomeExpenseCountChart produces per-bucket transaction counts for
// one category.
func (s *statsService) CategoryIncomeExpenseCountChart(ctx context.Context, categoryID string, from, to time.Time, interval timerange.Interval) ([]charts.Point[ledger.CountPair], error) {
	ranges, err := s.partition(from, to, interval)
	if err != nil {
		return nil, err
	}
	if categoryID != "" {
		if err := s.ensureCategoryExists(ctx, categoryID); err != nil {
			return nil, err
		}
	}

	source := s.categorySource(nil)
	return charts.PerBucketChart(ctx, ranges, func(ctx context.Context, rng timerange.ClosedTimeRange) (ledger.CountPair, error) {
		values, err := ledger.CalculateValues(ctx, categoryID, rng, source, nil,
			ledger.CategoryIncomeCount, ledger.CategoryExpenseCount)
		if err != nil {
			return ledger.CountPair{}, err
		}
		return ledger.CountPair{
			Income:  int(values[0].IntPart()),
			Expense: int(values[1].IntPart()),
		}, nil
	})
}

func (s *statsService) partition(from, to time.Time, interval timerange.Interval) ([]timerange.ClosedTimeRange, error) {
	return timerange.Partition(from, to, interval)
}

func (s *statsService) allAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// walletBalance sums every account's balance over rng, converted to base.
func (s *statsService) walletBalance(ctx context.Context, accounts []models.Account, rng timerange.ClosedTimeRange) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, account := range accounts {
		balance, err := ledger.CalculateAccountBalance(ctx, account.ID, rng, s.ownedSource(), s.inboundSource())
		if err != nil {
			return decimal.Zero, err
		}
		converted, err := s.resolver.ToBase(balance, account.CurrencyOrDefault(s.resolver.BaseCurrency()))
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(converted)
	}
	return total, nil
}
