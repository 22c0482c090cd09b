package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/timerange"
)

// TransactionSource retrieves the transactions relevant to one argument
// (account or category) within a closed range. Implementations must exclude
// soft-deleted rows. The narrow one-method shape keeps the engine testable
// with in-memory fakes.
type TransactionSource interface {
	TransactionsBetween(ctx context.Context, argumentID string, from, to time.Time) ([]models.Transaction, error)
}

// SourceFunc adapts a plain function to a TransactionSource.
type SourceFunc func(ctx context.Context, argumentID string, from, to time.Time) ([]models.Transaction, error)

// TransactionsBetween implements TransactionSource.
func (f SourceFunc) TransactionsBetween(ctx context.Context, argumentID string, from, to time.Time) ([]models.Transaction, error) {
	return f(ctx, argumentID, from, to)
}

// CalculateValues evaluates the given value functions over the transactions
// relevant to argumentID within rng. The owned source fetches transactions the
// argument owns; the inbound source (nil for category arguments) fetches
// transfers whose destination is the argument. The two sets are disjoint by
// construction, so their union counts each transaction once.
//
// Every function sees the same fetched set, in one pass, and the result slice
// preserves the input order: len(result) == len(valueFunctions).
func CalculateValues(
	ctx context.Context,
	argumentID string,
	rng timerange.ClosedTimeRange,
	owned TransactionSource,
	inbound TransactionSource,
	valueFunctions ...ValueFunction,
) ([]decimal.Decimal, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	if len(valueFunctions) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one value function is required")
	}

	txns, err := owned.TransactionsBetween(ctx, argumentID, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	if inbound != nil {
		transfers, err := inbound.TransactionsBetween(ctx, argumentID, rng.From, rng.To)
		if err != nil {
			return nil, err
		}
		txns = append(txns, transfers...)
	}

	values := make([]decimal.Decimal, len(valueFunctions))
	for i, fn := range valueFunctions {
		values[i] = fn(argumentID, txns)
	}
	return values, nil
}

// Stats bundles the standard per-entity aggregates.
type Stats struct {
	Balance      decimal.Decimal `json:"balance"`
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	IncomeCount  int             `json:"income_count"`
	ExpenseCount int             `json:"expense_count"`
}

// IncomeExpensePair holds a non-negative income/expense total pair.
type IncomeExpensePair struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Add returns the element-wise sum of two pairs.
func (p IncomeExpensePair) Add(o IncomeExpensePair) IncomeExpensePair {
	return IncomeExpensePair{
		Income:  p.Income.Add(o.Income),
		Expense: p.Expense.Add(o.Expense),
	}
}

// CountPair holds income/expense transaction counts.
type CountPair struct {
	Income  int `json:"income"`
	Expense int `json:"expense"`
}

// Add returns the element-wise sum of two count pairs.
func (p CountPair) Add(o CountPair) CountPair {
	return CountPair{Income: p.Income + o.Income, Expense: p.Expense + o.Expense}
}

// CalculateAccountBalance computes one account's balance over rng.
func CalculateAccountBalance(
	ctx context.Context,
	accountID string,
	rng timerange.ClosedTimeRange,
	owned, inbound TransactionSource,
) (decimal.Decimal, error) {
	values, err := CalculateValues(ctx, accountID, rng, owned, inbound, AccountBalance)
	if err != nil {
		return decimal.Zero, err
	}
	return values[0], nil
}

// CalculateAccountStats computes balance, income, expense, and counts for one
// account in a single fetch.
func CalculateAccountStats(
	ctx context.Context,
	accountID string,
	rng timerange.ClosedTimeRange,
	owned, inbound TransactionSource,
) (*Stats, error) {
	values, err := CalculateValues(ctx, accountID, rng, owned, inbound,
		AccountBalance,
		AccountIncome,
		AccountExpense,
		AccountIncomeCount,
		AccountExpenseCount,
	)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Balance:      values[0],
		Income:       values[1],
		Expense:      values[2],
		IncomeCount:  int(values[3].IntPart()),
		ExpenseCount: int(values[4].IntPart()),
	}, nil
}

// CalculateAccountIncomeExpense computes the income/expense pair for one account.
func CalculateAccountIncomeExpense(
	ctx context.Context,
	accountID string,
	rng timerange.ClosedTimeRange,
	owned, inbound TransactionSource,
) (IncomeExpensePair, error) {
	values, err := CalculateValues(ctx, accountID, rng, owned, inbound, AccountIncome, AccountExpense)
	if err != nil {
		return IncomeExpensePair{}, err
	}
	return IncomeExpensePair{Income: values[0], Expense: values[1]}, nil
}

// CalculateCategoryStats computes the standard aggregates for one category.
// The same aggregation engine serves categories; only the retrieval pairing
// differs, so inbound is nil.
func CalculateCategoryStats(
	ctx context.Context,
	categoryID string,
	rng timerange.ClosedTimeRange,
	owned TransactionSource,
) (*Stats, error) {
	values, err := CalculateValues(ctx, categoryID, rng, owned, nil,
		CategoryBalance,
		CategoryIncome,
		CategoryExpense,
		CategoryIncomeCount,
		CategoryExpenseCount,
	)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Balance:      values[0],
		Income:       values[1],
		Expense:      values[2],
		IncomeCount:  int(values[3].IntPart()),
		ExpenseCount: int(values[4].IntPart()),
	}, nil
}
