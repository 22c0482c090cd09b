// Package ledger folds sets of transactions into scalar values: balances,
// income/expense totals and counts, for one account or one category within a
// closed time range.
package ledger

import (
	"github.com/shopspring/decimal"

	"moneta/internal/models"
)

// ValueFunction reduces a transaction set to a single decimal for the given
// argument (an account or category ID). Value functions are pure and total:
// they never fail and an empty set always yields zero. Counts are returned as
// decimals for uniform typing.
type ValueFunction func(argumentID string, txns []models.Transaction) decimal.Decimal

// AccountBalance is the signed sum for an account: income and incoming
// transfers add, expenses and outgoing transfers subtract. The receiving leg
// of a cross-currency transfer uses ToAmount when present.
func AccountBalance(accountID string, txns []models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for i := range txns {
		t := &txns[i]
		switch t.Type {
		case models.TransactionTypeIncome:
			sum = sum.Add(t.Amount)
		case models.TransactionTypeExpense:
			sum = sum.Sub(t.Amount)
		case models.TransactionTypeTransfer:
			if t.ToAccountID != nil && *t.ToAccountID == accountID {
				sum = sum.Add(t.ReceivedAmount())
			} else {
				sum = sum.Sub(t.Amount)
			}
		}
	}
	return sum
}

// AccountIncome sums income transactions only; transfers are excluded.
func AccountIncome(_ string, txns []models.Transaction) decimal.Decimal {
	return sumOfType(txns, models.TransactionTypeIncome)
}

// AccountExpense sums expense transactions only; transfers are excluded.
func AccountExpense(_ string, txns []models.Transaction) decimal.Decimal {
	return sumOfType(txns, models.TransactionTypeExpense)
}

// AccountIncomeCount counts income transactions.
func AccountIncomeCount(_ string, txns []models.Transaction) decimal.Decimal {
	return countOfType(txns, models.TransactionTypeIncome)
}

// AccountExpenseCount counts expense transactions.
func AccountExpenseCount(_ string, txns []models.Transaction) decimal.Decimal {
	return countOfType(txns, models.TransactionTypeExpense)
}

// CategoryBalance is income minus expense within a category-scoped set.
// Transfers carry no category and contribute nothing.
func CategoryBalance(_ string, txns []models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for i := range txns {
		switch txns[i].Type {
		case models.TransactionTypeIncome:
			sum = sum.Add(txns[i].Amount)
		case models.TransactionTypeExpense:
			sum = sum.Sub(txns[i].Amount)
		case models.TransactionTypeTransfer:
			// no category on transfers
		}
	}
	return sum
}

// CategoryIncome sums income transactions in a category-scoped set.
func CategoryIncome(_ string, txns []models.Transaction) decimal.Decimal {
	return sumOfType(txns, models.TransactionTypeIncome)
}

// CategoryExpense sums expense transactions in a category-scoped set.
func CategoryExpense(_ string, txns []models.Transaction) decimal.Decimal {
	return sumOfType(txns, models.TransactionTypeExpense)
}

// CategoryIncomeCount counts income transactions in a category-scoped set.
func CategoryIncomeCount(_ string, txns []models.Transaction) decimal.Decimal {
	return countOfType(txns, models.TransactionTypeIncome)
}

// CategoryExpenseCount counts expense transactions in a category-scoped set.
func CategoryExpenseCount(_ string, txns []models.Transaction) decimal.Decimal {
	return countOfType(txns, models.TransactionTypeExpense)
}

func sumOfType(txns []models.Transaction, typ models.TransactionType) decimal.Decimal {
	sum := decimal.Zero
	for i := range txns {
		if txns[i].Type == typ {
			sum = sum.Add(txns[i].Amount)
		}
	}
	return sum
}

func countOfType(txns []models.Transaction, typ models.TransactionType) decimal.Decimal {
	n := 0
	for i := range txns {
		if txns[i].Type == typ {
			n++
		}
	}
	return decimal.NewFromInt(int64(n))
}
