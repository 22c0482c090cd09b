package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/models"
	"moneta/internal/testutil"
)

func TestCreateTransaction(t *testing.T) {
	t.Run("income_with_default_date", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)

		tx, err := svc.txns.CreateTransaction(account.ID, nil, models.TransactionTypeIncome, decimal.NewFromInt(5000), "Salary", nil, nil)
		testutil.AssertNoError(t, err)

		if tx.ID == "" {
			t.Fatal("expected non-empty transaction ID")
		}
		if tx.DateTime == nil {
			t.Fatal("expected default date to be set")
		}
		if !tx.Settled() {
			t.Error("transaction with a date should be settled")
		}
	})

	t.Run("planned_payment", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		due := time.Now().AddDate(0, 1, 0)

		tx, err := svc.txns.CreateTransaction(account.ID, nil, models.TransactionTypeExpense, decimal.NewFromInt(100), "Rent", nil, &due)
		testutil.AssertNoError(t, err)

		if !tx.Planned() {
			t.Error("transaction with only a due date should be planned")
		}
		if tx.DateTime != nil {
			t.Error("planned payment should have no date")
		}
	})

	t.Run("both_date_and_due_date", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		now := time.Now()

		_, err := svc.txns.CreateTransaction(account.ID, nil, models.TransactionTypeExpense, decimal.NewFromInt(100), "", &now, &now)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("zero_amount", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)

		_, err := svc.txns.CreateTransaction(account.ID, nil, models.TransactionTypeIncome, decimal.Zero, "", nil, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_amount", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)

		_, err := svc.txns.CreateTransaction(account.ID, nil, models.TransactionTypeIncome, decimal.NewFromInt(-100), "", nil, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("transfer_type_rejected", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)

		_, err := svc.txns.CreateTransaction(account.ID, nil, models.TransactionTypeTransfer, decimal.NewFromInt(100), "", nil, nil)
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("missing_account", func(t *testing.T) {
		svc := setupServices(t)

		_, err := svc.txns.CreateTransaction("00000000-0000-0000-0000-000000000000", nil, models.TransactionTypeIncome, decimal.NewFromInt(100), "", nil, nil)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestCreateTransfer(t *testing.T) {
	t.Run("cross_currency_transfer", func(t *testing.T) {
		svc := setupServices(t)
		from := testutil.CreateTestAccount(t, svc.db)
		to := testutil.CreateTestAccountWithCurrency(t, svc.db, "EUR")
		toAmount := decimal.NewFromInt(90)

		tx, err := svc.txns.CreateTransfer(from.ID, to.ID, decimal.NewFromInt(100), &toAmount, "Move", nil)
		testutil.AssertNoError(t, err)

		if tx.Type != models.TransactionTypeTransfer {
			t.Errorf("expected transfer type, got %s", tx.Type)
		}
		if tx.ToAccountID == nil || *tx.ToAccountID != to.ID {
			t.Error("expected destination account to be set")
		}
		if !tx.ReceivedAmount().Equal(toAmount) {
			t.Errorf("expected received amount 90, got %s", tx.ReceivedAmount())
		}
	})

	t.Run("same_account", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)

		_, err := svc.txns.CreateTransfer(account.ID, account.ID, decimal.NewFromInt(100), nil, "", nil)
		testutil.AssertAppError(t, err, "SAME_ACCOUNT_TRANSFER")
	})

	t.Run("missing_destination", func(t *testing.T) {
		svc := setupServices(t)
		from := testutil.CreateTestAccount(t, svc.db)

		_, err := svc.txns.CreateTransfer(from.ID, "00000000-0000-0000-0000-000000000000", decimal.NewFromInt(100), nil, "", nil)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("non_positive_to_amount", func(t *testing.T) {
		svc := setupServices(t)
		from := testutil.CreateTestAccount(t, svc.db)
		to := testutil.CreateTestAccount(t, svc.db)
		toAmount := decimal.Zero

		_, err := svc.txns.CreateTransfer(from.ID, to.ID, decimal.NewFromInt(100), &toAmount, "", nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("switch_income_to_expense", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		tx := testutil.CreateTestTransaction(t, svc.db, account.ID, models.TransactionTypeIncome, decimal.NewFromInt(100))

		newType := models.TransactionTypeExpense
		updated, err := svc.txns.UpdateTransaction(tx.ID, TransactionUpdateFields{Type: &newType})
		testutil.AssertNoError(t, err)
		if updated.Type != models.TransactionTypeExpense {
			t.Errorf("expected expense, got %s", updated.Type)
		}
	})

	t.Run("switch_to_transfer_rejected", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		tx := testutil.CreateTestTransaction(t, svc.db, account.ID, models.TransactionTypeIncome, decimal.NewFromInt(100))

		newType := models.TransactionTypeTransfer
		_, err := svc.txns.UpdateTransaction(tx.ID, TransactionUpdateFields{Type: &newType})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("clear_category", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		category := testutil.CreateTestCategory(t, svc.db)
		tx := testutil.CreateTestTransaction(t, svc.db, account.ID, models.TransactionTypeExpense, decimal.NewFromInt(50))
		testutil.AssertNoError(t, svc.db.Model(tx).Update("category_id", category.ID).Error)

		var nilCategory *string
		updated, err := svc.txns.UpdateTransaction(tx.ID, TransactionUpdateFields{CategoryID: &nilCategory})
		testutil.AssertNoError(t, err)
		if updated.CategoryID != nil {
			t.Error("expected category to be cleared")
		}
	})

	t.Run("missing_transaction", func(t *testing.T) {
		svc := setupServices(t)

		_, err := svc.txns.UpdateTransaction("00000000-0000-0000-0000-000000000000", TransactionUpdateFields{})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("failed_reconciliation_rolls_back_update", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		loan := testutil.CreateTestLoan(t, svc.db, &account.ID, models.LoanTypeBorrow, "USD")
		otherLoan := testutil.CreateTestLoan(t, svc.db, &account.ID, models.LoanTypeBorrow, "USD")

		record, err := svc.loans.CreateLoanRecord(loan.ID, CreateLoanRecordData{
			Amount:            decimal.NewFromInt(100),
			CreateTransaction: true,
		})
		testutil.AssertNoError(t, err)

		var shadow models.Transaction
		testutil.AssertNoError(t, svc.db.Where("loan_record_id = ?", record.ID).First(&shadow).Error)

		// Point the shadow at the wrong loan so reconciliation must fail.
		testutil.AssertNoError(t, svc.db.Model(&shadow).Update("loan_id", otherLoan.ID).Error)

		amount := decimal.NewFromInt(999)
		_, err = svc.txns.UpdateTransaction(shadow.ID, TransactionUpdateFields{Amount: &amount})
		testutil.AssertAppError(t, err, "INCONSISTENT_LOAN_STATE")

		// The amount change must not have committed without the record.
		var after models.Transaction
		testutil.AssertNoError(t, svc.db.Where("id = ?", shadow.ID).First(&after).Error)
		if !after.Amount.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected rolled-back amount 100, got %s", after.Amount)
		}
	})
}

func TestPayPlannedTransaction(t *testing.T) {
	t.Run("settles_planned_payment", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		due := time.Now().AddDate(0, 1, 0)
		tx, err := svc.txns.CreateTransaction(account.ID, nil, models.TransactionTypeExpense, decimal.NewFromInt(100), "Rent", nil, &due)
		testutil.AssertNoError(t, err)

		paidAt := time.Now()
		paid, err := svc.txns.PayPlannedTransaction(tx.ID, paidAt)
		testutil.AssertNoError(t, err)

		if paid.DateTime == nil || !paid.DateTime.Equal(paidAt) {
			t.Error("expected paid-at to be stamped")
		}
		if paid.DueDate == nil {
			t.Error("due date should be preserved after payment")
		}
		if !paid.Settled() {
			t.Error("paid transaction should be settled")
		}
	})

	t.Run("already_settled", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		tx := testutil.CreateTestTransaction(t, svc.db, account.ID, models.TransactionTypeExpense, decimal.NewFromInt(100))

		_, err := svc.txns.PayPlannedTransaction(tx.ID, time.Now())
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_PLANNED")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("deletes_transaction", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		tx := testutil.CreateTestTransaction(t, svc.db, account.ID, models.TransactionTypeIncome, decimal.NewFromInt(100))

		testutil.AssertNoError(t, svc.txns.DeleteTransaction(tx.ID))

		_, err := svc.txns.GetTransactionByID(tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("cascades_to_loan_record", func(t *testing.T) {
		svc := setupServices(t)
		account := testutil.CreateTestAccount(t, svc.db)
		loan := testutil.CreateTestLoan(t, svc.db, &account.ID, models.LoanTypeBorrow, "USD")

		record, err := svc.loans.CreateLoanRecord(loan.ID, CreateLoanRecordData{
			Amount:            decimal.NewFromInt(100),
			CreateTransaction: true,
		})
		testutil.AssertNoError(t, err)

		var shadow models.Transaction
		testutil.AssertNoError(t, svc.db.Where("loan_record_id = ?", record.ID).First(&shadow).Error)

		testutil.AssertNoError(t, svc.txns.DeleteTransaction(shadow.ID))

		var count int64
		testutil.AssertNoError(t, svc.db.Model(&models.LoanRecord{}).Where("id = ?", record.ID).Count(&count).Error)
		if count != 0 {
			t.Error("deleting a loan-backed transaction should delete its loan record")
		}
	})
}

func TestGetTransactionsFilters(t *testing.T) {
	svc := setupServices(t)
	account := testutil.CreateTestAccount(t, svc.db)
	other := testutil.CreateTestAccount(t, svc.db)

	testutil.CreateTestTransaction(t, svc.db, account.ID, models.TransactionTypeIncome, decimal.NewFromInt(500))
	testutil.CreateTestTransaction(t, svc.db, account.ID, models.TransactionTypeExpense, decimal.NewFromInt(120))
	testutil.CreateTestTransaction(t, svc.db, other.ID, models.TransactionTypeExpense, decimal.NewFromInt(30))

	due := time.Now().AddDate(0, 1, 0)
	_, err := svc.txns.CreateTransaction(account.ID, nil, models.TransactionTypeExpense, decimal.NewFromInt(75), "Planned", nil, &due)
	testutil.AssertNoError(t, err)

	t.Run("by_account", func(t *testing.T) {
		result, err := svc.txns.GetTransactions(page(1), TransactionFilter{AccountID: &account.ID})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 3 {
			t.Errorf("expected 3 transactions for account, got %d", result.TotalItems)
		}
	})

	t.Run("by_type", func(t *testing.T) {
		income := models.TransactionTypeIncome
		result, err := svc.txns.GetTransactions(page(1), TransactionFilter{Type: &income})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 income transaction, got %d", result.TotalItems)
		}
	})

	t.Run("planned_only", func(t *testing.T) {
		planned := true
		result, err := svc.txns.GetTransactions(page(1), TransactionFilter{Planned: &planned})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 planned payment, got %d", result.TotalItems)
		}
	})

	t.Run("settled_only", func(t *testing.T) {
		planned := false
		result, err := svc.txns.GetTransactions(page(1), TransactionFilter{Planned: &planned})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 3 {
			t.Errorf("expected 3 settled transactions, got %d", result.TotalItems)
		}
	})

	t.Run("min_amount", func(t *testing.T) {
		min := decimal.NewFromInt(100)
		planned := false
		result, err := svc.txns.GetTransactions(page(1), TransactionFilter{MinAmount: &min, Planned: &planned})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 transactions >= 100, got %d", result.TotalItems)
		}
	})
}
