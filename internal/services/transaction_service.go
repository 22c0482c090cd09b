package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
	reconciler     LoanReconciler
}

// NewTransactionService creates a new TransactionServicer. The reconciler
// keeps loan records in sync when their shadow transactions are edited
// directly.
func NewTransactionService(db *gorm.DB, accountService AccountServicer, reconciler LoanReconciler) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
		reconciler:     reconciler,
	}
}

// CreateTransaction creates a new income or expense transaction. Exactly one
// of dateTime (settled) or dueDate (planned payment) must end up set; when
// both are nil, dateTime defaults to now.
func (s *transactionService) CreateTransaction(
	accountID string,
	categoryID *string,
	txType models.TransactionType,
	amount decimal.Decimal,
	title string,
	dateTime, dueDate *time.Time,
) (*models.Transaction, error) {
	if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if amount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if dateTime != nil && dueDate != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "a transaction is either settled or planned, not both")
	}
	if dateTime == nil && dueDate == nil {
		now := time.Now()
		dateTime = &now
	}

	account, err := s.accountService.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		AccountID:  account.ID,
		CategoryID: categoryID,
		Type:       txType,
		Amount:     amount,
		Title:      title,
		DateTime:   dateTime,
		DueDate:    dueDate,
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// CreateTransfer creates a transfer between two accounts. For cross-currency
// transfers, toAmount carries the amount credited to the destination account
// in its own currency.
func (s *transactionService) CreateTransfer(
	fromAccountID, toAccountID string,
	amount decimal.Decimal,
	toAmount *decimal.Decimal,
	title string,
	dateTime *time.Time,
) (*models.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if toAmount != nil && toAmount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_amount must be greater than zero")
	}
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}

	from, err := s.accountService.GetAccountByID(fromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := s.accountService.GetAccountByID(toAccountID)
	if err != nil {
		return nil, err
	}

	if dateTime == nil {
		now := time.Now()
		dateTime = &now
	}

	transaction := &models.Transaction{
		AccountID:   from.ID,
		ToAccountID: &to.ID,
		Type:        models.TransactionTypeTransfer,
		Amount:      amount,
		ToAmount:    toAmount,
		Title:       title,
		DateTime:    dateTime,
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// GetTransactions retrieves a paginated, filtered list of transactions,
// newest first.
func (s *transactionService) GetTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := applyTransactionFilters(s.db.Model(&models.Transaction{}), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date_time DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date_time >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date_time <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ? OR to_account_id = ?", *f.AccountID, *f.AccountID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	if f.Planned != nil {
		if *f.Planned {
			q = q.Where("due_date IS NOT NULL AND date_time IS NULL")
		} else {
			q = q.Where("date_time IS NOT NULL")
		}
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID.
func (s *transactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction updates a transaction. If the transaction backs a loan
// record, the record is reconciled afterwards with the transaction as the
// source of truth.
func (s *transactionService) UpdateTransaction(transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}

	if fields.Type != nil {
		if transaction.Type == models.TransactionTypeTransfer || *fields.Type == models.TransactionTypeTransfer {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidTransactionType, "cannot change a transaction's type to or from transfer")
		}
	}
	if fields.Amount != nil && fields.Amount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	updates := make(map[string]interface{})
	if fields.AccountID != nil {
		if _, err := s.accountService.GetAccountByID(*fields.AccountID); err != nil {
			return nil, err
		}
		updates["account_id"] = *fields.AccountID
	}
	if fields.CategoryID != nil {
		updates["category_id"] = *fields.CategoryID
	}
	if fields.Type != nil {
		updates["type"] = *fields.Type
	}
	if fields.Amount != nil {
		updates["amount"] = *fields.Amount
	}
	if fields.Title != nil {
		updates["title"] = *fields.Title
	}
	if fields.DateTime != nil {
		updates["date_time"] = *fields.DateTime
	}

	// The row update and the loan-record reconciliation commit together:
	// nobody may observe a shadow transaction disagreeing with its record.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(transaction).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Where("id = ?", transaction.ID).First(transaction).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if transaction.LoanRecordID != nil {
			return s.reconciler.WithTx(tx).ReconcileFromTransaction(transaction)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// PayPlannedTransaction settles a planned payment by stamping its DateTime.
// The due date is kept so the payment's planned origin stays visible.
func (s *transactionService) PayPlannedTransaction(transactionID string, paidAt time.Time) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}
	if !transaction.Planned() {
		return nil, apperrors.ErrTransactionNotPlanned
	}

	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	if err := s.db.Model(transaction).Update("date_time", paidAt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	transaction.DateTime = &paidAt
	return transaction, nil
}

// DeleteTransaction soft-deletes a transaction. A transaction backing a loan
// record takes the record down with it in the same database transaction, so
// neither side is ever orphaned.
func (s *transactionService) DeleteTransaction(transactionID string) error {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if transaction.LoanRecordID != nil {
			if err := tx.Where("id = ?", *transaction.LoanRecordID).
				Delete(&models.LoanRecord{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}
