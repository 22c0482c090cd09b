package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/exchange"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// ProcessingHooks bracket long-running reconciliation work so callers (the
// HTTP layer, a CLI) can surface progress. Either hook may be nil.
type ProcessingHooks struct {
	OnStart func()
	OnEnd   func()
}

func (h ProcessingHooks) start() {
	if h.OnStart != nil {
		h.OnStart()
	}
}

func (h ProcessingHooks) end() {
	if h.OnEnd != nil {
		h.OnEnd()
	}
}

// loanService handles loan business logic and the reconciliation engine that
// keeps loan records and their shadow transactions mutually consistent.
//
// It reads accounts through the database directly rather than through
// AccountServicer: the account service depends on the reconciler, and the
// loan service must stay below it in the construction order.
type loanService struct {
	db       *gorm.DB
	resolver *exchange.Resolver
	hooks    ProcessingHooks
}

// NewLoanService creates a new LoanServicer.
func NewLoanService(db *gorm.DB, resolver *exchange.Resolver, hooks ProcessingHooks) LoanServicer {
	return &loanService{db: db, resolver: resolver, hooks: hooks}
}

// CreateLoan creates a new loan. An empty currency falls back to the
// associated account's currency, or the base currency when there is none.
func (s *loanService) CreateLoan(name string, accountID *string, amount decimal.Decimal, loanType models.LoanType, currency string) (*models.Loan, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "loan name is required")
	}
	if loanType != models.LoanTypeBorrow && loanType != models.LoanTypeLend {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "loan type must be borrow or lend")
	}
	if amount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	if accountID != nil {
		var account models.Account
		if err := s.db.Where("id = ?", *accountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrAccountNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if currency == "" {
			currency = account.CurrencyOrDefault(s.resolver.BaseCurrency())
		}
	}
	if currency == "" {
		currency = s.resolver.BaseCurrency()
	}

	loan := &models.Loan{
		Name:      name,
		AccountID: accountID,
		Amount:    amount,
		Type:      loanType,
		Currency:  currency,
	}
	if err := s.db.Create(loan).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return loan, nil
}

// GetLoans retrieves a paginated list of loans.
func (s *loanService) GetLoans(page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error) {
	page.Defaults()

	base := s.db.Model(&models.Loan{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var loans []models.Loan
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at ASC").
		Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(loans, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetLoanByID retrieves a loan by ID.
func (s *loanService) GetLoanByID(loanID string) (*models.Loan, error) {
	var loan models.Loan
	if err := s.db.Where("id = ?", loanID).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &loan, nil
}

// DeleteLoan soft-deletes a loan together with its records and their shadow
// transactions, all in one database transaction.
func (s *loanService) DeleteLoan(loanID string) error {
	loan, err := s.GetLoanByID(loanID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loan_id = ?", loan.ID).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("loan_id = ?", loan.ID).
			Delete(&models.LoanRecord{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(loan).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// CreateLoanRecord creates a repayment/increase record for a loan. When
// requested and an account can be resolved, a shadow transaction is created
// alongside it: borrow repayments are expenses, lend repayments are income.
func (s *loanService) CreateLoanRecord(loanID string, data CreateLoanRecordData) (*models.LoanRecord, error) {
	loan, err := s.GetLoanByID(loanID)
	if err != nil {
		return nil, err
	}
	if data.Amount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if data.DateTime.IsZero() {
		data.DateTime = time.Now()
	}

	accountID := data.AccountID
	if accountID == nil {
		accountID = loan.AccountID
	}
	if accountID != nil {
		var account models.Account
		if err := s.db.Where("id = ?", *accountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrAccountNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	converted, err := s.computeConvertedAmount(loan, accountID, data.Amount)
	if err != nil {
		return nil, err
	}

	record := &models.LoanRecord{
		LoanID:          loan.ID,
		AccountID:       accountID,
		Amount:          data.Amount,
		Note:            data.Note,
		DateTime:        data.DateTime,
		Interest:        data.Interest,
		ConvertedAmount: converted,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if data.CreateTransaction && accountID != nil {
			shadow := &models.Transaction{
				AccountID:    *accountID,
				Type:         shadowTransactionType(loan.Type),
				Amount:       data.Amount,
				Title:        loan.Name,
				DateTime:     &record.DateTime,
				LoanID:       &loan.ID,
				LoanRecordID: &record.ID,
			}
			if err := tx.Create(shadow).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetLoanRecords retrieves all records of a loan, oldest first.
func (s *loanService) GetLoanRecords(loanID string) ([]models.LoanRecord, error) {
	if _, err := s.GetLoanByID(loanID); err != nil {
		return nil, err
	}

	var records []models.LoanRecord
	if err := s.db.Where("loan_id = ?", loanID).
		Order("date_time ASC").
		Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return records, nil
}

// UpdateLoanRecord updates a loan record and propagates the change to its
// shadow transaction. The converted amount is re-priced at today's rate.
func (s *loanService) UpdateLoanRecord(recordID string, fields LoanRecordUpdateFields) (*models.LoanRecord, error) {
	record, err := s.getLoanRecordByID(recordID)
	if err != nil {
		return nil, err
	}
	loan, err := s.GetLoanByID(record.LoanID)
	if err != nil {
		return nil, err
	}

	if fields.Amount != nil {
		if fields.Amount.Sign() <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		record.Amount = *fields.Amount
	}
	if fields.AccountID != nil {
		var account models.Account
		if err := s.db.Where("id = ?", *fields.AccountID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrAccountNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		record.AccountID = fields.AccountID
	}
	if fields.DateTime != nil {
		record.DateTime = *fields.DateTime
	}
	if fields.Note != nil {
		record.Note = *fields.Note
	}
	if fields.Interest != nil {
		record.Interest = *fields.Interest
	}

	converted, err := s.computeConvertedAmount(loan, record.AccountID, record.Amount)
	if err != nil {
		return nil, err
	}
	record.ConvertedAmount = converted

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var shadow models.Transaction
		err := tx.Where("loan_record_id = ?", record.ID).First(&shadow).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if shadow.LoanID == nil || *shadow.LoanID != record.LoanID {
			return apperrors.ErrInconsistentLoan
		}

		updates := map[string]interface{}{
			"amount":    record.Amount,
			"date_time": record.DateTime,
		}
		if record.AccountID != nil {
			updates["account_id"] = *record.AccountID
		}
		if err := tx.Model(&shadow).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteLoanRecord soft-deletes a loan record and its shadow transaction in
// one database transaction.
func (s *loanService) DeleteLoanRecord(recordID string) error {
	record, err := s.getLoanRecordByID(recordID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loan_record_id = ?", record.ID).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// WithTx returns a copy of the service bound to the given database handle.
// Callers use it to run reconciliation inside an open transaction.
func (s *loanService) WithTx(tx *gorm.DB) LoanReconciler {
	bound := *s
	bound.db = tx
	return &bound
}

// ReconcileFromTransaction pushes a directly edited shadow transaction's
// state back onto its loan record. The transaction is the source of truth in
// this direction. A missing record or loan is a benign no-op: the user may
// have deleted the loan side independently.
func (s *loanService) ReconcileFromTransaction(txn *models.Transaction) error {
	if txn == nil || txn.LoanRecordID == nil {
		return nil
	}

	s.hooks.start()
	defer s.hooks.end()

	record, err := s.getLoanRecordByID(*txn.LoanRecordID)
	if err != nil {
		if errors.Is(err, apperrors.ErrLoanRecordNotFound) {
			return nil
		}
		return err
	}

	if txn.LoanID == nil || record.LoanID != *txn.LoanID {
		return apperrors.ErrInconsistentLoan
	}

	loan, err := s.GetLoanByID(record.LoanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrLoanNotFound) {
			return nil
		}
		return err
	}

	record.Amount = txn.Amount
	record.AccountID = &txn.AccountID
	if txn.DateTime != nil {
		record.DateTime = *txn.DateTime
	}
	if txn.Title != "" {
		record.Note = txn.Title
	}

	converted, err := s.computeConvertedAmount(loan, record.AccountID, record.Amount)
	if err != nil {
		return err
	}
	record.ConvertedAmount = converted

	if err := s.db.Save(record).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// RecalculateConvertedAmounts re-prices the converted amount of every loan
// record whose conversion involves the given account, either directly or
// through its loan.
func (s *loanService) RecalculateConvertedAmounts(accountID string) error {
	s.hooks.start()
	defer s.hooks.end()

	var records []models.LoanRecord
	if err := s.db.
		Where("account_id = ? OR loan_id IN (?)",
			accountID,
			s.db.Model(&models.Loan{}).Select("id").Where("account_id = ?", accountID)).
		Find(&records).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range records {
		record := &records[i]
		loan, err := s.GetLoanByID(record.LoanID)
		if err != nil {
			if errors.Is(err, apperrors.ErrLoanNotFound) {
				continue
			}
			return err
		}

		converted, err := s.computeConvertedAmount(loan, record.AccountID, record.Amount)
		if err != nil {
			return err
		}
		record.ConvertedAmount = converted
		if err := s.db.Save(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

func (s *loanService) getLoanRecordByID(recordID string) (*models.LoanRecord, error) {
	var record models.LoanRecord
	if err := s.db.Where("id = ?", recordID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanRecordNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

// computeConvertedAmount converts a record amount from the record account's
// currency into the loan's currency at today's rate. Same-currency records
// carry no converted amount.
func (s *loanService) computeConvertedAmount(loan *models.Loan, accountID *string, amount decimal.Decimal) (*decimal.Decimal, error) {
	recordCurrency := s.accountCurrency(accountID)
	loanCurrency := s.loanCurrency(loan)
	if recordCurrency == loanCurrency {
		return nil, nil
	}

	converted, err := s.resolver.Convert(amount, recordCurrency, loanCurrency)
	if err != nil {
		return nil, err
	}
	return &converted, nil
}

// loanCurrency resolves the currency a loan is denominated in: its own
// currency if set, then its account's, then the base currency.
func (s *loanService) loanCurrency(loan *models.Loan) string {
	if loan.Currency != "" {
		return loan.Currency
	}
	if loan.AccountID != nil {
		return s.accountCurrency(loan.AccountID)
	}
	return s.resolver.BaseCurrency()
}

// accountCurrency resolves an account's currency, falling back to the base
// currency for nil or missing accounts.
func (s *loanService) accountCurrency(accountID *string) string {
	if accountID == nil {
		return s.resolver.BaseCurrency()
	}
	var account models.Account
	if err := s.db.Where("id = ?", *accountID).First(&account).Error; err != nil {
		return s.resolver.BaseCurrency()
	}
	return account.CurrencyOrDefault(s.resolver.BaseCurrency())
}

func shadowTransactionType(loanType models.LoanType) models.TransactionType {
	if loanType == models.LoanTypeBorrow {
		return models.TransactionTypeExpense
	}
	return models.TransactionTypeIncome
}
