package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db         *gorm.DB
	reconciler LoanReconciler
}

// NewAccountService creates a new AccountServicer. The reconciler is invoked
// whenever an account's currency changes, since that re-prices every loan
// record exposed to the account.
func NewAccountService(db *gorm.DB, reconciler LoanReconciler) AccountServicer {
	return &accountService{db: db, reconciler: reconciler}
}

// CreateAccount creates a new account. A nil currency means the account
// reports in the base currency.
func (s *accountService) CreateAccount(name string, currency *string, color, icon string) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	account := &models.Account{
		Name:     name,
		Currency: currency,
		Color:    color,
		Icon:     icon,
	}
	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetAccounts retrieves a paginated list of accounts.
func (s *accountService) GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.Model(&models.Account{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID.
func (s *accountService) GetAccountByID(accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates an existing account. Changing the currency triggers
// re-pricing of every loan record whose conversion involves this account.
func (s *accountService) UpdateAccount(accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.Color != nil {
		updates["color"] = *fields.Color
	}
	if fields.Icon != nil {
		updates["icon"] = *fields.Icon
	}

	currencyChanged := false
	if fields.Currency != nil {
		oldCurrency := ""
		if account.Currency != nil {
			oldCurrency = *account.Currency
		}
		newCurrency := ""
		if *fields.Currency != nil {
			newCurrency = **fields.Currency
		}
		if oldCurrency != newCurrency {
			updates["currency"] = *fields.Currency
			currencyChanged = true
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if currencyChanged {
		if err := s.reconciler.RecalculateConvertedAmounts(account.ID); err != nil {
			return nil, err
		}
	}

	return account, nil
}

// DeleteAccount soft-deletes an account together with its transactions, so
// aggregations never see orphaned rows. Shadow transactions among them take
// their loan records down too, matching the single-transaction delete path.
func (s *accountService) DeleteAccount(accountID string) error {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var recordIDs []string
		if err := tx.Model(&models.Transaction{}).
			Where("(account_id = ? OR to_account_id = ?) AND loan_record_id IS NOT NULL", account.ID, account.ID).
			Pluck("loan_record_id", &recordIDs).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(recordIDs) > 0 {
			if err := tx.Where("id IN ?", recordIDs).
				Delete(&models.LoanRecord{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if err := tx.Where("account_id = ? OR to_account_id = ?", account.ID, account.ID).
			Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
