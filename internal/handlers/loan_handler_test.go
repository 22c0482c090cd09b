package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// --- mock loan service ---

type mockLoanService struct {
	createLoanFn          func(name string, accountID *string, amount decimal.Decimal, loanType models.LoanType, currency string) (*models.Loan, error)
	getLoansFn            func(page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error)
	getLoanFn             func(loanID string) (*models.Loan, error)
	deleteLoanFn          func(loanID string) error
	createLoanRecordFn    func(loanID string, data services.CreateLoanRecordData) (*models.LoanRecord, error)
	getLoanRecordsFn      func(loanID string) ([]models.LoanRecord, error)
	updateLoanRecordFn    func(recordID string, fields services.LoanRecordUpdateFields) (*models.LoanRecord, error)
	deleteLoanRecordFn    func(recordID string) error
	reconcileFn           func(txn *models.Transaction) error
	recalculateFn         func(accountID string) error
}

func (m *mockLoanService) CreateLoan(name string, accountID *string, amount decimal.Decimal, loanType models.LoanType, currency string) (*models.Loan, error) {
	if m.createLoanFn != nil {
		return m.createLoanFn(name, accountID, amount, loanType, currency)
	}
	return &models.Loan{}, nil
}

func (m *mockLoanService) GetLoans(page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error) {
	if m.getLoansFn != nil {
		return m.getLoansFn(page)
	}
	resp := pagination.NewPageResponse([]models.Loan{}, 1, 50, 0)
	return &resp, nil
}

func (m *mockLoanService) GetLoanByID(loanID string) (*models.Loan, error) {
	if m.getLoanFn != nil {
		return m.getLoanFn(loanID)
	}
	return &models.Loan{}, nil
}

func (m *mockLoanService) DeleteLoan(loanID string) error {
	if m.deleteLoanFn != nil {
		return m.deleteLoanFn(loanID)
	}
	return nil
}

func (m *mockLoanService) CreateLoanRecord(loanID string, data services.CreateLoanRecordData) (*models.LoanRecord, error) {
	if m.createLoanRecordFn != nil {
		return m.createLoanRecordFn(loanID, data)
	}
	return &models.LoanRecord{}, nil
}

func (m *mockLoanService) GetLoanRecords(loanID string) ([]models.LoanRecord, error) {
	if m.getLoanRecordsFn != nil {
		return m.getLoanRecordsFn(loanID)
	}
	return []models.LoanRecord{}, nil
}

func (m *mockLoanService) UpdateLoanRecord(recordID string, fields services.LoanRecordUpdateFields) (*models.LoanRecord, error) {
	if m.updateLoanRecordFn != nil {
		return m.updateLoanRecordFn(recordID, fields)
	}
	return &models.LoanRecord{}, nil
}

func (m *mockLoanService) DeleteLoanRecord(recordID string) error {
	if m.deleteLoanRecordFn != nil {
		return m.deleteLoanRecordFn(recordID)
	}
	return nil
}

func (m *mockLoanService) WithTx(_ *gorm.DB) services.LoanReconciler {
	return m
}

func (m *mockLoanService) ReconcileFromTransaction(txn *models.Transaction) error {
	if m.reconcileFn != nil {
		return m.reconcileFn(txn)
	}
	return nil
}

func (m *mockLoanService) RecalculateConvertedAmounts(accountID string) error {
	if m.recalculateFn != nil {
		return m.recalculateFn(accountID)
	}
	return nil
}

// verify interface compliance
var _ services.LoanServicer = (*mockLoanService)(nil)

func setupLoanRouter(handler *LoanHandler) *gin.Engine {
	r := gin.New()
	r.POST("/loans", handler.CreateLoan)
	r.GET("/loans", handler.GetLoans)
	r.GET("/loans/:id", handler.GetLoanByID)
	r.DELETE("/loans/:id", handler.DeleteLoan)
	r.POST("/loans/:id/records", handler.CreateLoanRecord)
	r.GET("/loans/:id/records", handler.GetLoanRecords)
	r.PUT("/loan-records/:id", handler.UpdateLoanRecord)
	r.DELETE("/loan-records/:id", handler.DeleteLoanRecord)
	return r
}

func TestLoanHandler_CreateLoan(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		loanSvc := &mockLoanService{
			createLoanFn: func(name string, _ *string, amount decimal.Decimal, loanType models.LoanType, currency string) (*models.Loan, error) {
				return &models.Loan{
					Base:     models.Base{ID: testLoanID},
					Name:     name,
					Amount:   amount,
					Type:     loanType,
					Currency: currency,
				}, nil
			},
		}
		handler := NewLoanHandler(loanSvc)
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/loans",
			`{"name":"Car loan","amount":"5000","type":"borrow","currency":"EUR"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		loan := result["loan"].(map[string]interface{})
		if loan["name"] != "Car loan" {
			t.Errorf("expected Car loan, got %v", loan["name"])
		}
	})

	t.Run("returns 400 on invalid loan type", func(t *testing.T) {
		handler := NewLoanHandler(&mockLoanService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/loans", `{"name":"Bad","amount":"100","type":"mortgage"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		handler := NewLoanHandler(&mockLoanService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/loans", `{"name":"Bad","type":"borrow"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestLoanHandler_CreateLoanRecord(t *testing.T) {
	t.Run("returns 201 and passes data", func(t *testing.T) {
		var captured services.CreateLoanRecordData
		loanSvc := &mockLoanService{
			createLoanRecordFn: func(_ string, data services.CreateLoanRecordData) (*models.LoanRecord, error) {
				captured = data
				return &models.LoanRecord{Base: models.Base{ID: testRecordID}}, nil
			},
		}
		handler := NewLoanHandler(loanSvc)
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/loans/"+testLoanID+"/records",
			`{"amount":"250","date":"2024-03-01","note":"first installment","create_transaction":true}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !captured.Amount.Equal(decimal.NewFromInt(250)) {
			t.Errorf("expected amount 250, got %s", captured.Amount)
		}
		if !captured.CreateTransaction {
			t.Error("expected create_transaction to be passed through")
		}
		if captured.DateTime.Format("2006-01-02") != "2024-03-01" {
			t.Errorf("expected date 2024-03-01, got %v", captured.DateTime)
		}
	})

	t.Run("returns 404 when loan is missing", func(t *testing.T) {
		loanSvc := &mockLoanService{
			createLoanRecordFn: func(_ string, _ services.CreateLoanRecordData) (*models.LoanRecord, error) {
				return nil, apperrors.ErrLoanNotFound
			},
		}
		handler := NewLoanHandler(loanSvc)
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/loans/"+testLoanID+"/records", `{"amount":"250"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "LOAN_NOT_FOUND")
	})

	t.Run("returns 422 when rate is unavailable", func(t *testing.T) {
		loanSvc := &mockLoanService{
			createLoanRecordFn: func(_ string, _ services.CreateLoanRecordData) (*models.LoanRecord, error) {
				return nil, apperrors.ErrRateUnavailable
			},
		}
		handler := NewLoanHandler(loanSvc)
		r := setupLoanRouter(handler)

		rec := doRequest(r, "POST", "/loans/"+testLoanID+"/records", `{"amount":"250"}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RATE_UNAVAILABLE")
	})
}

func TestLoanHandler_GetLoanRecords(t *testing.T) {
	t.Run("returns 200 with records", func(t *testing.T) {
		loanSvc := &mockLoanService{
			getLoanRecordsFn: func(loanID string) ([]models.LoanRecord, error) {
				return []models.LoanRecord{
					{Base: models.Base{ID: testRecordID}, LoanID: loanID, Amount: decimal.NewFromInt(100), DateTime: time.Now()},
				}, nil
			},
		}
		handler := NewLoanHandler(loanSvc)
		r := setupLoanRouter(handler)

		rec := doRequest(r, "GET", "/loans/"+testLoanID+"/records", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		records := result["records"].([]interface{})
		if len(records) != 1 {
			t.Errorf("expected 1 record, got %d", len(records))
		}
	})
}

func TestLoanHandler_UpdateLoanRecord(t *testing.T) {
	t.Run("returns 409 on inconsistent loan state", func(t *testing.T) {
		loanSvc := &mockLoanService{
			updateLoanRecordFn: func(_ string, _ services.LoanRecordUpdateFields) (*models.LoanRecord, error) {
				return nil, apperrors.ErrInconsistentLoan
			},
		}
		handler := NewLoanHandler(loanSvc)
		r := setupLoanRouter(handler)

		rec := doRequest(r, "PUT", "/loan-records/"+testRecordID, `{"amount":"300"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INCONSISTENT_LOAN_STATE")
	})

	t.Run("returns 404 when record is missing", func(t *testing.T) {
		loanSvc := &mockLoanService{
			updateLoanRecordFn: func(_ string, _ services.LoanRecordUpdateFields) (*models.LoanRecord, error) {
				return nil, apperrors.ErrLoanRecordNotFound
			},
		}
		handler := NewLoanHandler(loanSvc)
		r := setupLoanRouter(handler)

		rec := doRequest(r, "PUT", "/loan-records/"+testRecordID, `{"amount":"300"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "LOAN_RECORD_NOT_FOUND")
	})
}

func TestLoanHandler_DeleteLoan(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		handler := NewLoanHandler(&mockLoanService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "DELETE", "/loans/"+testLoanID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		handler := NewLoanHandler(&mockLoanService{})
		r := setupLoanRouter(handler)

		rec := doRequest(r, "DELETE", "/loans/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
