package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

// LoanHandler handles loan-related requests.
type LoanHandler struct {
	loanService services.LoanServicer
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanService services.LoanServicer) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// CreateLoanRequest represents the request payload for creating a loan
type CreateLoanRequest struct {
	Name      string          `json:"name" binding:"required,max=100"`
	AccountID *string         `json:"account_id" binding:"omitempty,uuid"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Type      models.LoanType `json:"type" binding:"required,loan_type"`
	Currency  string          `json:"currency" binding:"omitempty,iso4217"`
}

// CreateLoan handles the creation of a new loan
// @Summary     Create a loan
// @Description Create a new loan. An omitted currency falls back to the account's currency, then the base currency.
// @Tags        loans
// @Accept      json
// @Produce     json
// @Param       request body CreateLoanRequest true "Loan details"
// @Success     201 {object} models.Loan "Loan created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans [post]
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	loan, err := h.loanService.CreateLoan(req.Name, req.AccountID, req.Amount, req.Type, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// GetLoans handles the retrieval of all loans
// @Summary     List loans
// @Description Get a paginated list of loans
// @Tags        loans
// @Accept      json
// @Produce     json
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 50, max 200)"
// @Success     200 {object} pagination.PageResponse[models.Loan] "Paginated loans"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans [get]
func (h *LoanHandler) GetLoans(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.loanService.GetLoans(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLoanByID handles the retrieval of a specific loan
// @Summary     Get loan by ID
// @Description Get a specific loan by ID
// @Tags        loans
// @Accept      json
// @Produce     json
// @Param       id path string true "Loan ID"
// @Success     200 {object} models.Loan "Loan details"
// @Failure     400 {object} ErrorResponse "Invalid loan ID"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id} [get]
func (h *LoanHandler) GetLoanByID(c *gin.Context) {
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.GetLoanByID(loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// DeleteLoan handles the deletion of a loan
// @Summary     Delete loan
// @Description Delete a loan together with its records and their backing transactions
// @Tags        loans
// @Accept      json
// @Produce     json
// @Param       id path string true "Loan ID"
// @Success     200 {object} MessageResponse "Loan deleted"
// @Failure     400 {object} ErrorResponse "Invalid loan ID"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id} [delete]
func (h *LoanHandler) DeleteLoan(c *gin.Context) {
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.loanService.DeleteLoan(loanID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Loan deleted successfully"})
}

// CreateLoanRecordRequest represents the request payload for creating a loan record
type CreateLoanRecordRequest struct {
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	AccountID         *string         `json:"account_id" binding:"omitempty,uuid"`
	Date              *string         `json:"date"`
	Note              string          `json:"note" binding:"max=500"`
	Interest          bool            `json:"interest"`
	CreateTransaction bool            `json:"create_transaction"`
}

// CreateLoanRecord handles the creation of a loan record
// @Summary     Create a loan record
// @Description Record a repayment or increase on a loan, optionally backed by a shadow transaction
// @Tags        loans
// @Accept      json
// @Produce     json
// @Param       id      path string                  true "Loan ID"
// @Param       request body CreateLoanRecordRequest true "Record details"
// @Success     201 {object} models.LoanRecord "Record created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Loan or account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/records [post]
func (h *LoanHandler) CreateLoanRecord(c *gin.Context) {
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLoanRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	data := services.CreateLoanRecordData{
		Amount:            req.Amount,
		AccountID:         req.AccountID,
		Note:              req.Note,
		Interest:          req.Interest,
		CreateTransaction: req.CreateTransaction,
	}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		data.DateTime = parsed
	}

	record, err := h.loanService.CreateLoanRecord(loanID, data)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"record": record})
}

// GetLoanRecords handles the retrieval of a loan's records
// @Summary     List loan records
// @Description Get all records of a loan, oldest first
// @Tags        loans
// @Accept      json
// @Produce     json
// @Param       id path string true "Loan ID"
// @Success     200 {object} []models.LoanRecord "Loan records"
// @Failure     400 {object} ErrorResponse "Invalid loan ID"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loans/{id}/records [get]
func (h *LoanHandler) GetLoanRecords(c *gin.Context) {
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	records, err := h.loanService.GetLoanRecords(loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// UpdateLoanRecordRequest represents the request payload for updating a loan record.
type UpdateLoanRecordRequest struct {
	Amount    *decimal.Decimal `json:"amount"`
	AccountID *string          `json:"account_id" binding:"omitempty,uuid"`
	Date      *string          `json:"date"`
	Note      *string          `json:"note" binding:"omitempty,max=500"`
	Interest  *bool            `json:"interest"`
}

// UpdateLoanRecord handles updating an existing loan record
// @Summary     Update loan record
// @Description Update a loan record and propagate the change to its backing transaction
// @Tags        loans
// @Accept      json
// @Produce     json
// @Param       id      path string                  true "Record ID"
// @Param       request body UpdateLoanRecordRequest true "Fields to update"
// @Success     200 {object} models.LoanRecord "Updated record"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     409 {object} ErrorResponse "Inconsistent loan state"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loan-records/{id} [put]
func (h *LoanHandler) UpdateLoanRecord(c *gin.Context) {
	recordID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateLoanRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.LoanRecordUpdateFields{
		Amount:    req.Amount,
		AccountID: req.AccountID,
		Note:      req.Note,
		Interest:  req.Interest,
	}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		fields.DateTime = &parsed
	}

	record, err := h.loanService.UpdateLoanRecord(recordID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": record})
}

// DeleteLoanRecord handles the deletion of a loan record
// @Summary     Delete loan record
// @Description Delete a loan record and its backing transaction
// @Tags        loans
// @Accept      json
// @Produce     json
// @Param       id path string true "Record ID"
// @Success     200 {object} MessageResponse "Record deleted"
// @Failure     400 {object} ErrorResponse "Invalid record ID"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /loan-records/{id} [delete]
func (h *LoanHandler) DeleteLoanRecord(c *gin.Context) {
	recordID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.loanService.DeleteLoanRecord(recordID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Loan record deleted successfully"})
}
