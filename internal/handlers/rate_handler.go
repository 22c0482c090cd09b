package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "moneta/internal/errors"
	"moneta/internal/services"
)

// RateHandler handles exchange-rate requests.
type RateHandler struct {
	rateService services.RateServicer
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateService services.RateServicer) *RateHandler {
	return &RateHandler{rateService: rateService}
}

// GetRates handles the retrieval of all stored exchange rates
// @Summary     List exchange rates
// @Description Get all stored exchange rates for the base currency
// @Tags        rates
// @Accept      json
// @Produce     json
// @Success     200 {object} []models.ExchangeRate "Exchange rates"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rates [get]
func (h *RateHandler) GetRates(c *gin.Context) {
	rates, err := h.rateService.GetRates()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rates": rates})
}

// UpsertRateRequest represents the request payload for setting an exchange rate
type UpsertRateRequest struct {
	Currency string          `json:"currency" binding:"required,iso4217"`
	Rate     decimal.Decimal `json:"rate" binding:"required"`
}

// UpsertRate handles storing or overwriting an exchange rate
// @Summary     Set exchange rate
// @Description Store or overwrite the rate from the base currency to the given currency
// @Tags        rates
// @Accept      json
// @Produce     json
// @Param       request body UpsertRateRequest true "Rate details"
// @Success     200 {object} models.ExchangeRate "Stored rate"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rates [put]
func (h *RateHandler) UpsertRate(c *gin.Context) {
	var req UpsertRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rate, err := h.rateService.UpsertRate(req.Currency, req.Rate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rate": rate})
}
