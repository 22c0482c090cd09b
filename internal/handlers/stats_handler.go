package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moneta/internal/charts"
	apperrors "moneta/internal/errors"
	"moneta/internal/ledger"
	"moneta/internal/services"
	"moneta/internal/timerange"
	"moneta/internal/uuid"
)

// StatsHandler handles aggregation queries: entity statistics and chart series.
type StatsHandler struct {
	statsService services.StatsServicer
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService services.StatsServicer) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetAccountStats handles the retrieval of one account's statistics
// @Summary     Account statistics
// @Description Get balance, income, expense, and counts for an account over a period, in the account's own currency
// @Tags        stats
// @Accept      json
// @Produce     json
// @Param       id   path  string true  "Account ID"
// @Param       from query string false "Period start (RFC3339 or YYYY-MM-DD, default all-time)"
// @Param       to   query string false "Period end (RFC3339 or YYYY-MM-DD, default now)"
// @Success     200 {object} ledger.Stats "Account statistics"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id}/stats [get]
func (h *StatsHandler) GetAccountStats(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rng, err := parseTimeRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statsService.AccountStats(c.Request.Context(), accountID, rng)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetCategoryStats handles the retrieval of one category's statistics
// @Summary     Category statistics
// @Description Get balance, income, expense, and counts for a category over a period. Use "unspecified" as the ID for uncategorized transactions.
// @Tags        stats
// @Accept      json
// @Produce     json
// @Param       id          path  string true  "Category ID or 'unspecified'"
// @Param       from        query string false "Period start (RFC3339 or YYYY-MM-DD, default all-time)"
// @Param       to          query string false "Period end (RFC3339 or YYYY-MM-DD, default now)"
// @Param       account_ids query string false "Repeatable account ID filter"
// @Success     200 {object} ledger.Stats "Category statistics"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id}/stats [get]
func (h *StatsHandler) GetCategoryStats(c *gin.Context) {
	categoryID := c.Param("id")
	if categoryID == "unspecified" {
		categoryID = ""
	} else if !uuid.IsValid(categoryID) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid id"))
		return
	}

	rng, err := parseTimeRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountIDs := c.QueryArray("account_ids")
	for _, id := range accountIDs {
		if !uuid.IsValid(id) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account_ids entry"))
			return
		}
	}

	stats, err := h.statsService.CategoryStats(c.Request.Context(), categoryID, rng, accountIDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetWalletStats handles the retrieval of wallet-wide statistics
// @Summary     Wallet statistics
// @Description Get balance, income, expense, and counts across all accounts, converted to the base currency
// @Tags        stats
// @Accept      json
// @Produce     json
// @Param       from query string false "Period start (RFC3339 or YYYY-MM-DD, default all-time)"
// @Param       to   query string false "Period end (RFC3339 or YYYY-MM-DD, default now)"
// @Success     200 {object} ledger.Stats "Wallet statistics"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Exchange rate unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /stats [get]
func (h *StatsHandler) GetWalletStats(c *gin.Context) {
	rng, err := parseTimeRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statsService.WalletStats(c.Request.Context(), rng)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// chartParams parses the shared chart query parameters.
func chartParams(c *gin.Context) (accountID *string, rng timerange.ClosedTimeRange, interval timerange.Interval, err error) {
	if v := c.Query("account_id"); v != "" {
		if !uuid.IsValid(v) {
			return nil, rng, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account_id")
		}
		accountID = &v
	}

	rng, err = parseTimeRange(c)
	if err != nil {
		return nil, rng, "", err
	}

	interval = timerange.IntervalMonth
	if v := c.Query("interval"); v != "" {
		switch timerange.Interval(v) {
		case timerange.IntervalDay, timerange.IntervalWeek, timerange.IntervalMonth, timerange.IntervalYear:
			interval = timerange.Interval(v)
		default:
			return nil, rng, "", apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid interval, must be day, week, month, or year")
		}
	}
	return accountID, rng, interval, nil
}

// chartCategoryParam parses the optional category_id chart parameter.
// "unspecified" selects the uncategorized bucket.
func chartCategoryParam(c *gin.Context) (*string, error) {
	v, ok := c.GetQuery("category_id")
	if !ok {
		return nil, nil
	}
	if v == "unspecified" {
		v = ""
	} else if !uuid.IsValid(v) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category_id")
	}
	return &v, nil
}

// GetBalanceChart handles the retrieval of the cumulative balance series
// @Summary     Balance chart
// @Description Get the cumulative balance series over a period. Each point carries the balance from the beginning of time up to its bucket's end.
// @Tags        stats
// @Accept      json
// @Produce     json
// @Param       account_id query string false "Restrict to one account (default whole wallet in base currency)"
// @Param       from       query string false "Period start (RFC3339 or YYYY-MM-DD, default all-time)"
// @Param       to         query string false "Period end (RFC3339 or YYYY-MM-DD, default now)"
// @Param       interval   query string false "Bucket width: day, week, month (default), or year"
// @Success     200 {object} []charts.Point[decimal.Decimal] "Balance series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "Exchange rate unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /charts/balance [get]
func (h *StatsHandler) GetBalanceChart(c *gin.Context) {
	accountID, rng, interval, err := chartParams(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, ok := c.GetQuery("category_id"); ok {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "the balance chart does not support category_id"))
		return
	}

	points, err := h.statsService.BalanceChart(c.Request.Context(), accountID, rng.From, rng.To, interval)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": points})
}

// GetIncomeExpenseChart handles the retrieval of per-bucket income/expense totals
// @Summary     Income/expense chart
// @Description Get per-bucket income and expense totals over a period, for the whole wallet, one account, or one category
// @Tags        stats
// @Accept      json
// @Produce     json
// @Param       account_id  query string false "Restrict to one account (default whole wallet in base currency)"
// @Param       category_id query string false "Restrict to one category, 'unspecified' for uncategorized; mutually exclusive with account_id"
// @Param       from        query string false "Period start (RFC3339 or YYYY-MM-DD, default all-time)"
// @Param       to          query string false "Period end (RFC3339 or YYYY-MM-DD, default now)"
// @Param       interval    query string false "Bucket width: day, week, month (default), or year"
// @Success     200 {object} []charts.Point[ledger.IncomeExpensePair] "Income/expense series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     422 {object} ErrorResponse "Exchange rate unavailable"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /charts/income-expense [get]
func (h *StatsHandler) GetIncomeExpenseChart(c *gin.Context) {
	accountID, rng, interval, err := chartParams(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := chartCategoryParam(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if categoryID != nil && accountID != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "account_id and category_id are mutually exclusive"))
		return
	}

	var points []charts.Point[ledger.IncomeExpensePair]
	if categoryID != nil {
		points, err = h.statsService.CategoryIncomeExpenseChart(c.Request.Context(), *categoryID, rng.From, rng.To, interval)
	} else {
		points, err = h.statsService.IncomeExpenseChart(c.Request.Context(), accountID, rng.From, rng.To, interval)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": points})
}

// GetIncomeExpenseCountChart handles the retrieval of per-bucket transaction counts
// @Summary     Transaction count chart
// @Description Get per-bucket income and expense transaction counts over a period, for the whole wallet, one account, or one category
// @Tags        stats
// @Accept      json
// @Produce     json
// @Param       account_id  query string false "Restrict to one account (default whole wallet)"
// @Param       category_id query string false "Restrict to one category, 'unspecified' for uncategorized; mutually exclusive with account_id"
// @Param       from        query string false "Period start (RFC3339 or YYYY-MM-DD, default all-time)"
// @Param       to          query string false "Period end (RFC3339 or YYYY-MM-DD, default now)"
// @Param       interval    query string false "Bucket width: day, week, month (default), or year"
// @Success     200 {object} []charts.Point[ledger.CountPair] "Count series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /charts/counts [get]
func (h *StatsHandler) GetIncomeExpenseCountChart(c *gin.Context) {
	accountID, rng, interval, err := chartParams(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	categoryID, err := chartCategoryParam(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if categoryID != nil && accountID != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "account_id and category_id are mutually exclusive"))
		return
	}

	var points []charts.Point[ledger.CountPair]
	if categoryID != nil {
		points, err = h.statsService.CategoryIncomeExpenseCountChart(c.Request.Context(), *categoryID, rng.From, rng.To, interval)
	} else {
		points, err = h.statsService.IncomeExpenseCountChart(c.Request.Context(), accountID, rng.From, rng.To, interval)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": points})
}
