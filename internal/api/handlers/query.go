package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dvloznov/copilot-ledger/internal/api/middleware"
	"github.com/dvloznov/copilot-ledger/internal/logger"
	"github.com/dvloznov/copilot-ledger/internal/store"
	"github.com/dvloznov/copilot-ledger/internal/tools"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// QueryHandler serves the read-only transaction and account endpoints.
type QueryHandler struct {
	tools *tools.Tools
	log   zerolog.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(t *tools.Tools, log zerolog.Logger) *QueryHandler {
	return &QueryHandler{tools: t, log: log}
}

// ListTransactions handles GET /api/transactions
func (h *QueryHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q, "limit")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	minAmount, err := decimalParam(q, "min_amount")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxAmount, err := decimalParam(q, "max_amount")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.tools.GetTransactions(r.Context(), tools.TransactionParams{
		Period:    q.Get("period"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Category:  q.Get("category"),
		Merchant:  q.Get("merchant"),
		AccountID: q.Get("account_id"),
		MinAmount: minAmount,
		MaxAmount: maxAmount,
		Limit:     limit,
	})
	if err != nil {
		h.writeError(w, r, err, "Failed to list transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// SearchTransactions handles GET /api/transactions/search?q=...
func (h *QueryHandler) SearchTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q, "limit")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.tools.SearchTransactions(r.Context(), tools.SearchParams{
		Query: q.Get("q"),
		Limit: limit,
	})
	if err != nil {
		h.writeError(w, r, err, "Failed to search transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// ListAccounts handles GET /api/accounts
func (h *QueryHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	res, err := h.tools.GetAccounts(r.Context(), tools.AccountParams{
		AccountType: r.URL.Query().Get("type"),
	})
	if err != nil {
		h.writeError(w, r, err, "Failed to list accounts")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// GetAccountBalance handles GET /api/accounts/{id}/balance
func (h *QueryHandler) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	res, err := h.tools.GetAccountBalance(r.Context(), tools.BalanceParams{
		AccountID: chi.URLParam(r, "id"),
	})
	if err != nil {
		h.writeError(w, r, err, "Failed to get account balance")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// ListCategories handles GET /api/categories
func (h *QueryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.tools.Database().Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err, "Failed to list categories")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetSpending handles GET /api/spending
func (h *QueryHandler) GetSpending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minAmount, err := decimalParam(q, "min_amount")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.tools.GetSpendingByCategory(r.Context(), tools.SpendingParams{
		Period:    q.Get("period"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		MinAmount: minAmount,
	})
	if err != nil {
		h.writeError(w, r, err, "Failed to compute spending")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

func (h *QueryHandler) writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, tools.ErrInvalidArgument):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tools.ErrAccountNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDatabaseUnavailable):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Copilot Money database not found")
	default:
		log := logger.FromContext(r.Context(), h.log)
		log.Error().Err(err).Msg(message)
		middleware.WriteError(w, http.StatusInternalServerError, message)
	}
}

func intParam(q url.Values, name string) (int, error) {
	s := q.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("Invalid " + name + " parameter")
	}
	return n, nil
}

func decimalParam(q url.Values, name string) (*decimal.Decimal, error) {
	s := q.Get(name)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.New("Invalid " + name + " parameter")
	}
	return &d, nil
}
