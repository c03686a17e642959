package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/currency"
)

// transactionRequest is the payload for creating or updating a transaction.
// Amounts arrive as JSON numbers or strings; the adapter passes them on as
// decimals without reformatting.
type transactionRequest struct {
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Description string          `json:"description,omitempty"`
}

type transactionResponse struct {
	ID             int64           `json:"id"`
	Date           string          `json:"date"`
	Category       string          `json:"category"`
	AmountOriginal decimal.Decimal `json:"amount_original"`
	CurrencyCode   string          `json:"currency_code"`
	AmountHome     decimal.Decimal `json:"amount_home"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:             t.ID,
		Date:           t.Date.String(),
		Category:       t.Category,
		AmountOriginal: t.AmountOriginal,
		CurrencyCode:   t.CurrencyCode,
		AmountHome:     t.AmountHome,
		Description:    t.Description,
	}
	if !t.CreatedAt.IsZero() {
		resp.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func toTransactionList(ts []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(ts))
	for i, t := range ts {
		out[i] = toTransactionResponse(t)
	}
	return out
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		rows []core.Transaction
		err  error
	)
	switch {
	case strings.TrimSpace(q.Get("q")) != "":
		rows, err = s.ledger.Search(ctx, q.Get("q"))
	case q.Get("year") != "" || q.Get("month") != "":
		year, month := parseYearMonth(r)
		rows, err = s.ledger.ListByMonth(ctx, year, month)
	default:
		rows, err = s.ledger.ListAll(ctx)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionList(rows))
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	req, date, ok := decodeTransactionRequest(w, r)
	if !ok {
		return
	}

	id, err := s.ledger.AddTransaction(r.Context(), date, req.Category, req.Amount, req.Currency, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	t, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid transaction id", Code: "bad_request"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := s.ledger.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponse(t))

	case http.MethodPut, http.MethodPost:
		req, date, ok := decodeTransactionRequest(w, r)
		if !ok {
			return
		}
		if err := s.ledger.UpdateTransaction(r.Context(), id, date, req.Category, req.Amount, req.Currency, req.Description); err != nil {
			writeError(w, err)
			return
		}
		t, err := s.ledger.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransactionResponse(t))

	case http.MethodDelete:
		n, err := s.ledger.DeleteTransaction(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"removed": n})

	default:
		methodNotAllowed(w, "GET, PUT, POST, DELETE")
	}
}

func decodeTransactionRequest(w http.ResponseWriter, r *http.Request) (transactionRequest, core.Date, bool) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "bad_request"})
		return req, core.Date{}, false
	}

	req.Category = sanitizeInput(req.Category)
	req.Description = sanitizeInput(req.Description)
	req.Currency = sanitizeInput(req.Currency)

	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "date must be YYYY-MM-DD", Code: "invalid_date"})
		return req, core.Date{}, false
	}
	return req, date, true
}

type budgetRequest struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		year, month := parseYearMonth(r)
		progress, err := s.budget.Progress(r.Context(), year, month)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, progress)

	case http.MethodPut, http.MethodPost:
		var req budgetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "bad_request"})
			return
		}
		if err := s.ledger.SetBudget(r.Context(), req.Year, req.Month, req.Amount); err != nil {
			writeError(w, err)
			return
		}
		progress, err := s.budget.Progress(r.Context(), req.Year, req.Month)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, progress)

	default:
		methodNotAllowed(w, "GET, PUT, POST")
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	today := core.DateOf(time.Now())
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "date must be YYYY-MM-DD", Code: "invalid_date"})
			return
		}
		today = d
	}

	dash, err := s.reports.Dashboard(r.Context(), today)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year, month := parseYearMonth(r)
	report, err := s.reports.MonthlyReport(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleDailySeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year, month := parseYearMonth(r)
	series, err := s.reports.DailySeries(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}

	type point struct {
		Date  string          `json:"date"`
		Total decimal.Decimal `json:"total"`
	}
	out := make([]point, len(series))
	for i, p := range series {
		out[i] = point{Date: p.Date.String(), Total: p.Total}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	writeJSON(w, http.StatusOK, core.Categories())
}

// handleRates exposes the currency table. GET returns the current rates;
// POST merges a rate table supplied by an external provider collaborator.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"home":  s.rates.Home(),
			"rates": s.rates.Snapshot(),
		})

	case http.MethodPost, http.MethodPut:
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "bad_request"})
			return
		}
		// Malformed values are skipped, not fatal, matching the file provider.
		applied := s.rates.Update(currency.ParseRates(raw))
		writeJSON(w, http.StatusOK, map[string]int{"applied": applied})

	default:
		methodNotAllowed(w, "GET, POST, PUT")
	}
}
