package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kharcha/internal/core"
)

// errorResponse is the body of every non-2xx API reply.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps core sentinel errors onto HTTP statuses and a stable
// machine-readable code. Unrecognized errors are internal.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		status, code = http.StatusUnprocessableEntity, "invalid_amount"
	case errors.Is(err, core.ErrInvalidCategory):
		status, code = http.StatusUnprocessableEntity, "invalid_category"
	case errors.Is(err, core.ErrInvalidDate):
		status, code = http.StatusUnprocessableEntity, "invalid_date"
	case errors.Is(err, core.ErrInvalidDescription):
		status, code = http.StatusUnprocessableEntity, "invalid_description"
	case errors.Is(err, core.ErrInvalidMonth):
		status, code = http.StatusUnprocessableEntity, "invalid_month"
	case errors.Is(err, core.ErrUnknownCurrency):
		status, code = http.StatusUnprocessableEntity, "unknown_currency"
	case errors.Is(err, core.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrNoData):
		status, code = http.StatusNotFound, "no_data"
	case errors.Is(err, core.ErrStoreAccess):
		status, code = http.StatusInternalServerError, "store_access"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Don't leak driver internals to clients.
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Code: "method_not_allowed"})
}

// parseYearMonth extracts year and month from query parameters, defaulting
// to the current month.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}

	return year, month
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
