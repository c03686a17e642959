// Package http is the JSON adapter surface over the ledger core. It does
// no business logic of its own: handlers parse primitives, call the
// services and serialize their results.
package http

import (
	"net/http"
	"time"

	"kharcha/internal/currency"
	"kharcha/internal/middleware/ratelimit"
	"kharcha/internal/middleware/trace"
	"kharcha/internal/services"
)

type Server struct {
	http.Server

	ledger  *services.LedgerService
	reports *services.ReportService
	budget  *services.BudgetService
	rates   *currency.Table

	limiter *ratelimit.Limiter
}

func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService, budget *services.BudgetService, rates *currency.Table) *Server {
	s := &Server{
		ledger:  ledger,
		reports: reports,
		budget:  budget,
		rates:   rates,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleHealth)

	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/budget", s.handleBudget)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/reports/monthly", s.handleMonthlyReport)
	mux.HandleFunc("/api/reports/daily", s.handleDailySeries)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/rates", s.handleRates)

	traceMW := trace.NewMiddleware(nil)

	s.Server = http.Server{
		Addr:    addr,
		Handler: traceMW.Middleware(s.limiter.Middleware(mux)),

		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}

	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StopBackground stops the server's housekeeping goroutines. Shutdown does
// not call it because the limiter is shared with in-flight requests.
func (s *Server) StopBackground() {
	s.limiter.Stop()
}
