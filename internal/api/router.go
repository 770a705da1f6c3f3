// Package api assembles the HTTP routes serving decoded Copilot Money data.
package api

import (
	"net/http"

	"github.com/dvloznov/copilot-ledger/internal/api/handlers"
	"github.com/dvloznov/copilot-ledger/internal/api/middleware"
	"github.com/dvloznov/copilot-ledger/internal/jobs"
	"github.com/dvloznov/copilot-ledger/internal/tools"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Deps are the services behind the routes.
type Deps struct {
	Tools     *tools.Tools
	Publisher jobs.Publisher
	Jobs      jobs.JobStore
	AuthToken string
	Log       zerolog.Logger
}

// NewRouter returns the handler for all API routes.
func NewRouter(d Deps) http.Handler {
	query := handlers.NewQueryHandler(d.Tools, d.Log)
	jobsHandler := handlers.NewJobsHandler(d.Publisher, d.Jobs, d.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", handlers.Health(d.Tools.Database()))

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(d.AuthToken))

		r.Get("/transactions", query.ListTransactions)
		r.Get("/transactions/search", query.SearchTransactions)
		r.Get("/accounts", query.ListAccounts)
		r.Get("/accounts/{id}/balance", query.GetAccountBalance)
		r.Get("/categories", query.ListCategories)
		r.Get("/spending", query.GetSpending)

		r.Post("/refresh", jobsHandler.Refresh)
		r.Get("/jobs", jobsHandler.ListJobs)
		r.Get("/jobs/{id}", jobsHandler.GetJob)
	})

	return r
}
