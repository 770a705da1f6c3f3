package handlers

import (
	"net/http"

	"github.com/dvloznov/copilot-ledger/internal/api/middleware"
	"github.com/dvloznov/copilot-ledger/internal/store"
)

// Health handles GET /health. It reports whether the database directory is readable.
func Health(db *store.Database) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":             "ok",
			"database_available": db.IsAvailable(),
			"database_path":      db.Path(),
		})
	}
}
