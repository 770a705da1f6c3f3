package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/copilot-ledger/internal/api/middleware"
	"github.com/dvloznov/copilot-ledger/internal/jobs"
	"github.com/dvloznov/copilot-ledger/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// JobsHandler handles refresh job endpoints.
type JobsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	log       zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		publisher: publisher,
		store:     store,
		log:       log,
	}
}

// Refresh handles POST /api/refresh
func (h *JobsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	job := &jobs.RefreshJob{Reason: jobs.ReasonAPI}
	if err := h.publisher.PublishRefresh(r.Context(), job); err != nil {
		log := logger.FromContext(r.Context(), h.log)
		log.Error().Err(err).Msg("Failed to publish refresh job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to queue refresh")
		return
	}

	log := logger.FromContext(r.Context(), h.log)
	log.Info().Str("job_id", job.JobID).Msg("Refresh job queued")
	middleware.WriteJSON(w, http.StatusAccepted, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := intParam(q, "limit")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := intParam(q, "offset")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.store.ListJobs(r.Context(), jobs.JobFilter{
		Status: jobs.JobStatus(q.Get("status")),
		Reason: jobs.Reason(q.Get("reason")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log := logger.FromContext(r.Context(), h.log)
		log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.store.GetJob(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		log := logger.FromContext(r.Context(), h.log)
		log.Error().Err(err).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}
