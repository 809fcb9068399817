package handlers

import (
	"net/http"

	"github.com/wonny/livermore/internal/scheduler"
)

// JobStatsReader exposes scheduler status
type JobStatsReader interface {
	Stats() []scheduler.JobStats
}

// JobsHandler serves scheduler status when the API runs inside the scheduler process
type JobsHandler struct {
	jobs JobStatsReader
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(jobs JobStatsReader) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// List returns every registered job with its run counters
// GET /api/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.jobs.Stats(),
	})
}
