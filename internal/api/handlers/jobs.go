package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/highscan/internal/scheduler"
)

// JobScheduler is the part of *scheduler.Scheduler the API uses
type JobScheduler interface {
	GetJobStats() map[string]scheduler.JobStats
	RunJob(jobName string) error
}

// JobsHandler exposes scheduled job stats
type JobsHandler struct {
	scheduler JobScheduler
}

// NewJobsHandler creates a jobs handler
func NewJobsHandler(s JobScheduler) *JobsHandler {
	return &JobsHandler{scheduler: s}
}

// List returns stats for every registered job
// GET /api/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.GetJobStats())
}

// Run starts a job outside its schedule
// POST /api/jobs/{name}/run
func (h *JobsHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.scheduler.RunJob(name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"job":    name,
	})
}
