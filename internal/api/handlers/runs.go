package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/pipeline"
	"github.com/wonny/highscan/pkg/logger"
	"github.com/wonny/highscan/pkg/redis"
)

// DayRunner runs one day (satisfied by *pipeline.Runner)
type DayRunner interface {
	Start(ctx context.Context, rc contracts.RunContext) (<-chan pipeline.Done, error)
	Last() *pipeline.RunResult
	Running() bool
}

// SummaryReader reads run records other processes stored (satisfied by *redis.Cache)
type SummaryReader interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
}

// RunsHandler triggers and reports daily runs
type RunsHandler struct {
	runner       DayRunner
	baseCtx      context.Context
	dataDir      string
	errorLogPath string
	location     *time.Location
	summaries    SummaryReader
	now          func() time.Time
	logger       *logger.Logger
}

// NewRunsHandler creates a runs handler. Triggered runs inherit baseCtx,
// not the request context, so they outlive the HTTP call.
func NewRunsHandler(ctx context.Context, runner DayRunner, dataDir, errorLogPath string, loc *time.Location, log *logger.Logger) *RunsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RunsHandler{
		runner:       runner,
		baseCtx:      ctx,
		dataDir:      dataDir,
		errorLogPath: errorLogPath,
		location:     loc,
		now:          time.Now,
		logger:       log,
	}
}

// WithSummaries lets Today report runs finished by another process
func (h *RunsHandler) WithSummaries(s SummaryReader) *RunsHandler {
	h.summaries = s
	return h
}

// TodayResponse describes the state of today's run
type TodayResponse struct {
	DateKey     string              `json:"date_key"`
	Running     bool                `json:"running"`
	HasUniverse bool                `json:"has_universe"`
	HasResult   bool                `json:"has_result"`
	Last        *pipeline.RunResult `json:"last,omitempty"`
}

// Today returns today's file state and the last run of today, from this
// process or else from the shared summary store
// GET /api/runs/today
func (h *RunsHandler) Today(w http.ResponseWriter, r *http.Request) {
	rc := h.runContext()

	resp := TodayResponse{
		DateKey:     rc.DateKey,
		Running:     h.runner.Running(),
		HasUniverse: isFile(rc.UniversePath),
		HasResult:   isFile(rc.ResultPath),
	}
	if last := h.runner.Last(); last != nil && last.DateKey == rc.DateKey {
		resp.Last = last
	} else if h.summaries != nil {
		var stored pipeline.RunResult
		found, err := h.summaries.Get(r.Context(), redis.RunSummaryKey(rc.DateKey), &stored)
		if err != nil {
			h.logger.WithError(err).Warn("Failed to read run summary")
		} else if found {
			resp.Last = &stored
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// Trigger starts today's run in the background. The runner is reserved
// before the response, so concurrent triggers get exactly one 202.
// POST /api/runs
func (h *RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	rc := h.runContext()
	log := h.logger.WithRun(rc.RunID, rc.DateKey)

	done, err := h.runner.Start(h.baseCtx, rc)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to start run")
		respondError(w, http.StatusInternalServerError, "failed to start run")
		return
	}

	go func() {
		d := <-done
		switch {
		case errors.Is(d.Err, redis.ErrLockHeld):
			log.WithError(d.Err).Warn("Triggered run skipped")
		case d.Err != nil:
			log.WithError(d.Err).Error("Triggered run failed")
		default:
			log.WithField("outcome", d.Result.Outcome()).Info("Triggered run finished")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":   "accepted",
		"run_id":   rc.RunID,
		"date_key": rc.DateKey,
	})
}

func (h *RunsHandler) runContext() contracts.RunContext {
	return contracts.NewRunContext(h.dataDir, h.now(), h.location).WithErrorLog(h.errorLogPath)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
