package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/daycache"
	"github.com/wonny/highscan/internal/screening"
	"github.com/wonny/highscan/pkg/logger"
	"github.com/wonny/highscan/pkg/redis"
)

// ErrRunInProgress is returned when this process is already running a day
var ErrRunInProgress = errors.New("run already in progress")

// Lock serializes runs of the same day across processes
type Lock interface {
	Acquire(ctx context.Context, dateKey, owner string, ttl time.Duration) error
	Release(ctx context.Context, dateKey, owner string) error
}

// SummaryStore keeps the last run record per day (Redis cache)
type SummaryStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Recorder receives run-level metrics
type Recorder interface {
	RunFinished(outcome string, duration time.Duration, passed int)
	TickerRejected(predicate string)
}

// Run outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// RunResult holds the results of a daily run
type RunResult struct {
	RunID         string                      `json:"run_id"`
	DateKey       string                      `json:"date_key"`
	StrategyID    string                      `json:"strategy_id,omitempty"`
	Skipped       bool                        `json:"skipped"`
	UniverseCount int                         `json:"universe_count"`
	Results       []contracts.ScreeningResult `json:"results"`
	Summary       screening.Summary           `json:"summary"`
	StartedAt     time.Time                   `json:"started_at"`
	Duration      time.Duration               `json:"duration"`
	Error         string                      `json:"error,omitempty"`
}

// Outcome classifies the run for metrics and status
func (r *RunResult) Outcome() string {
	switch {
	case r.Error != "":
		return OutcomeFailed
	case r.Skipped:
		return OutcomeSkipped
	default:
		return OutcomeCompleted
	}
}

// Config holds runner options
type Config struct {
	StrategyID   string
	StrategyHash string
	LockTTL      time.Duration // 0 = 6h
}

// Runner runs one day: result check → lock → universe → screen → persist
// ⭐ SSOT: 일별 실행 흐름은 여기서만
type Runner struct {
	universe  *daycache.UniverseCache
	results   *daycache.ResultCache
	screener  *screening.Orchestrator
	chain     screening.Evaluator
	config    Config
	lock      Lock
	summaries SummaryStore
	recorder  Recorder
	logger    *logger.Logger

	mu      sync.Mutex
	running bool
	last    *RunResult
}

// NewRunner creates a Runner
func NewRunner(
	universe *daycache.UniverseCache,
	results *daycache.ResultCache,
	screener *screening.Orchestrator,
	chain screening.Evaluator,
	cfg Config,
	log *logger.Logger,
) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 6 * time.Hour
	}
	return &Runner{
		universe: universe,
		results:  results,
		screener: screener,
		chain:    chain,
		config:   cfg,
		logger:   log.WithComponent("pipeline"),
	}
}

// WithLock sets the cross-process run lock
func (r *Runner) WithLock(l Lock) *Runner {
	r.lock = l
	return r
}

// WithSummaryStore sets where finished run records are mirrored
func (r *Runner) WithSummaryStore(s SummaryStore) *Runner {
	r.summaries = s
	return r
}

// WithRecorder sets the metrics recorder and hooks rejection counts
func (r *Runner) WithRecorder(rec Recorder) *Runner {
	r.recorder = rec
	if rec != nil {
		r.screener.OnProgress(func(p screening.Progress) {
			if p.Last.State == contracts.StateRejected {
				rec.TickerRejected(p.Last.RejectedBy)
			}
		})
	}
	return r
}

// Last returns the most recent run record of this process, if any
func (r *Runner) Last() *RunResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Running reports whether a run is in progress in this process
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Done carries the outcome of a run started with Start
type Done struct {
	Result *RunResult
	Err    error
}

// Run executes the day described by rc. When today's result file already
// exists it is returned with Skipped set and the provider is never called.
func (r *Runner) Run(ctx context.Context, rc contracts.RunContext) (*RunResult, error) {
	if err := r.reserve(); err != nil {
		return nil, err
	}
	return r.execute(ctx, rc)
}

// Start reserves the runner before returning, then runs rc in the background.
// ErrRunInProgress is reported synchronously; the channel delivers one Done.
func (r *Runner) Start(ctx context.Context, rc contracts.RunContext) (<-chan Done, error) {
	if err := r.reserve(); err != nil {
		return nil, err
	}

	done := make(chan Done, 1)
	go func() {
		defer close(done)
		res, err := r.execute(ctx, rc)
		done <- Done{Result: res, Err: err}
	}()
	return done, nil
}

func (r *Runner) reserve() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrRunInProgress
	}
	r.running = true
	return nil
}

// execute runs a reserved day; finish clears the reservation
func (r *Runner) execute(ctx context.Context, rc contracts.RunContext) (*RunResult, error) {
	start := time.Now()
	log := r.logger.WithRun(rc.RunID, rc.DateKey)
	result := &RunResult{
		RunID:      rc.RunID,
		DateKey:    rc.DateKey,
		StrategyID: r.config.StrategyID,
		StartedAt:  start,
	}

	err := r.run(ctx, rc, result, log)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err.Error()
	}

	r.finish(ctx, result, log)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (r *Runner) run(ctx context.Context, rc contracts.RunContext, result *RunResult, log *logger.Logger) error {
	// 1. 오늘 결과 파일이 있으면 건너뜀 (외부 호출 0회)
	if skipped, err := r.loadExisting(rc, result, log); skipped || err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"strategy_id":   r.config.StrategyID,
		"strategy_hash": r.config.StrategyHash,
		"workers":       r.screener.Workers(),
	}).Info("Starting daily run")

	// 2. 일별 실행 잠금
	if r.lock != nil {
		if err := r.lock.Acquire(ctx, rc.DateKey, rc.RunID, r.config.LockTTL); err != nil {
			return err
		}
		defer func() {
			if err := r.lock.Release(context.WithoutCancel(ctx), rc.DateKey, rc.RunID); err != nil {
				log.WithError(err).Warn("Failed to release run lock")
			}
		}()

		// another process may have finished while we waited
		if skipped, err := r.loadExisting(rc, result, log); skipped || err != nil {
			return err
		}
	}

	// 3. 종목 스냅샷
	u, err := r.universe.Ensure(ctx, rc)
	if err != nil {
		return fmt.Errorf("%s: %w", contracts.StageUniverse, err)
	}
	result.UniverseCount = u.Count()

	// 4. 스크리닝 + 결과 저장
	results, hit, err := r.results.Ensure(ctx, rc, u, func(ctx context.Context, u *contracts.Universe) ([]contracts.ScreeningResult, error) {
		res, summary, err := r.screener.Run(ctx, u, r.chain)
		result.Summary = summary
		if err != nil {
			return nil, fmt.Errorf("%s: %w", contracts.StageScreen, err)
		}
		return res, nil
	})
	if errors.Is(err, daycache.ErrPersist) {
		return fmt.Errorf("%s: %w", contracts.StagePersist, err)
	}
	if err != nil {
		return err
	}

	result.Skipped = hit
	result.Results = results
	return nil
}

func (r *Runner) loadExisting(rc contracts.RunContext, result *RunResult, log *logger.Logger) (bool, error) {
	if !r.results.Exists(rc) {
		return false, nil
	}

	results, err := r.results.Load(rc)
	if err != nil {
		return true, err
	}
	result.Skipped = true
	result.Results = results
	result.Summary.Passed = len(results)

	log.WithFields(map[string]interface{}{
		"path":   rc.ResultPath,
		"passed": len(results),
	}).Info("Result file for today exists, run skipped")
	return true, nil
}

func (r *Runner) finish(ctx context.Context, result *RunResult, log *logger.Logger) {
	outcome := result.Outcome()

	if r.recorder != nil {
		r.recorder.RunFinished(outcome, result.Duration, len(result.Results))
	}

	if r.summaries != nil {
		record := *result
		record.Results = nil
		if err := r.summaries.Set(context.WithoutCancel(ctx), redis.RunSummaryKey(result.DateKey), record, redis.TTLRunSummary); err != nil {
			log.WithError(err).Warn("Failed to store run summary")
		}
	}

	fields := map[string]interface{}{
		"outcome":  outcome,
		"passed":   len(result.Results),
		"universe": result.UniverseCount,
		"duration": result.Duration.String(),
	}
	if outcome == OutcomeFailed {
		log.WithFields(fields).WithField("error", result.Error).Error("Daily run failed")
	} else {
		log.WithFields(fields).Info("Daily run finished")
	}

	r.mu.Lock()
	r.running = false
	r.last = result
	r.mu.Unlock()
}
