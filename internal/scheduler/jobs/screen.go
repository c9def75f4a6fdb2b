package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/pipeline"
	"github.com/wonny/highscan/pkg/logger"
	"github.com/wonny/highscan/pkg/redis"
	"github.com/wonny/highscan/pkg/retry"
)

// DayRunner runs one day (satisfied by *pipeline.Runner)
type DayRunner interface {
	Run(ctx context.Context, rc contracts.RunContext) (*pipeline.RunResult, error)
}

// ScreenJob runs the daily screen after market close
// ⭐ SSOT: 일별 스크리닝 스케줄은 이 Job에서만
type ScreenJob struct {
	runner       DayRunner
	dataDir      string
	errorLogPath string
	location     *time.Location
	schedule     string
	now          func() time.Time
	logger       *logger.Logger
}

// NewScreenJob creates a new screen job
func NewScreenJob(runner DayRunner, dataDir, errorLogPath string, loc *time.Location, schedule string, log *logger.Logger) *ScreenJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ScreenJob{
		runner:       runner,
		dataDir:      dataDir,
		errorLogPath: errorLogPath,
		location:     loc,
		schedule:     schedule,
		now:          time.Now,
		logger:       log,
	}
}

// Name returns the job name
func (j *ScreenJob) Name() string {
	return "daily_screen"
}

// Schedule returns the cron schedule (weekdays 15:30 CST by default, with seconds)
func (j *ScreenJob) Schedule() string {
	return j.schedule
}

// Run executes today's screen. Another run holding the day is not retried.
func (j *ScreenJob) Run(ctx context.Context) error {
	rc := contracts.NewRunContext(j.dataDir, j.now(), j.location).WithErrorLog(j.errorLogPath)
	j.logger.WithField("date_key", rc.DateKey).Info("Starting scheduled daily screen")

	res, err := j.runner.Run(ctx, rc)
	if errors.Is(err, pipeline.ErrRunInProgress) || errors.Is(err, redis.ErrLockHeld) {
		return retry.Permanent(err)
	}
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"date_key": res.DateKey,
		"outcome":  res.Outcome(),
		"passed":   len(res.Results),
	}).Info("Scheduled daily screen finished")
	return nil
}
