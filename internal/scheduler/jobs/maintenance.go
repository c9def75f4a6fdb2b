package jobs

import (
	"context"
	"time"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/daycache"
	"github.com/wonny/highscan/pkg/logger"
)

// RetentionJob removes day files older than the retention window
type RetentionJob struct {
	dataDir  string
	days     int
	location *time.Location
	now      func() time.Time
	logger   *logger.Logger
}

// NewRetentionJob creates a new retention job
func NewRetentionJob(dataDir string, days int, loc *time.Location, log *logger.Logger) *RetentionJob {
	if log == nil {
		log = logger.Nop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &RetentionJob{
		dataDir:  dataDir,
		days:     days,
		location: loc,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "day_file_retention"
}

// Schedule returns the cron schedule (every day at 03:00)
func (j *RetentionJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run executes the cleanup
func (j *RetentionJob) Run(ctx context.Context) error {
	if j.days <= 0 {
		return nil
	}

	cutoff := j.now().In(j.location).AddDate(0, 0, -j.days).Format(contracts.DateKeyLayout)
	removed, err := daycache.Prune(j.dataDir, cutoff)
	if err != nil {
		return err
	}

	if len(removed) > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": len(removed),
			"cutoff":  cutoff,
		}).Info("Day file cleanup completed")
	}

	return nil
}
