package contracts

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DateKeyLayout formats a DateKey (YYYY-MM-DD)
const DateKeyLayout = "2006-01-02"

// RunContext carries the date-derived paths of one daily run.
// Built once at process entry and passed explicitly to the caches.
type RunContext struct {
	RunID        string
	DateKey      string
	DataDir      string
	UniversePath string
	ResultPath   string
	ErrorLogPath string
}

// NewRunContext derives the day's file paths from now in loc
func NewRunContext(dataDir string, now time.Time, loc *time.Location) RunContext {
	if loc == nil {
		loc = time.Local
	}
	return ForDate(dataDir, now.In(loc).Format(DateKeyLayout))
}

// ForDate builds a RunContext for an explicit DateKey
func ForDate(dataDir, dateKey string) RunContext {
	return RunContext{
		RunID:        uuid.New().String(),
		DateKey:      dateKey,
		DataDir:      dataDir,
		UniversePath: UniversePath(dataDir, dateKey),
		ResultPath:   ResultPath(dataDir, dateKey),
		ErrorLogPath: filepath.Join(dataDir, "error_log.txt"),
	}
}

// WithErrorLog overrides the error log location
func (rc RunContext) WithErrorLog(path string) RunContext {
	if path != "" {
		rc.ErrorLogPath = path
	}
	return rc
}

// UniversePath returns stock_info_<dateKey>.json under dataDir
func UniversePath(dataDir, dateKey string) string {
	return filepath.Join(dataDir, fmt.Sprintf("stock_info_%s.json", dateKey))
}

// ResultPath returns result_<dateKey>.json under dataDir
func ResultPath(dataDir, dateKey string) string {
	return filepath.Join(dataDir, fmt.Sprintf("result_%s.json", dateKey))
}

// ValidateDateKey checks s is a YYYY-MM-DD calendar date
func ValidateDateKey(s string) error {
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil || t.Format(DateKeyLayout) != s {
		return fmt.Errorf("invalid date key %q: want YYYY-MM-DD", s)
	}
	return nil
}
