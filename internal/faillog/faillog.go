package faillog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Entry describes one fetch that exhausted its retries
type Entry struct {
	Ticker    string
	Operation string
	StartDate string
	KType     int
	Attempts  int
	Err       error
}

// Recorder receives exhausted-retry failures
type Recorder interface {
	Record(e Entry) error
}

// Log appends one text line per failure to a file.
// The file is opened on first use, so a clean run leaves no file behind.
// ⭐ SSOT: error_log.txt 기록은 여기서만
type Log struct {
	path string

	mu     sync.Mutex
	file   *os.File
	zl     zerolog.Logger
	opened bool
	count  int
}

// New creates a Log at path
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file location
func (l *Log) Path() string {
	return l.path
}

// Record appends e as a single line
func (l *Log) Record(e Entry) error {
	zl, err := l.logger()
	if err != nil {
		return err
	}

	msg := "<nil>"
	if e.Err != nil {
		msg = singleLine(e.Err.Error())
	}

	zl.Error().
		Str("ticker", e.Ticker).
		Str("op", e.Operation).
		Str("start_date", e.StartDate).
		Int("k_type", e.KType).
		Int("attempts", e.Attempts).
		Str("error", msg).
		Msg("retries exhausted")

	l.mu.Lock()
	l.count++
	l.mu.Unlock()
	return nil
}

// Count returns the number of entries written by this process
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Close closes the underlying file if it was opened
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.opened = false
	return err
}

func (l *Log) logger() (zerolog.Logger, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.opened {
		return l.zl, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return zerolog.Nop(), fmt.Errorf("create error log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("open error log: %w", err)
	}

	// ConsoleWriter renders each event into one buffered Write;
	// SyncWriter serializes those writes across workers.
	out := zerolog.ConsoleWriter{
		Out:        zerolog.SyncWriter(f),
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}

	l.file = f
	l.zl = zerolog.New(out).Level(zerolog.TraceLevel).With().Timestamp().Logger()
	l.opened = true
	return l.zl, nil
}

func singleLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}

// Nop discards entries
type Nop struct{}

func (Nop) Record(Entry) error { return nil }
