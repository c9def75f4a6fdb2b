package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/highscan/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		wantLevel zerolog.Level
	}{
		{
			name:      "debug level",
			cfg:       &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"},
			wantLevel: zerolog.DebugLevel,
		},
		{
			name:      "info level",
			cfg:       &config.Config{Env: "production", LogLevel: "info", LogFormat: "json"},
			wantLevel: zerolog.InfoLevel,
		},
		{
			name:      "warn level",
			cfg:       &config.Config{Env: "staging", LogLevel: "warn", LogFormat: "json"},
			wantLevel: zerolog.WarnLevel,
		},
		{
			name:      "error level",
			cfg:       &config.Config{Env: "production", LogLevel: "error", LogFormat: "json"},
			wantLevel: zerolog.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			if logger == nil {
				t.Fatal("Expected logger to be created")
			}
			if logger.Level() != tt.wantLevel {
				t.Errorf("Expected level %v, got %v", tt.wantLevel, logger.Level())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // Default
		{"", zerolog.InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// decode parses the single JSON entry in buf
func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{zlog: zerolog.New(&buf).With().Timestamp().Logger()}

	tests := []struct {
		name      string
		logFunc   func()
		wantMsg   string
		wantLevel string
	}{
		{"debug", func() { logger.Debug("debug message") }, "debug message", "debug"},
		{"info", func() { logger.Info("info message") }, "info message", "info"},
		{"warn", func() { logger.Warn("warn message") }, "warn message", "warn"},
		{"error", func() { logger.Error("error message") }, "error message", "error"},
		{"infof", func() { logger.Infof("processed %d/%d", 10, 200) }, "processed 10/200", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc()

			entry := decode(t, &buf)
			if entry["level"] != tt.wantLevel {
				t.Errorf("Expected level %q, got %q", tt.wantLevel, entry["level"])
			}
			if entry["message"] != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, entry["message"])
			}
		})
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{zlog: zerolog.New(&buf)}

	logger.
		WithComponent("screening").
		WithRun("run-1", "2024-06-03").
		WithFields(map[string]interface{}{
			"stock_code": "000001",
			"processed":  42,
		}).
		Info("ticker passed")

	entry := decode(t, &buf)
	if entry["component"] != "screening" {
		t.Errorf("Expected component screening, got %v", entry["component"])
	}
	if entry["run_id"] != "run-1" || entry["date_key"] != "2024-06-03" {
		t.Errorf("Expected run fields, got %v / %v", entry["run_id"], entry["date_key"])
	}
	if entry["stock_code"] != "000001" {
		t.Errorf("Expected stock_code 000001, got %v", entry["stock_code"])
	}
	if entry["processed"] != float64(42) {
		t.Errorf("Expected processed 42, got %v", entry["processed"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{zlog: zerolog.New(&buf)}

	logger.WithError(errors.New("provider timeout")).WithTicker("600000").Error("fetch failed")

	entry := decode(t, &buf)
	if entry["error"] != "provider timeout" {
		t.Errorf("Expected error 'provider timeout', got %v", entry["error"])
	}
	if entry["stock_code"] != "600000" {
		t.Errorf("Expected stock_code 600000, got %v", entry["stock_code"])
	}
	if entry["message"] != "fetch failed" {
		t.Errorf("Expected message 'fetch failed', got %v", entry["message"])
	}
}

func TestLogFormats(t *testing.T) {
	for _, format := range []string{"json", "console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &config.Config{Env: "development", LogLevel: "info", LogFormat: format}

			NewWithWriter(cfg, &buf).Info("test message")

			if !strings.Contains(buf.String(), "test message") {
				t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
			}
		})
	}
}

func TestNop(t *testing.T) {
	// must not panic
	Nop().WithField("k", "v").Info("discarded")
}

func TestLevelIsPerLogger(t *testing.T) {
	var quiet, loud bytes.Buffer
	NewWithWriter(&config.Config{LogLevel: "error", LogFormat: "json"}, &quiet).Info("hidden")
	NewWithWriter(&config.Config{LogLevel: "debug", LogFormat: "json"}, &loud).Debug("shown")

	if quiet.Len() != 0 {
		t.Errorf("Expected info to be filtered at error level, got %s", quiet.String())
	}
	if !strings.Contains(loud.String(), "shown") {
		t.Errorf("Expected debug entry, got %q", loud.String())
	}
}
