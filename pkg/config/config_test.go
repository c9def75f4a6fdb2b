package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/highscan")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8089" {
		t.Errorf("Expected Port to be 8089, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Screening.StartDate != "2024-03-01" {
		t.Errorf("Expected StartDate 2024-03-01, got %s", cfg.Screening.StartDate)
	}

	if cfg.Screening.FetchMaxAttempts != 3 {
		t.Errorf("Expected FetchMaxAttempts to be 3, got %d", cfg.Screening.FetchMaxAttempts)
	}

	if cfg.Screening.FetchInitialDelay != 2*time.Second {
		t.Errorf("Expected FetchInitialDelay to be 2s, got %v", cfg.Screening.FetchInitialDelay)
	}

	if cfg.Screening.FetchBackoff != 2 {
		t.Errorf("Expected FetchBackoff to be 2, got %v", cfg.Screening.FetchBackoff)
	}

	if want := filepath.Join("/tmp/highscan", "error_log.txt"); cfg.ErrorLogPath != want {
		t.Errorf("Expected ErrorLogPath %s, got %s", want, cfg.ErrorLogPath)
	}

	if cfg.Timezone != "Asia/Shanghai" {
		t.Errorf("Expected Timezone Asia/Shanghai, got %s", cfg.Timezone)
	}

	if cfg.RetentionDays != 30 {
		t.Errorf("Expected RetentionDays to be 30, got %d", cfg.RetentionDays)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("WORKERS", "32")
	t.Setenv("K_TYPE", "2")
	t.Setenv("FETCH_BACKOFF", "1.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Screening.Workers != 32 {
		t.Errorf("Expected Workers to be 32, got %d", cfg.Screening.Workers)
	}

	if cfg.Screening.KType != 2 {
		t.Errorf("Expected KType to be 2, got %d", cfg.Screening.KType)
	}

	if cfg.Screening.FetchBackoff != 1.5 {
		t.Errorf("Expected FetchBackoff to be 1.5, got %v", cfg.Screening.FetchBackoff)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}

	if !cfg.Redis.Enabled {
		t.Error("Expected Redis to be enabled")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid env", "ENV", "invalid"},
		{"invalid timezone", "TIMEZONE", "Mars/Olympus"},
		{"invalid start date", "START_DATE", "2024/03/01"},
		{"invalid k type", "K_TYPE", "9"},
		{"negative workers", "WORKERS", "-1"},
		{"zero attempts", "FETCH_MAX_ATTEMPTS", "0"},
		{"shrinking backoff", "FETCH_BACKOFF", "0.5"},
		{"negative retention", "RETENTION_DAYS", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Expected error when %s=%s, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}

	t.Setenv("TEST_INT", "abc")
	if value := getEnvAsInt("TEST_INT", 50); value != 50 {
		t.Errorf("Expected fallback 50, got %d", value)
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "2.5")

	if value := getEnvAsFloat("TEST_FLOAT", 1); value != 2.5 {
		t.Errorf("Expected value to be 2.5, got %v", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}

func TestSetDataDir(t *testing.T) {
	cfg := &Config{DataDir: "./data", ErrorLogPath: filepath.Join("./data", "error_log.txt")}
	cfg.SetDataDir("/srv/highscan")

	if cfg.DataDir != "/srv/highscan" {
		t.Errorf("Expected DataDir /srv/highscan, got %s", cfg.DataDir)
	}
	if cfg.ErrorLogPath != filepath.Join("/srv/highscan", "error_log.txt") {
		t.Errorf("Expected default error log to follow DataDir, got %s", cfg.ErrorLogPath)
	}

	custom := &Config{DataDir: "./data", ErrorLogPath: "/var/log/highscan.txt"}
	custom.SetDataDir("/srv/highscan")
	if custom.ErrorLogPath != "/var/log/highscan.txt" {
		t.Errorf("Expected explicit error log to stay, got %s", custom.ErrorLogPath)
	}
}
