package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Storage
	DataDir      string
	ErrorLogPath string // default <DataDir>/error_log.txt
	Timezone     string

	// Screening
	Screening ScreeningConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Eastmoney EastmoneyConfig

	// Scheduler
	Schedule      string // cron spec with seconds
	RetentionDays int    // keep day files this many days, 0 = forever

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// ScreeningConfig holds fetch and pool settings for a daily run
type ScreeningConfig struct {
	StrategyFile string // optional YAML, empty = built-in chain
	StartDate    string // history start, YYYY-MM-DD
	KType        int    // 1=day, 2=week, 3=month
	Workers      int    // 0 = max(10, 2×cores)

	FetchMaxAttempts  int
	FetchInitialDelay time.Duration
	FetchBackoff      float64
	FetchMaxDelay     time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// EastmoneyConfig holds market data provider configuration
type EastmoneyConfig struct {
	KlineURL  string
	ListURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
	PageSize  int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Storage
		DataDir:      dataDir,
		ErrorLogPath: getEnv("ERROR_LOG_PATH", filepath.Join(dataDir, "error_log.txt")),
		Timezone:     getEnv("TIMEZONE", "Asia/Shanghai"),

		Screening: ScreeningConfig{
			StrategyFile:      getEnv("STRATEGY_FILE", ""),
			StartDate:         getEnv("START_DATE", "2024-03-01"),
			KType:             getEnvAsInt("K_TYPE", 1),
			Workers:           getEnvAsInt("WORKERS", 0),
			FetchMaxAttempts:  getEnvAsInt("FETCH_MAX_ATTEMPTS", 3),
			FetchInitialDelay: getEnvAsDuration("FETCH_INITIAL_DELAY", "2s"),
			FetchBackoff:      getEnvAsFloat("FETCH_BACKOFF", 2),
			FetchMaxDelay:     getEnvAsDuration("FETCH_MAX_DELAY", "30s"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		Eastmoney: EastmoneyConfig{
			KlineURL:  getEnv("EASTMONEY_KLINE_URL", "https://push2his.eastmoney.com/api/qt/stock/kline/get"),
			ListURL:   getEnv("EASTMONEY_LIST_URL", "https://82.push2.eastmoney.com/api/qt/clist/get"),
			Timeout:   getEnvAsDuration("PROVIDER_TIMEOUT", "10s"),
			RateLimit: getEnvAsFloat("PROVIDER_RPS", 20),
			PageSize:  getEnvAsInt("PROVIDER_PAGE_SIZE", 500),
		},

		// Scheduler: 장 마감 후 (15:30 CST, 평일)
		Schedule:      getEnv("SCHEDULE", "0 30 15 * * 1-5"),
		RetentionDays: getEnvAsInt("RETENTION_DAYS", 30),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// SetDataDir moves DATA_DIR; an error log left at its default moves with it
func (c *Config) SetDataDir(dir string) {
	if dir == "" {
		return
	}
	if c.ErrorLogPath == filepath.Join(c.DataDir, "error_log.txt") {
		c.ErrorLogPath = filepath.Join(dir, "error_log.txt")
	}
	c.DataDir = dir
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}

	if _, err := time.Parse("2006-01-02", c.Screening.StartDate); err != nil {
		return fmt.Errorf("START_DATE must be YYYY-MM-DD, got %q", c.Screening.StartDate)
	}

	if c.Screening.KType < 1 || c.Screening.KType > 3 {
		return fmt.Errorf("K_TYPE must be 1, 2 or 3, got %d", c.Screening.KType)
	}

	if c.Screening.Workers < 0 {
		return fmt.Errorf("WORKERS must be >= 0, got %d", c.Screening.Workers)
	}

	if c.Screening.FetchMaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be >= 1, got %d", c.Screening.FetchMaxAttempts)
	}

	if c.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must be >= 0, got %d", c.RetentionDays)
	}

	if c.Screening.FetchBackoff < 1 {
		return fmt.Errorf("FETCH_BACKOFF must be >= 1, got %v", c.Screening.FetchBackoff)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
