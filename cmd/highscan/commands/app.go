package commands

import (
	"fmt"
	"time"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/daycache"
	"github.com/wonny/highscan/internal/external/eastmoney"
	"github.com/wonny/highscan/internal/faillog"
	"github.com/wonny/highscan/internal/fetcher"
	"github.com/wonny/highscan/internal/metrics"
	"github.com/wonny/highscan/internal/pipeline"
	"github.com/wonny/highscan/internal/screening"
	"github.com/wonny/highscan/internal/selection"
	"github.com/wonny/highscan/internal/strategyconfig"
	"github.com/wonny/highscan/pkg/config"
	"github.com/wonny/highscan/pkg/httputil"
	"github.com/wonny/highscan/pkg/logger"
	"github.com/wonny/highscan/pkg/redis"
	"github.com/wonny/highscan/pkg/retry"
)

// keyPrefix namespaces every Redis key of this service
const keyPrefix = "highscan"

// progressLogInterval logs screening progress every N tickers
const progressLogInterval = 500

// app holds the wired components shared by the commands
// ⭐ SSOT: 컴포넌트 조립은 여기서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	location *time.Location

	redis     *redis.Client
	summaries *redis.Cache
	metrics   *metrics.Recorder
	failures  *faillog.Log
	provider  *eastmoney.Client

	universe *daycache.UniverseCache
	results  *daycache.ResultCache
	screener *screening.Orchestrator
	runner   *pipeline.Runner

	strategy     *strategyconfig.Config
	strategyHash string
	chain        *selection.Chain
}

// loadConfig reads env config and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.SetDataDir(dataDir)
	if strategyFile != "" {
		cfg.Screening.StrategyFile = strategyFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// loadStrategy returns the configured strategy (or the built-in one) and its hash
func loadStrategy(cfg *config.Config) (*strategyconfig.Config, string, error) {
	strategy := strategyconfig.Default()
	if path := cfg.Screening.StrategyFile; path != "" {
		loaded, err := strategyconfig.Load(path)
		if err != nil {
			return nil, "", err
		}
		strategy = loaded
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, "", fmt.Errorf("hash strategy: %w", err)
	}
	return strategy, hash, nil
}

// newApp wires config → clients → caches → orchestrator → runner
func newApp() (*app, error) {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	// 3. Strategy (predicate chain)
	strategy, hash, err := loadStrategy(cfg)
	if err != nil {
		return nil, err
	}
	chain, err := strategy.BuildChain()
	if err != nil {
		return nil, fmt.Errorf("build chain: %w", err)
	}

	// 4. Redis (rate limiter, run lock, run summaries)
	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	rec := metrics.New()

	// 5. Provider client: pacing here, retries in the fetcher
	httpClient := httputil.New(cfg, log).
		DisableRetry().
		WithLimiter(cfg.Eastmoney.RateLimit, max(1, int(cfg.Eastmoney.RateLimit)))
	if rdb.Enabled() {
		httpClient.WithRateLimiter(
			redis.NewRateLimiter(rdb, keyPrefix),
			redis.EastmoneyRateLimitPerSecond(int(cfg.Eastmoney.RateLimit)),
		)
	}
	provider := eastmoney.NewClient(httpClient, cfg.Eastmoney, log)

	// 6. Fetch window: a strategy file overrides START_DATE / K_TYPE
	fetchCfg := fetcher.Config{
		StartDate: cfg.Screening.StartDate,
		KType:     cfg.Screening.KType,
		Policy:    fetchPolicy(cfg),
	}
	if cfg.Screening.StrategyFile != "" {
		if strategy.Fetch.StartDate != "" {
			fetchCfg.StartDate = strategy.Fetch.StartDate
		}
		fetchCfg.KType = strategy.Fetch.KType
	}

	failures := faillog.New(cfg.ErrorLogPath)
	fetch := fetcher.New(provider, fetchCfg, failures, log).WithObserver(rec)

	// 7. Orchestrator and day caches
	screener := screening.New(fetch, screening.Config{
		Workers:     cfg.Screening.Workers,
		LogInterval: progressLogInterval,
	}, log).WithObserver(rec)

	universe := daycache.NewUniverseCache(provider, fetchPolicy(cfg), log).WithObserver(rec)
	results := daycache.NewResultCache(log).WithObserver(rec)

	// 8. Runner
	summaries := redis.NewCache(rdb, keyPrefix)
	runner := pipeline.NewRunner(universe, results, screener, chain, pipeline.Config{
		StrategyID:   strategy.Meta.StrategyID,
		StrategyHash: hash,
	}, log).
		WithLock(redis.NewRunLock(rdb, keyPrefix)).
		WithSummaryStore(summaries).
		WithRecorder(rec)

	return &app{
		cfg:          cfg,
		log:          log,
		location:     loc,
		redis:        rdb,
		summaries:    summaries,
		metrics:      rec,
		failures:     failures,
		provider:     provider,
		universe:     universe,
		results:      results,
		screener:     screener,
		runner:       runner,
		strategy:     strategy,
		strategyHash: hash,
		chain:        chain,
	}, nil
}

// fetchPolicy builds the retry policy from FETCH_* settings
func fetchPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts:  cfg.Screening.FetchMaxAttempts,
		InitialDelay: cfg.Screening.FetchInitialDelay,
		Backoff:      cfg.Screening.FetchBackoff,
		MaxDelay:     cfg.Screening.FetchMaxDelay,
	}
}

// today returns the RunContext for the current date in TIMEZONE
func (a *app) today() contracts.RunContext {
	return contracts.NewRunContext(a.cfg.DataDir, time.Now(), a.location).WithErrorLog(a.cfg.ErrorLogPath)
}

func (a *app) close() {
	if err := a.failures.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close error log")
	}
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}
