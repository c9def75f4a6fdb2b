package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/faillog"
	"github.com/wonny/highscan/pkg/logger"
	"github.com/wonny/highscan/pkg/retry"
)

// ErrFetchExhausted is returned once every attempt for a ticker has failed
var ErrFetchExhausted = errors.New("price fetch exhausted retries")

// PriceHistoryClient is the market data provider boundary
type PriceHistoryClient interface {
	GetMarket(ctx context.Context, code, startDate string, kType int) ([]contracts.RawBar, error)
}

// Observer receives per-attempt outcomes (metrics)
type Observer interface {
	FetchAttempt(err error)
	FetchExhausted()
}

// Config holds fetch arguments and the retry policy
type Config struct {
	StartDate string // history start, YYYY-MM-DD
	KType     int    // 1=day
	Policy    retry.Policy
}

// DefaultConfig returns 2024-03-01 daily bars with 3 attempts, 2s, x2
func DefaultConfig() Config {
	return Config{
		StartDate: "2024-03-01",
		KType:     1,
		Policy:    retry.DefaultPolicy(),
	}
}

// Fetcher wraps PriceHistoryClient with bounded retry
// ⭐ SSOT: 시세 조회 재시도/실패 기록은 여기서만
type Fetcher struct {
	client   PriceHistoryClient
	config   Config
	failures faillog.Recorder
	observer Observer
	logger   *logger.Logger
}

// New creates a Fetcher. failures may be nil.
func New(client PriceHistoryClient, cfg Config, failures faillog.Recorder, log *logger.Logger) *Fetcher {
	if failures == nil {
		failures = faillog.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Fetcher{
		client:   client,
		config:   cfg,
		failures: failures,
		logger:   log.WithComponent("fetcher"),
	}
}

// WithObserver attaches an attempt observer
func (f *Fetcher) WithObserver(o Observer) *Fetcher {
	f.observer = o
	return f
}

// Fetch returns the raw rows for code. A successful empty response is
// returned as-is without retrying. After the last failed attempt the
// failure is appended to the error log and ErrFetchExhausted is returned.
func (f *Fetcher) Fetch(ctx context.Context, code string) ([]contracts.RawBar, error) {
	policy := f.config.Policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		f.logger.WithFields(map[string]interface{}{
			"stock_code": code,
			"attempt":    attempt,
			"delay":      delay.String(),
		}).WithError(err).Debug("Retrying price fetch")
	}

	rows, err := retry.DoValue(ctx, policy, func(ctx context.Context) ([]contracts.RawBar, error) {
		rows, err := f.client.GetMarket(ctx, code, f.config.StartDate, f.config.KType)
		if f.observer != nil {
			f.observer.FetchAttempt(err)
		}
		return rows, err
	})
	if err == nil {
		return rows, nil
	}

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		// cancelled or permanent: not an exhausted-retry failure
		return nil, err
	}

	if f.observer != nil {
		f.observer.FetchExhausted()
	}
	if lerr := f.failures.Record(faillog.Entry{
		Ticker:    code,
		Operation: "get_market",
		StartDate: f.config.StartDate,
		KType:     f.config.KType,
		Attempts:  exhausted.Attempts,
		Err:       exhausted.Err,
	}); lerr != nil {
		f.logger.WithError(lerr).WithTicker(code).Error("Failed to write error log")
	}

	return nil, fmt.Errorf("%s: %w: %w", code, ErrFetchExhausted, exhausted)
}
