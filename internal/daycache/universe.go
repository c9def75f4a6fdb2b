package daycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/pkg/logger"
	"github.com/wonny/highscan/pkg/retry"
)

// ErrUniverseUnavailable means the ticker universe could not be fetched.
// It is fatal to the run.
var ErrUniverseUnavailable = errors.New("ticker universe unavailable")

// UniverseSource lists every ticker from the market data provider
type UniverseSource interface {
	AllCodes(ctx context.Context) ([]contracts.Ticker, error)
}

// Observer records cache lookups (metrics)
type Observer interface {
	CacheLookup(kind string, hit bool)
}

// UniverseCache provides the day's ticker snapshot (stock_info_<date>.json)
// ⭐ SSOT: 종목 스냅샷 파일 읽기/쓰기는 여기서만
type UniverseCache struct {
	source   UniverseSource
	policy   retry.Policy
	logger   *logger.Logger
	observer Observer
}

// NewUniverseCache creates a UniverseCache
func NewUniverseCache(source UniverseSource, policy retry.Policy, log *logger.Logger) *UniverseCache {
	if log == nil {
		log = logger.Nop()
	}
	return &UniverseCache{
		source: source,
		policy: policy,
		logger: log.WithComponent("universe_cache"),
	}
}

// WithObserver attaches a lookup observer
func (c *UniverseCache) WithObserver(o Observer) *UniverseCache {
	c.observer = o
	return c
}

// Ensure loads today's snapshot if present; otherwise fetches the universe
// once, normalizes it, persists it atomically and returns it.
func (c *UniverseCache) Ensure(ctx context.Context, rc contracts.RunContext) (*contracts.Universe, error) {
	if fileExists(rc.UniversePath) {
		c.lookup(true)
		u, err := LoadUniverse(rc.UniversePath, rc.DateKey)
		if err != nil {
			return nil, err
		}
		c.logger.WithFields(map[string]interface{}{
			"path":  rc.UniversePath,
			"count": u.Count(),
		}).Info("Universe snapshot exists, loaded")
		return u, nil
	}
	c.lookup(false)

	start := time.Now()
	policy := c.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
		}).Warn("Retrying universe fetch")
	}

	raw, err := retry.DoValue(ctx, policy, c.source.AllCodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUniverseUnavailable, err)
	}

	tickers, dropped := Normalize(raw)
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: provider returned no tickers", ErrUniverseUnavailable)
	}

	u, err := contracts.NewUniverse(rc.DateKey, tickers)
	if err != nil {
		return nil, err
	}

	data, err := encodeJSON(tickers)
	if err != nil {
		return nil, fmt.Errorf("%w: encode universe: %v", ErrPersist, err)
	}
	if err := writeAtomic(rc.UniversePath, data); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"path":     rc.UniversePath,
		"count":    len(tickers),
		"dropped":  dropped,
		"duration": time.Since(start).String(),
	}).Info("Universe snapshot saved")

	return u, nil
}

func (c *UniverseCache) lookup(hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup("universe", hit)
	}
}

// Normalize zero-pads codes, maps missing list dates to "NaN" and drops
// blank or duplicate codes (first occurrence wins).
func Normalize(raw []contracts.Ticker) ([]contracts.Ticker, int) {
	out := make([]contracts.Ticker, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	dropped := 0

	for _, t := range raw {
		t.Code = contracts.NormalizeCode(t.Code)
		if t.Code == "" || seen[t.Code] {
			dropped++
			continue
		}
		seen[t.Code] = true
		t.ListDate = contracts.NormalizeListDate(t.ListDate)
		out = append(out, t)
	}
	return out, dropped
}

// LoadUniverse reads a snapshot file verbatim
func LoadUniverse(path, dateKey string) (*contracts.Universe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read universe snapshot: %w", err)
	}

	var tickers []contracts.Ticker
	if err := json.Unmarshal(data, &tickers); err != nil {
		return nil, fmt.Errorf("parse universe snapshot %s: %w", path, err)
	}

	return contracts.NewUniverse(dateKey, tickers)
}
