package daycache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/pkg/logger"
)

// ScreenFunc produces the day's results for a universe
type ScreenFunc func(ctx context.Context, u *contracts.Universe) ([]contracts.ScreeningResult, error)

// ResultCache guards the day's result file (result_<date>.json)
// ⭐ SSOT: 결과 파일 읽기/쓰기는 여기서만
type ResultCache struct {
	logger   *logger.Logger
	observer Observer
}

// NewResultCache creates a ResultCache
func NewResultCache(log *logger.Logger) *ResultCache {
	if log == nil {
		log = logger.Nop()
	}
	return &ResultCache{logger: log.WithComponent("result_cache")}
}

// WithObserver attaches a lookup observer
func (c *ResultCache) WithObserver(o Observer) *ResultCache {
	c.observer = o
	return c
}

// Exists reports whether the result file for rc is present
func (c *ResultCache) Exists(rc contracts.RunContext) bool {
	return fileExists(rc.ResultPath)
}

// Load reads today's result file and records a cache hit
func (c *ResultCache) Load(rc contracts.RunContext) ([]contracts.ScreeningResult, error) {
	results, err := LoadResults(rc.ResultPath)
	if err != nil {
		return nil, err
	}
	c.lookup(true)
	return results, nil
}

// Ensure returns the cached results when today's file exists without
// calling screen; otherwise it screens and persists. hit reports which.
func (c *ResultCache) Ensure(ctx context.Context, rc contracts.RunContext, u *contracts.Universe, screen ScreenFunc) (results []contracts.ScreeningResult, hit bool, err error) {
	if c.Exists(rc) {
		c.lookup(true)
		results, err := LoadResults(rc.ResultPath)
		if err != nil {
			return nil, true, err
		}
		c.logger.WithFields(map[string]interface{}{
			"path":  rc.ResultPath,
			"count": len(results),
		}).Info("Result file exists, screening skipped")
		return results, true, nil
	}
	c.lookup(false)

	results, err = screen(ctx, u)
	if err != nil {
		return nil, false, err
	}

	if err := SaveResults(rc.ResultPath, results); err != nil {
		return nil, false, err
	}

	c.logger.WithFields(map[string]interface{}{
		"path":  rc.ResultPath,
		"count": len(results),
	}).Info("Result file saved")
	return results, false, nil
}

func (c *ResultCache) lookup(hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup("result", hit)
	}
}

// SaveResults writes results atomically; nil is written as []
func SaveResults(path string, results []contracts.ScreeningResult) error {
	if results == nil {
		results = []contracts.ScreeningResult{}
	}
	data, err := encodeJSON(results)
	if err != nil {
		return fmt.Errorf("%w: encode results: %v", ErrPersist, err)
	}
	return writeAtomic(path, data)
}

// LoadResults reads a result file
func LoadResults(path string) ([]contracts.ScreeningResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result file: %w", err)
	}

	results := make([]contracts.ScreeningResult, 0)
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parse result file %s: %w", path, err)
	}
	return results, nil
}
