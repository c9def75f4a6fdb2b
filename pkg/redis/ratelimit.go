package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the window, then records the request if under
// the limit. Time comes from the Redis server so every process shares a clock.
// Returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local member = ARGV[3]

	local t = redis.call('TIME')
	local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local wait = window_ms
	if oldest[2] then
		wait = tonumber(oldest[2]) + window_ms - now
	end
	return {0, 0, math.max(wait, 1)}
`)

// minWait bounds how often a denied caller retries
const minWait = 10 * time.Millisecond

// RateLimiter is a sliding-window limiter shared by every process on the same Redis
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines one limit
type RateLimitConfig struct {
	Key    string        // e.g. "eastmoney"
	Limit  int           // requests per window
	Window time.Duration // window length
}

// NewRateLimiter creates a limiter. A disabled client allows everything.
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

// Key returns the sorted-set key for a limit
func (r *RateLimiter) Key(cfg RateLimitConfig) string {
	return fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
}

// Allow records one request if the window has room.
// Returns (allowed, remaining, error).
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	allowed, remaining, _, err := r.try(ctx, cfg)
	return allowed, remaining, err
}

// Wait blocks until a request is recorded or ctx ends
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, retryAfter, err := r.try(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		timer := time.NewTimer(max(retryAfter, minWait))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RateLimiter) try(ctx context.Context, cfg RateLimitConfig) (bool, int, time.Duration, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, 0, nil
	}

	res, err := slidingWindowScript.Run(ctx, r.client.Redis(), []string{r.Key(cfg)},
		cfg.Limit,
		cfg.Window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}
	if len(res) != 3 {
		return false, 0, 0, fmt.Errorf("rate limit %s: unexpected reply %v", cfg.Key, res)
	}

	return res[0] == 1, int(res[1]), time.Duration(res[2]) * time.Millisecond, nil
}

// EastmoneyRateLimit caps provider requests across all processes
// (push2/push2his, 초당 20회, 보수적)
var EastmoneyRateLimit = RateLimitConfig{
	Key:    "eastmoney",
	Limit:  20,
	Window: time.Second,
}

// EastmoneyRateLimitPerSecond returns the shared limit for n requests per second
func EastmoneyRateLimitPerSecond(n int) RateLimitConfig {
	cfg := EastmoneyRateLimit
	if n > 0 {
		cfg.Limit = n
	}
	return cfg
}
