package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another process is already running the day
var ErrLockHeld = errors.New("run lock held by another process")

// releaseScript deletes the lock only if this owner still holds it
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RunLock serializes daily runs across processes sharing a data directory.
// With Redis disabled every Acquire succeeds.
// ⭐ SSOT: 일별 실행 중복 방지는 여기서만
type RunLock struct {
	client *Client
	prefix string
}

// NewRunLock creates a run lock
func NewRunLock(client *Client, prefix string) *RunLock {
	return &RunLock{client: client, prefix: prefix}
}

// Key returns the lock key for a date
func (l *RunLock) Key(dateKey string) string {
	return fmt.Sprintf("%s:lock:run:%s", l.prefix, dateKey)
}

// Acquire takes the lock for dateKey on behalf of owner.
// It returns ErrLockHeld when someone else has it.
func (l *RunLock) Acquire(ctx context.Context, dateKey, owner string, ttl time.Duration) error {
	if l.client == nil || !l.client.Enabled() {
		return nil
	}

	ok, err := l.client.Redis().SetNX(ctx, l.Key(dateKey), owner, ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		holder, _ := l.client.Redis().Get(ctx, l.Key(dateKey)).Result()
		return fmt.Errorf("%w: %s (holder %s)", ErrLockHeld, dateKey, holder)
	}
	return nil
}

// Release drops the lock if owner still holds it
func (l *RunLock) Release(ctx context.Context, dateKey, owner string) error {
	if l.client == nil || !l.client.Enabled() {
		return nil
	}

	if err := releaseScript.Run(ctx, l.client.Redis(), []string{l.Key(dateKey)}, owner).Err(); err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}
