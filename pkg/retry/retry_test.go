package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleeper records requested delays without waiting
type fakeSleeper struct {
	delays []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.delays = append(f.delays, d)
	return ctx.Err()
}

func TestDo_FailsTwiceThenSucceeds(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy := DefaultPolicy()
	policy.Sleep = sleeper.Sleep

	calls := 0
	got, err := DoValue(context.Background(), policy, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.delays)
}

func TestDo_Exhausted(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy := Policy{MaxAttempts: 3, InitialDelay: time.Second, Backoff: 2, Sleep: sleeper.Sleep}

	boom := errors.New("provider timeout")
	calls := 0
	err := Do(context.Background(), policy, func(context.Context) error {
		calls++
		return boom
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.True(t, errors.Is(err, boom))

	var exhausted *ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Len(t, sleeper.delays, 2, "no wait after the last attempt")
}

func TestDo_Permanent(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy := DefaultPolicy()
	policy.Sleep = sleeper.Sleep

	bad := errors.New("bad request")
	calls := 0
	err := Do(context.Background(), policy, func(context.Context) error {
		calls++
		return Permanent(bad)
	})

	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
	assert.Nil(t, Permanent(nil))
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := DefaultPolicy()
	policy.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	calls := 0
	err := Do(ctx, policy, func(context.Context) error {
		calls++
		return errors.New("flaky")
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetry(t *testing.T) {
	var attempts []int
	policy := Policy{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
		Backoff:      3,
		Sleep:        (&fakeSleeper{}).Sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			attempts = append(attempts, attempt)
		},
	}

	_ = Do(context.Background(), policy, func(context.Context) error { return errors.New("x") })
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestPolicy_Delays(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   []time.Duration
	}{
		{
			name:   "default",
			policy: DefaultPolicy(),
			want:   []time.Duration{2 * time.Second, 4 * time.Second},
		},
		{
			name:   "capped",
			policy: Policy{MaxAttempts: 5, InitialDelay: time.Second, Backoff: 2, MaxDelay: 3 * time.Second},
			want:   []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second},
		},
		{
			name:   "single attempt",
			policy: Policy{MaxAttempts: 1, InitialDelay: time.Second, Backoff: 2},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.Delays())
		})
	}
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.Error(t, Policy{MaxAttempts: 0, Backoff: 2}.Validate())
	assert.Error(t, Policy{MaxAttempts: 3, Backoff: 0.5}.Validate())
	assert.Error(t, Policy{MaxAttempts: 3, Backoff: 2, InitialDelay: -time.Second}.Validate())
}
