package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/highscan/internal/contracts"
)

func TestRecorder_Counters(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.TickerDone(contracts.StatePassed)
	r.TickerDone(contracts.StateRejected)
	r.TickerDone(contracts.StateRejected)
	r.TickerRejected("peak_position")
	r.FetchAttempt(nil)
	r.FetchAttempt(errors.New("timeout"))
	r.FetchExhausted()
	r.CacheLookup("universe", true)
	r.CacheLookup("result", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.tickers.WithLabelValues("passed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.tickers.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rejectedBy.WithLabelValues("peak_position")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchAttempts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchAttempts.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchExhausted))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("universe", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("result", "miss")))
}

func TestRecorder_RunFinished(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RunFinished("completed", 90*time.Second, 12)
	assert.Equal(t, 12.0, testutil.ToFloat64(r.lastPassed))

	// a failed run leaves the last passed count alone
	r.RunFinished("failed", time.Second, 0)
	assert.Equal(t, 12.0, testutil.ToFloat64(r.lastPassed))
	assert.Greater(t, testutil.ToFloat64(r.lastRun.WithLabelValues("failed")), 0.0)
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.TickerDone(contracts.StateFailed)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `highscan_tickers_total{state="failed"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
