package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/highscan/internal/contracts"
)

const namespace = "highscan"

// Recorder exports screening metrics to Prometheus.
// It satisfies the fetcher, screening and daycache observer interfaces.
// ⭐ SSOT: 메트릭 정의는 여기서만
type Recorder struct {
	registry *prometheus.Registry

	tickers        *prometheus.CounterVec
	rejectedBy     *prometheus.CounterVec
	fetchAttempts  *prometheus.CounterVec
	fetchExhausted prometheus.Counter
	cacheLookups   *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	lastRun        *prometheus.GaugeVec
	lastPassed     prometheus.Gauge
}

// New creates a Recorder on its own registry (with Go and process collectors)
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates a Recorder registering into reg
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		tickers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tickers_total",
				Help:      "Tickers screened, by terminal state",
			},
			[]string{"state"},
		),
		rejectedBy: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Rejected tickers, by the predicate that rejected them",
			},
			[]string{"predicate"},
		),
		fetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "Price history fetch attempts, by result",
			},
			[]string{"result"},
		),
		fetchExhausted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_exhausted_total",
				Help:      "Tickers whose fetch failed after every retry",
			},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Day file lookups, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of daily runs",
				Buckets:   []float64{1, 10, 30, 60, 120, 300, 600, 1200, 1800},
			},
			[]string{"outcome"},
		),
		lastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished, by outcome",
			},
			[]string{"outcome"},
		),
		lastPassed: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_passed",
				Help:      "Tickers that passed in the last run",
			},
		),
	}
}

// TickerDone records a terminal ticker state
func (r *Recorder) TickerDone(state contracts.TickerState) {
	r.tickers.WithLabelValues(string(state)).Inc()
}

// TickerRejected records which predicate rejected a ticker
func (r *Recorder) TickerRejected(predicate string) {
	r.rejectedBy.WithLabelValues(predicate).Inc()
}

// FetchAttempt records one provider call
func (r *Recorder) FetchAttempt(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetchAttempts.WithLabelValues(result).Inc()
}

// FetchExhausted records a ticker that ran out of retries
func (r *Recorder) FetchExhausted() {
	r.fetchExhausted.Inc()
}

// CacheLookup records a universe/result file lookup
func (r *Recorder) CacheLookup(kind string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(kind, outcome).Inc()
}

// RunFinished records a completed, skipped or failed run
func (r *Recorder) RunFinished(outcome string, duration time.Duration, passed int) {
	r.runDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	r.lastRun.WithLabelValues(outcome).SetToCurrentTime()
	if outcome != "failed" {
		r.lastPassed.Set(float64(passed))
	}
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
