package screening

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/internal/selection"
	"github.com/wonny/highscan/pkg/logger"
)

// ErrUniverseLookup marks a passing ticker whose metadata is missing
var ErrUniverseLookup = errors.New("ticker missing from universe")

// Fetcher returns raw price rows for one ticker
type Fetcher interface {
	Fetch(ctx context.Context, code string) ([]contracts.RawBar, error)
}

// Evaluator decides whether a series passes (satisfied by *selection.Chain)
type Evaluator interface {
	Evaluate(series contracts.PriceSeries) selection.Verdict
}

// Observer receives terminal ticker states (metrics)
type Observer interface {
	TickerDone(state contracts.TickerState)
}

// Config holds orchestrator configuration
type Config struct {
	Workers     int // 0 = DefaultWorkers()
	LogInterval int // log progress every N tickers, 0 = only at the end
}

// DefaultWorkers returns max(10, 2×cores)
func DefaultWorkers() int {
	return max(10, 2*runtime.NumCPU())
}

// Outcome is the terminal state of one ticker
type Outcome struct {
	Code       string
	State      contracts.TickerState
	RejectedBy string
	Err        error
	Result     *contracts.ScreeningResult
}

// Progress is reported after every completed ticker
type Progress struct {
	Processed int
	Total     int
	Passed    int
	Rejected  int
	Failed    int
	Last      Outcome
}

// ProgressFunc observes progress; it runs on the collector goroutine
type ProgressFunc func(Progress)

// Summary tallies terminal states for a run
type Summary struct {
	Total      int            `json:"total"`
	Passed     int            `json:"passed"`
	Rejected   int            `json:"rejected"`
	Failed     int            `json:"failed"`
	RejectedBy map[string]int `json:"rejected_by"`
	Workers    int            `json:"workers"`
	Duration   time.Duration  `json:"duration"`
}

// Orchestrator fans tickers out to a bounded pool of fetch+evaluate workers
// ⭐ SSOT: 종목 스크리닝 동시성 제어는 여기서만
type Orchestrator struct {
	fetcher  Fetcher
	config   Config
	logger   *logger.Logger
	progress []ProgressFunc
	observer Observer
}

// New creates an Orchestrator
func New(fetcher Fetcher, cfg Config, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.WithComponent("screening"),
	}
}

// OnProgress registers a progress observer
func (o *Orchestrator) OnProgress(fn ProgressFunc) *Orchestrator {
	if fn != nil {
		o.progress = append(o.progress, fn)
	}
	return o
}

// WithObserver attaches a terminal-state observer
func (o *Orchestrator) WithObserver(obs Observer) *Orchestrator {
	o.observer = obs
	return o
}

// Workers returns the effective pool size
func (o *Orchestrator) Workers() int {
	if o.config.Workers > 0 {
		return o.config.Workers
	}
	return DefaultWorkers()
}

// Run screens every ticker of the universe
func (o *Orchestrator) Run(ctx context.Context, u *contracts.Universe, chain Evaluator) ([]contracts.ScreeningResult, Summary, error) {
	return o.RunCodes(ctx, u.Codes(), u, chain)
}

// RunCodes screens codes, taking metadata from u. Results are in
// completion order. Per-ticker failures never abort the run; the
// returned error is non-nil only when ctx ends before all codes were
// dispatched.
func (o *Orchestrator) RunCodes(ctx context.Context, codes []string, u *contracts.Universe, chain Evaluator) ([]contracts.ScreeningResult, Summary, error) {
	start := time.Now()
	workers := o.Workers()

	o.logger.WithFields(map[string]interface{}{
		"stock_count": len(codes),
		"workers":     workers,
	}).Info("Starting screening")

	g, gctx := errgroup.WithContext(ctx)
	codeCh := make(chan string)
	outcomeCh := make(chan Outcome, workers)

	// Producer
	g.Go(func() error {
		defer close(codeCh)
		for _, code := range codes {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case codeCh <- code:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// Workers: one ticker end-to-end before taking the next
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for code := range codeCh {
				outcomeCh <- o.screen(gctx, u, chain, code)
			}
			return nil
		})
	}

	var runErr error
	go func() {
		runErr = g.Wait()
		close(outcomeCh)
	}()

	// Collector
	results := make([]contracts.ScreeningResult, 0)
	seen := make(map[string]bool)
	summary := Summary{RejectedBy: make(map[string]int), Workers: workers}

	for out := range outcomeCh {
		summary.Total++
		switch out.State {
		case contracts.StatePassed:
			if !seen[out.Code] {
				seen[out.Code] = true
				results = append(results, *out.Result)
			}
			summary.Passed++
		case contracts.StateRejected:
			summary.Rejected++
			summary.RejectedBy[out.RejectedBy]++
		default:
			summary.Failed++
			o.logger.WithError(out.Err).WithTicker(out.Code).Warn("Ticker failed")
		}

		if o.observer != nil {
			o.observer.TickerDone(out.State)
		}

		p := Progress{
			Processed: summary.Total,
			Total:     len(codes),
			Passed:    summary.Passed,
			Rejected:  summary.Rejected,
			Failed:    summary.Failed,
			Last:      out,
		}
		for _, fn := range o.progress {
			fn(p)
		}
		if n := o.config.LogInterval; n > 0 && p.Processed%n == 0 {
			o.logger.Infof("Processed %d/%d (passed=%d failed=%d)", p.Processed, p.Total, p.Passed, p.Failed)
		}
	}

	summary.Duration = time.Since(start)

	o.logger.WithFields(map[string]interface{}{
		"total":    summary.Total,
		"passed":   summary.Passed,
		"rejected": summary.Rejected,
		"failed":   summary.Failed,
		"duration": summary.Duration.String(),
	}).Info("Screening completed")

	if runErr != nil {
		return results, summary, fmt.Errorf("screening interrupted after %d/%d tickers: %w", summary.Total, len(codes), runErr)
	}
	return results, summary, nil
}

// screen runs one ticker through Fetching → Evaluating → terminal state.
// A panic anywhere in the task is converted into Failed.
func (o *Orchestrator) screen(ctx context.Context, u *contracts.Universe, chain Evaluator, code string) (out Outcome) {
	out = Outcome{Code: code, State: contracts.StatePending}
	defer func() {
		if r := recover(); r != nil {
			out.State = contracts.StateFailed
			out.Result = nil
			out.Err = fmt.Errorf("%s: panic during screening: %v", code, r)
		}
	}()

	out.State = contracts.StateFetching
	rows, err := o.fetcher.Fetch(ctx, code)
	if err != nil {
		out.State = contracts.StateFailed
		out.Err = err
		return out
	}
	if len(rows) == 0 {
		out.State = contracts.StateRejected
		out.RejectedBy = "empty_series"
		return out
	}

	series, err := contracts.NewPriceSeries(code, rows)
	if err != nil {
		// malformed data is an expected rejection, not a failure
		out.State = contracts.StateRejected
		out.RejectedBy = "data_shape"
		out.Err = err
		return out
	}

	out.State = contracts.StateEvaluating
	verdict := chain.Evaluate(series)
	if !verdict.Passed {
		out.State = contracts.StateRejected
		out.RejectedBy = verdict.RejectedBy
		return out
	}

	ticker, ok := u.Lookup(code)
	if !ok {
		out.State = contracts.StateFailed
		out.Err = fmt.Errorf("%s: %w", code, ErrUniverseLookup)
		return out
	}

	result := contracts.ResultFromTicker(ticker)
	out.State = contracts.StatePassed
	out.Result = &result
	return out
}
