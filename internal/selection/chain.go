package selection

import (
	"github.com/wonny/highscan/internal/contracts"
)

// Predicate is a pure test over a price series.
// Implementations must not mutate the series and must return false,
// never panic, when the series is shorter than their lookback.
type Predicate interface {
	Name() string
	Test(series contracts.PriceSeries) bool
}

// Func adapts a plain function into a Predicate
func Func(name string, fn func(contracts.PriceSeries) bool) Predicate {
	return funcPredicate{name: name, fn: fn}
}

type funcPredicate struct {
	name string
	fn   func(contracts.PriceSeries) bool
}

func (p funcPredicate) Name() string { return p.name }

func (p funcPredicate) Test(series contracts.PriceSeries) bool {
	if p.fn == nil {
		return false
	}
	return p.fn(series)
}

// Verdict is the outcome of running a chain over one series
type Verdict struct {
	Passed     bool
	RejectedBy string // name of the first failing predicate
}

// Chain evaluates predicates in order, stopping at the first failure
// ⭐ SSOT: 종목 통과 판정은 여기서만
type Chain struct {
	predicates []Predicate
}

// NewChain creates a chain; nil predicates are skipped
func NewChain(predicates ...Predicate) *Chain {
	c := &Chain{predicates: make([]Predicate, 0, len(predicates))}
	for _, p := range predicates {
		if p != nil {
			c.predicates = append(c.predicates, p)
		}
	}
	return c
}

// Evaluate runs the chain. An empty series never passes.
func (c *Chain) Evaluate(series contracts.PriceSeries) Verdict {
	if series.IsEmpty() {
		return Verdict{RejectedBy: "empty_series"}
	}
	for _, p := range c.predicates {
		if !p.Test(series) {
			return Verdict{RejectedBy: p.Name()}
		}
	}
	return Verdict{Passed: true}
}

// Names returns predicate names in evaluation order
func (c *Chain) Names() []string {
	names := make([]string, len(c.predicates))
	for i, p := range c.predicates {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of predicates
func (c *Chain) Len() int {
	return len(c.predicates)
}
