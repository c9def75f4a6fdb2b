package selection

import (
	"fmt"
	"sort"
)

// Params are integer predicate parameters keyed by name (e.g. "window")
type Params map[string]int

func (p Params) get(key string, def int) int {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Spec names one predicate with its parameters
type Spec struct {
	Name   string
	Params Params
}

// Factory builds a predicate from parameters
type Factory func(Params) (Predicate, error)

var factories = map[string]Factory{
	NameContinuousRise: func(p Params) (Predicate, error) {
		pred := ContinuousRise{Window: p.get("window", 10)}
		if pred.Window < 2 {
			return nil, fmt.Errorf("%s: window must be >= 2, got %d", NameContinuousRise, pred.Window)
		}
		return pred, nil
	},
	NameRecentHighDominance: func(p Params) (Predicate, error) {
		pred := RecentHighDominance{Lookback: p.get("lookback", 30), Recent: p.get("recent", 7)}
		if pred.Recent < 1 || pred.Lookback <= pred.Recent {
			return nil, fmt.Errorf("%s: need 1 <= recent < lookback, got recent=%d lookback=%d",
				NameRecentHighDominance, pred.Recent, pred.Lookback)
		}
		return pred, nil
	},
	NamePeakPosition: func(Params) (Predicate, error) {
		return PeakPosition{}, nil
	},
	NameSevenEqualsThirtyHigh: func(p Params) (Predicate, error) {
		pred := SevenEqualsThirtyHigh{Recent: p.get("recent", 7), Window: p.get("window", 30)}
		if pred.Recent < 1 || pred.Window < pred.Recent {
			return nil, fmt.Errorf("%s: need 1 <= recent <= window, got recent=%d window=%d",
				NameSevenEqualsThirtyHigh, pred.Recent, pred.Window)
		}
		return pred, nil
	},
}

// Build creates a registered predicate by name
func Build(name string, params Params) (Predicate, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown predicate %q (available: %v)", name, Available())
	}
	return factory(params)
}

// BuildChain creates a chain from specs in order
func BuildChain(specs []Spec) (*Chain, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("predicate chain is empty")
	}
	predicates := make([]Predicate, 0, len(specs))
	for i, spec := range specs {
		p, err := Build(spec.Name, spec.Params)
		if err != nil {
			return nil, fmt.Errorf("chain[%d]: %w", i, err)
		}
		predicates = append(predicates, p)
	}
	return NewChain(predicates...), nil
}

// Available returns registered predicate names, sorted
func Available() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name can be built
func IsRegistered(name string) bool {
	_, ok := factories[name]
	return ok
}

// DefaultChain is the production chain: peak position only
func DefaultChain() *Chain {
	return NewChain(PeakPosition{})
}
