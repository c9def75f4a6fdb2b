package selection

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wonny/highscan/internal/contracts"
)

// Predicate names used in strategy files and logs
const (
	NameContinuousRise        = "continuous_rise"
	NameRecentHighDominance   = "recent_high_dominance"
	NamePeakPosition          = "peak_position"
	NameSevenEqualsThirtyHigh = "seven_equals_thirty_high"
)

// ContinuousRise passes when the last Window highs rise strictly day over day
type ContinuousRise struct {
	Window int
}

func (p ContinuousRise) Name() string { return NameContinuousRise }

func (p ContinuousRise) Test(series contracts.PriceSeries) bool {
	n := series.Len()
	if p.Window < 1 || n < p.Window {
		return false
	}
	tail := series.Bars[n-p.Window:]
	for i := 1; i < len(tail); i++ {
		if !tail[i].High.GreaterThan(tail[i-1].High) {
			return false
		}
	}
	return true
}

// RecentHighDominance passes when max(high[-Lookback:-Recent]) <= max(high[-Recent:])
type RecentHighDominance struct {
	Lookback int
	Recent   int
}

func (p RecentHighDominance) Name() string { return NameRecentHighDominance }

func (p RecentHighDominance) Test(series contracts.PriceSeries) bool {
	n := series.Len()
	if p.Recent < 1 || p.Lookback <= p.Recent || n < p.Lookback {
		return false
	}
	highs := series.Highs()
	early, _ := maxHigh(highs[n-p.Lookback : n-p.Recent])
	recent, _ := maxHigh(highs[n-p.Recent:])
	return early.LessThanOrEqual(recent)
}

// SevenEqualsThirtyHigh passes when the recent max high equals the window max high
type SevenEqualsThirtyHigh struct {
	Recent int
	Window int
}

func (p SevenEqualsThirtyHigh) Name() string { return NameSevenEqualsThirtyHigh }

func (p SevenEqualsThirtyHigh) Test(series contracts.PriceSeries) bool {
	n := series.Len()
	if p.Recent < 1 || p.Window < p.Recent || n < p.Window {
		return false
	}
	highs := series.Highs()
	recent, _ := maxHigh(highs[n-p.Recent:])
	window, _ := maxHigh(highs[n-p.Window:])
	return recent.Equal(window)
}

// PeakPosition passes when the highest high is the last bar and it is not
// flanked by both the 2nd and 3rd highest highs.
type PeakPosition struct{}

func (PeakPosition) Name() string { return NamePeakPosition }

func (p PeakPosition) Test(series contracts.PriceSeries) bool {
	report, ok := AnalyzePeak(series)
	return ok && report.Passed
}

// PeakReport is the breakdown computed by PeakPosition
type PeakReport struct {
	FirstIndex  int
	SecondIndex int
	ThirdIndex  int

	PeakIsLast       bool
	FirstSecondApart bool // |i1-i2| != 1
	FirstThirdApart  bool // |i1-i3| != 1

	// EarlyBelowRecent compares the early window, bars n-29 through n-8
	// (the 30-to-23-days-ago span walked back from bar n-8, which stops
	// before bar n-30), with max(high[-7:]). Short series clamp at bar 0.
	// It is reported only and does not affect Passed.
	EarlyBelowRecent bool

	Passed bool
}

const (
	peakEarlyFrom    = 29 // oldest early bar, counted back from n
	peakRecentWindow = 7
)

// AnalyzePeak computes the PeakPosition breakdown.
// ok is false when the series has fewer than three bars.
func AnalyzePeak(series contracts.PriceSeries) (PeakReport, bool) {
	n := series.Len()
	if n < 3 {
		return PeakReport{}, false
	}

	highs := series.Highs()
	order := rankHighs(highs)
	i1, i2, i3 := order[0], order[1], order[2]

	r := PeakReport{
		FirstIndex:       i1,
		SecondIndex:      i2,
		ThirdIndex:       i3,
		PeakIsLast:       i1 == n-1,
		FirstSecondApart: abs(i1-i2) != 1,
		FirstThirdApart:  abs(i1-i3) != 1,
	}

	early, hasEarly := maxHigh(highs[clampIndex(n-peakEarlyFrom):clampIndex(n-peakRecentWindow)])
	recent, _ := maxHigh(highs[clampIndex(n-peakRecentWindow):])
	r.EarlyBelowRecent = hasEarly && early.LessThanOrEqual(recent)

	r.Passed = r.PeakIsLast && (r.FirstSecondApart || r.FirstThirdApart)
	return r, true
}

// NthHighest returns the bar index of the n-th highest high (1-based).
// Equal values keep their original order, so the earlier bar ranks first.
func NthHighest(series contracts.PriceSeries, n int) (int, bool) {
	if n < 1 || series.Len() < n {
		return 0, false
	}
	return rankHighs(series.Highs())[n-1], true
}

// rankHighs returns bar indices sorted by high descending, stable on ties
func rankHighs(highs []decimal.Decimal) []int {
	order := make([]int, len(highs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return highs[order[a]].GreaterThan(highs[order[b]])
	})
	return order
}

func maxHigh(highs []decimal.Decimal) (decimal.Decimal, bool) {
	if len(highs) == 0 {
		return decimal.Zero, false
	}
	return decimal.Max(highs[0], highs[1:]...), true
}

func clampIndex(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
