package contracts

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDataShape marks an empty or malformed price series.
// It is an expected condition: the ticker is rejected, not retried or logged.
var ErrDataShape = errors.New("malformed price series")

// RawBar is one provider row before coercion
type RawBar struct {
	TradeDate string `json:"trade_date"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// PriceBar is one daily bar
type PriceBar struct {
	TradeDate time.Time       `json:"trade_date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
}

// PriceSeries is one ticker's bars, ascending by trade date
type PriceSeries struct {
	Code string
	Bars []PriceBar
}

// NewPriceSeries coerces raw provider rows into a validated series.
// Rows must already be in ascending date order; the provider never
// returns them otherwise, so out-of-order input is a shape error.
func NewPriceSeries(code string, rows []RawBar) (PriceSeries, error) {
	if len(rows) == 0 {
		return PriceSeries{}, fmt.Errorf("%s: no rows: %w", code, ErrDataShape)
	}

	bars := make([]PriceBar, 0, len(rows))
	for i, row := range rows {
		bar, err := parseBar(row)
		if err != nil {
			return PriceSeries{}, fmt.Errorf("%s row %d: %v: %w", code, i, err, ErrDataShape)
		}
		if n := len(bars); n > 0 && !bar.TradeDate.After(bars[n-1].TradeDate) {
			return PriceSeries{}, fmt.Errorf("%s row %d: trade date %s not after %s: %w",
				code, i, bar.TradeDate.Format(DateKeyLayout), bars[n-1].TradeDate.Format(DateKeyLayout), ErrDataShape)
		}
		bars = append(bars, bar)
	}

	return PriceSeries{Code: code, Bars: bars}, nil
}

func parseBar(row RawBar) (PriceBar, error) {
	date, err := parseTradeDate(row.TradeDate)
	if err != nil {
		return PriceBar{}, err
	}

	high, err := decimal.NewFromString(strings.TrimSpace(row.High))
	if err != nil {
		return PriceBar{}, fmt.Errorf("high %q: %v", row.High, err)
	}
	if high.IsNegative() {
		return PriceBar{}, fmt.Errorf("negative high %s", high)
	}

	return PriceBar{
		TradeDate: date,
		Open:      optionalDecimal(row.Open),
		High:      high,
		Low:       optionalDecimal(row.Low),
		Close:     optionalDecimal(row.Close),
	}, nil
}

func parseTradeDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateKeyLayout, "20060102", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("trade date %q", s)
}

// open/low/close are not used by any predicate; unparsable values become zero
func optionalDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Len returns the number of bars
func (s PriceSeries) Len() int {
	return len(s.Bars)
}

// IsEmpty reports whether the series has no bars
func (s PriceSeries) IsEmpty() bool {
	return len(s.Bars) == 0
}

// Highs returns the high column in bar order
func (s PriceSeries) Highs() []decimal.Decimal {
	highs := make([]decimal.Decimal, len(s.Bars))
	for i, b := range s.Bars {
		highs[i] = b.High
	}
	return highs
}

// LastDate returns the trade date of the last bar
func (s PriceSeries) LastDate() (time.Time, bool) {
	if len(s.Bars) == 0 {
		return time.Time{}, false
	}
	return s.Bars[len(s.Bars)-1].TradeDate, true
}
