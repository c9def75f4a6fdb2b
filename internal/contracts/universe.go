package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Exchange identifies the listing venue of a ticker
type Exchange string

const (
	ExchangeSZ Exchange = "SZ" // 深圳
	ExchangeSH Exchange = "SH" // 上海
	ExchangeBJ Exchange = "BJ" // 北京
)

// Valid reports whether e is one of the supported venues
func (e Exchange) Valid() bool {
	switch e {
	case ExchangeSZ, ExchangeSH, ExchangeBJ:
		return true
	}
	return false
}

// ListDateUnknown is stored when the provider has no listing date
const ListDateUnknown = "NaN"

// CodeWidth is the fixed width of a normalized stock code
const CodeWidth = 6

// Ticker is one tradable instrument of the universe snapshot
// ⭐ SSOT: stock_info_<date>.json 레코드 형식
type Ticker struct {
	Code      string   `json:"stock_code"`
	ShortName string   `json:"short_name"`
	Exchange  Exchange `json:"exchange"`
	ListDate  string   `json:"list_date"`
}

// Symbol returns the exchange-qualified symbol (e.g. "SZ000001")
func (t Ticker) Symbol() string {
	return string(t.Exchange) + t.Code
}

// NormalizeCode trims and left-pads a stock code with zeros to CodeWidth.
// Blank codes stay blank; wider codes are returned trimmed.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || len(code) >= CodeWidth {
		return code
	}
	return strings.Repeat("0", CodeWidth-len(code)) + code
}

// NormalizeListDate converts provider listing dates to YYYY-MM-DD,
// mapping blanks and placeholders to ListDateUnknown.
func NormalizeListDate(raw string) string {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "-", "nan", "nat", "none", "null", "0":
		return ListDateUnknown
	}

	for _, layout := range []string{DateKeyLayout, "20060102", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DateKeyLayout)
		}
	}
	return raw
}

// Universe is the day's ticker snapshot, read-only once built
// ⭐ SSOT: UniverseCache → ScreeningOrchestrator 종목 전달
type Universe struct {
	DateKey string   `json:"date_key"`
	Tickers []Ticker `json:"tickers"`

	index map[string]int
}

// NewUniverse builds an indexed universe. Duplicate codes are rejected.
func NewUniverse(dateKey string, tickers []Ticker) (*Universe, error) {
	u := &Universe{
		DateKey: dateKey,
		Tickers: tickers,
		index:   make(map[string]int, len(tickers)),
	}

	for i, t := range tickers {
		if _, dup := u.index[t.Code]; dup {
			return nil, fmt.Errorf("duplicate stock code %q in universe", t.Code)
		}
		u.index[t.Code] = i
	}

	return u, nil
}

// Lookup returns the ticker metadata for code
func (u *Universe) Lookup(code string) (Ticker, bool) {
	if u == nil {
		return Ticker{}, false
	}
	i, ok := u.index[code]
	if !ok {
		return Ticker{}, false
	}
	return u.Tickers[i], true
}

// Contains checks if a stock code is in the universe
func (u *Universe) Contains(code string) bool {
	_, ok := u.Lookup(code)
	return ok
}

// Codes returns the ticker codes in snapshot order
func (u *Universe) Codes() []string {
	codes := make([]string, len(u.Tickers))
	for i, t := range u.Tickers {
		codes[i] = t.Code
	}
	return codes
}

// Count returns the number of tickers
func (u *Universe) Count() int {
	if u == nil {
		return 0
	}
	return len(u.Tickers)
}

// CountByExchange tallies tickers per venue
func (u *Universe) CountByExchange() map[Exchange]int {
	counts := make(map[Exchange]int)
	for _, t := range u.Tickers {
		counts[t.Exchange]++
	}
	return counts
}
