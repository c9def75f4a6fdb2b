package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wonny/highscan/internal/contracts"
)

// aShareBoards selects SZ main/ChiNext, SH main/STAR and BJ boards
const aShareBoards = "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:81+s:2048"

// AllCodes lists every A-share ticker, paging through the clist endpoint.
// With data.total present paging runs until that many rows arrived or a page
// is empty, since the provider may clamp pz below the requested size.
// Without it a short page ends the listing.
// Codes and list dates are returned as the provider sends them.
// ⭐ SSOT: 종목 목록 조회는 이 함수에서만
func (c *Client) AllCodes(ctx context.Context) ([]contracts.Ticker, error) {
	var all []contracts.Ticker
	seen, reported := 0, 0

	for page := 1; page <= maxListPages; page++ {
		params := url.Values{}
		params.Set("pn", strconv.Itoa(page))
		params.Set("pz", strconv.Itoa(c.pageSize))
		params.Set("po", "0")
		params.Set("np", "1")
		params.Set("fltt", "2")
		params.Set("invt", "2")
		params.Set("fid", "f12")
		params.Set("fs", aShareBoards)
		params.Set("fields", "f12,f14,f13,f26")

		body, err := c.fetchJSON(ctx, c.listURL, params)
		if err != nil {
			return nil, fmt.Errorf("all_codes page %d: %w", page, err)
		}

		tickers, rows, total, err := parseClist(body)
		if err != nil {
			return nil, fmt.Errorf("all_codes page %d: %w", page, err)
		}
		all = append(all, tickers...)
		seen += rows
		if total > 0 {
			reported = total
		}

		if rows == 0 {
			break
		}
		if reported > 0 {
			if seen >= reported {
				break
			}
		} else if rows < c.pageSize {
			break
		}
	}

	log := c.logger.WithFields(map[string]interface{}{"count": len(all), "rows": seen})
	if reported > 0 && seen < reported {
		log.WithField("total", reported).Warn("Ticker list shorter than reported total")
	} else {
		log.Info("Fetched ticker list")
	}
	return all, nil
}

// parseClist reads data.diff (array or index-keyed object) and data.total.
// rows counts every diff entry, including ones without a code.
func parseClist(body []byte) (tickers []contracts.Ticker, rows, total int, err error) {
	if !gjson.ValidBytes(body) {
		return nil, 0, 0, fmt.Errorf("invalid JSON response")
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, 0, 0, nil
	}

	total = int(data.Get("total").Int())
	diff := data.Get("diff")
	if diff.Exists() && !diff.IsArray() && !diff.IsObject() && diff.Type != gjson.Null {
		return nil, 0, 0, fmt.Errorf("data.diff has unexpected type %s", diff.Type)
	}

	diff.ForEach(func(_, v gjson.Result) bool {
		rows++
		code := strings.TrimSpace(v.Get("f12").String())
		if code == "" || code == "-" {
			return true
		}
		tickers = append(tickers, contracts.Ticker{
			Code:      code,
			ShortName: strings.TrimSpace(v.Get("f14").String()),
			Exchange:  exchangeOf(code, v.Get("f13").Int()),
			ListDate:  v.Get("f26").String(),
		})
		return true
	})
	return tickers, rows, total, nil
}

// exchangeOf derives the venue from the clist market id (f13) and the code
func exchangeOf(code string, market int64) contracts.Exchange {
	if market == 1 {
		return contracts.ExchangeSH
	}
	if isBeijing(contracts.NormalizeCode(code)) {
		return contracts.ExchangeBJ
	}
	return contracts.ExchangeSZ
}
