package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/wonny/highscan/internal/contracts"
	"github.com/wonny/highscan/pkg/retry"
)

// kTypes maps the bar period to Eastmoney's klt parameter
var kTypes = map[int]string{
	1: "101", // 日
	2: "102", // 周
	3: "103", // 月
}

// GetMarket returns forward-adjusted bars for code from startDate to today,
// oldest first. A ticker without history yields an empty slice, not an error.
// ⭐ SSOT: 시세 이력 조회는 이 함수에서만
func (c *Client) GetMarket(ctx context.Context, code, startDate string, kType int) ([]contracts.RawBar, error) {
	klt, ok := kTypes[kType]
	if !ok {
		return nil, retry.Permanent(fmt.Errorf("unsupported k_type %d", kType))
	}
	beg := strings.ReplaceAll(startDate, "-", "")
	if len(beg) != 8 {
		return nil, retry.Permanent(fmt.Errorf("start date must be YYYY-MM-DD, got %q", startDate))
	}

	params := url.Values{}
	params.Set("secid", SecID(code))
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56")
	params.Set("klt", klt)
	params.Set("fqt", "1")
	params.Set("beg", beg)
	params.Set("end", "20500101")

	body, err := c.fetchJSON(ctx, c.klineURL, params)
	if err != nil {
		return nil, fmt.Errorf("get_market %s: %w", code, err)
	}

	bars, err := parseKlines(body)
	if err != nil {
		return nil, fmt.Errorf("get_market %s: %w", code, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": code,
		"count":      len(bars),
	}).Debug("Fetched klines")
	return bars, nil
}

// parseKlines reads data.klines ("date,open,close,high,low,volume" rows).
// Missing or null data means no history.
func parseKlines(body []byte) ([]contracts.RawBar, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON response")
	}

	klines := gjson.GetBytes(body, "data.klines")
	if !klines.Exists() || klines.Type == gjson.Null {
		return []contracts.RawBar{}, nil
	}
	if !klines.IsArray() {
		return nil, fmt.Errorf("data.klines is not an array")
	}

	arr := klines.Array()
	out := make([]contracts.RawBar, 0, len(arr))
	for _, v := range arr {
		s := strings.TrimSpace(v.String())
		if s == "" {
			continue
		}
		out = append(out, rowToBar(strings.Split(s, ",")))
	}
	return out, nil
}

func rowToBar(parts []string) contracts.RawBar {
	field := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	return contracts.RawBar{
		TradeDate: field(0),
		Open:      field(1),
		Close:     field(2),
		High:      field(3),
		Low:       field(4),
		Volume:    field(5),
	}
}
