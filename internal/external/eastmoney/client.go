package eastmoney

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/highscan/pkg/config"
	"github.com/wonny/highscan/pkg/httputil"
	"github.com/wonny/highscan/pkg/logger"
)

const (
	defaultKlineURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
	defaultListURL  = "https://82.push2.eastmoney.com/api/qt/clist/get"
	defaultPageSize = 500

	// maxListPages bounds paging if the provider keeps returning full pages
	maxListPages = 200
)

// Client handles communication with the Eastmoney push2 / push2his APIs
// ⭐ SSOT: 동방재부(东方财富) API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	klineURL   string
	listURL    string
	pageSize   int
}

// NewClient creates a new Eastmoney client. Empty config fields fall back
// to the public endpoints.
func NewClient(httpClient *httputil.Client, cfg config.EastmoneyConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("eastmoney"),
		klineURL:   cfg.KlineURL,
		listURL:    cfg.ListURL,
		pageSize:   cfg.PageSize,
	}
	if c.klineURL == "" {
		c.klineURL = defaultKlineURL
	}
	if c.listURL == "" {
		c.listURL = defaultListURL
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	return c
}

// fetchJSON fetches a JSON document from endpoint with params
func (c *Client) fetchJSON(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	fullURL := endpoint
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		fullURL = endpoint + sep + params.Encode()
	}

	body, err := c.httpClient.GetBytes(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return body, nil
}

// SecID converts a 6-digit code to Eastmoney's market-qualified id:
// "1.<code>" for Shanghai, "0.<code>" for Shenzhen and Beijing.
func SecID(code string) string {
	code = strings.TrimSpace(code)
	if isShanghai(code) {
		return "1." + code
	}
	return "0." + code
}

func isShanghai(code string) bool {
	if code == "" || strings.HasPrefix(code, "92") {
		return false
	}
	switch code[0] {
	case '6', '5', '9':
		return true
	}
	return false
}

func isBeijing(code string) bool {
	if strings.HasPrefix(code, "92") {
		return true
	}
	return code != "" && (code[0] == '4' || code[0] == '8')
}
