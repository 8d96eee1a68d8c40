// Package yahoo fetches daily price history and instrument metadata from the
// public Yahoo Finance chart and spark endpoints.
package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/clients/upstream"
	"github.com/aristath/factorlens/internal/domain"
)

const (
	// Provider names the breaker and metrics label for Yahoo requests.
	Provider = "yahoo"

	// DefaultBaseURL is the public query host.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// HistoryYears is how far back a chart request reaches.
	HistoryYears = 5

	// MaxHistoryPoints keeps roughly six trading years of closes.
	MaxHistoryPoints = 1512
)

// Client for the Yahoo Finance chart and spark endpoints.
type Client struct {
	baseURL string
	http    *upstream.Client
	loader  *clientdata.Loader
	log     zerolog.Logger
	now     func() time.Time
}

// NewClient creates a Yahoo client. loader may be nil to disable caching.
func NewClient(httpClient *upstream.Client, loader *clientdata.Loader, log zerolog.Logger) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		http:    httpClient,
		loader:  loader,
		log:     log.With().Str("client", "yahoo").Logger(),
		now:     time.Now,
	}
}

// WithBaseURL points the client at another host, mostly for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// History returns up to MaxHistoryPoints daily adjusted closes for ticker,
// cache first. Upstream failures fall back to a stale cached copy.
func (c *Client) History(ctx context.Context, ticker string) (domain.PriceSeries, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker")
	}

	series, _, err := clientdata.Load(ctx, c.loader, clientdata.TablePriceHistory, ticker, clientdata.TTLPriceHistory,
		func(ctx context.Context) (domain.PriceSeries, error) {
			return c.fetchHistory(ctx, ticker)
		})
	if err != nil {
		return nil, err
	}
	return series, nil
}

func (c *Client) fetchHistory(ctx context.Context, ticker string) (domain.PriceSeries, error) {
	now := c.now()
	start := now.AddDate(-HistoryYears, 0, 0)

	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", now.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	c.log.Debug().Str("ticker", ticker).Msg("Fetching chart history")

	var resp chartResponse
	if err := c.http.GetJSON(ctx, Provider, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Chart.Result) == 0 {
		if resp.Chart.Error != nil && resp.Chart.Error.Description != "" {
			return nil, fmt.Errorf("no price data for %s: %s", ticker, resp.Chart.Error.Description)
		}
		return nil, fmt.Errorf("no price data for %s", ticker)
	}

	series := parseChart(resp.Chart.Result[0])
	c.log.Debug().Str("ticker", ticker).Int("points", len(series)).Msg("Fetched chart history")
	return series, nil
}

// parseChart pairs timestamps with adjusted closes, drops null, zero and
// non-finite closes and keeps the most recent MaxHistoryPoints.
func parseChart(result chartResult) domain.PriceSeries {
	var closes []*float64
	if len(result.Indicators.AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	}

	series := make(domain.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || !domain.ValidClose(*closes[i]) {
			continue
		}
		series = append(series, domain.PricePoint{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *closes[i],
		})
	}

	if len(series) > MaxHistoryPoints {
		series = series[len(series)-MaxHistoryPoints:]
	}
	return series
}
