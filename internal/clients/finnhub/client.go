// Package finnhub looks up company profiles on Finnhub. It is only used as
// a classification fallback and stays idle without an API key.
package finnhub

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/clients/upstream"
)

const (
	// Provider names the breaker and metrics label.
	Provider = "finnhub"

	// DefaultBaseURL is the v1 API root.
	DefaultBaseURL = "https://finnhub.io/api/v1"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("finnhub key not configured")

// ErrNoProfile is returned when Finnhub knows nothing about a symbol.
var ErrNoProfile = errors.New("no finnhub profile")

// Profile is the subset of stock/profile2 used for classification.
type Profile struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Exchange string `json:"exchange"`
	Industry string `json:"finnhubIndustry"`
}

// Client for the Finnhub REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *upstream.Client
	log     zerolog.Logger
}

// NewClient creates a Finnhub client.
func NewClient(httpClient *upstream.Client, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    httpClient,
		log:     log.With().Str("client", "finnhub").Logger(),
	}
}

// WithBaseURL points the client at another host, mostly for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Profile fetches the company profile of ticker.
func (c *Client) Profile(ctx context.Context, ticker string) (Profile, error) {
	if !c.Configured() {
		return Profile{}, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("symbol", ticker)
	q.Set("token", c.apiKey)

	var p Profile
	if err := c.http.GetJSON(ctx, Provider, c.baseURL+"/stock/profile2?"+q.Encode(), nil, &p); err != nil {
		return Profile{}, err
	}
	if p.Ticker == "" && p.Name == "" && p.Industry == "" {
		return Profile{}, fmt.Errorf("%s: %w", ticker, ErrNoProfile)
	}

	c.log.Debug().Str("ticker", ticker).Str("industry", p.Industry).Msg("Fetched profile")
	return p, nil
}
