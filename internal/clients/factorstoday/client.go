// Package factorstoday fetches per-stock factor loadings and the factor
// catalog from factorstoday.com.
package factorstoday

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/clients/upstream"
)

const (
	// Provider names the breaker and metrics label.
	Provider = "factorstoday"

	// DefaultBaseURL is the API root.
	DefaultBaseURL = "https://www.factorstoday.com/api"

	// catalogKey is the factor_catalog row holding the catalog.
	catalogKey = "catalog"

	// fetchConcurrency bounds parallel loadings requests.
	fetchConcurrency = 4
)

// Row is one loading or catalog entry. The API does not publish a schema,
// so rows are passed through untouched.
type Row map[string]interface{}

// Client for the FactorsToday API.
type Client struct {
	baseURL string
	apiKey  string
	http    *upstream.Client
	loader  *clientdata.Loader
	log     zerolog.Logger
}

// NewClient creates a FactorsToday client. apiKey and loader are optional.
func NewClient(httpClient *upstream.Client, loader *clientdata.Loader, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    httpClient,
		loader:  loader,
		log:     log.With().Str("client", "factorstoday").Logger(),
	}
}

// WithBaseURL points the client at another host, mostly for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
		h.Set("X-Api-Key", c.apiKey)
	}
	return h
}

// Loadings fetches loadings for every ticker. Every requested ticker is a
// key of the result; failed tickers map to an empty slice and are named in
// warning, which is empty when nothing failed.
func (c *Client) Loadings(ctx context.Context, tickers []string) (map[string][]Row, string) {
	out := make(map[string][]Row, len(tickers))
	failures := make([]string, len(tickers))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			rows, err := c.loadingsFor(gctx, ticker)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures[i] = ticker + ": " + upstream.Brief(err)
				out[ticker] = []Row{}
				return nil
			}
			out[ticker] = rows
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for _, f := range failures {
		if f != "" {
			failed = append(failed, f)
		}
	}
	if len(failed) == 0 {
		return out, ""
	}

	c.log.Warn().Strs("failures", failed).Msg("Loadings unavailable for some tickers")
	return out, "FactorsToday loadings unavailable for " + strings.Join(failed, ", ")
}

func (c *Client) loadingsFor(ctx context.Context, ticker string) ([]Row, error) {
	rows, _, err := clientdata.Load(ctx, c.loader, clientdata.TableFactorLoadings, ticker, clientdata.TTLFactorLoadings,
		func(ctx context.Context) ([]Row, error) {
			var payload interface{}
			endpoint := fmt.Sprintf("%s/stock-loadings/%s", c.baseURL, url.PathEscape(ticker))
			if err := c.http.GetJSON(ctx, Provider, endpoint, c.headers(), &payload); err != nil {
				return nil, err
			}
			rows := NormalizeLoadings(payload, []string{ticker})[ticker]
			if rows == nil {
				rows = []Row{}
			}
			return rows, nil
		})
	return rows, err
}

// Catalog fetches the factor catalog.
func (c *Client) Catalog(ctx context.Context) ([]Row, error) {
	rows, _, err := clientdata.Load(ctx, c.loader, clientdata.TableFactorCatalog, catalogKey, clientdata.TTLFactorCatalog,
		func(ctx context.Context) ([]Row, error) {
			var payload interface{}
			if err := c.http.GetJSON(ctx, Provider, c.baseURL+"/factors/catalog", c.headers(), &payload); err != nil {
				return nil, fmt.Errorf("FactorsToday catalog %s", upstream.Brief(err))
			}
			return NormalizeCatalog(payload), nil
		})
	return rows, err
}
