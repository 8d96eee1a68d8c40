// Package prices serves daily price histories for a batch of tickers.
package prices

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/factorlens/internal/clients/upstream"
	"github.com/aristath/factorlens/internal/domain"
)

// MinHistoryPoints is the shortest history served without a warning.
const MinHistoryPoints = 200

// fetchConcurrency bounds parallel provider requests.
const fetchConcurrency = 4

// Result holds every ticker that loaded plus a warning per problem.
// Tickers that failed are absent from Prices.
type Result struct {
	Prices   map[string]domain.PriceSeries `json:"prices"`
	Warnings []string                      `json:"warnings"`
}

// Service fetches price histories.
type Service struct {
	provider domain.PriceHistoryProvider
	log      zerolog.Logger
}

// NewService creates a prices service.
func NewService(provider domain.PriceHistoryProvider, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		log:      log.With().Str("service", "prices").Logger(),
	}
}

// Fetch loads every ticker concurrently. One ticker failing never affects
// the others; warnings come back in ticker order.
func (s *Service) Fetch(ctx context.Context, tickers []string) Result {
	series := make([]domain.PriceSeries, len(tickers))
	errs := make([]error, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	var mu sync.Mutex

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			data, err := s.provider.History(gctx, ticker)
			mu.Lock()
			series[i], errs[i] = data, err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	result := Result{
		Prices:   make(map[string]domain.PriceSeries, len(tickers)),
		Warnings: make([]string, 0),
	}
	for i, ticker := range tickers {
		if errs[i] != nil {
			s.log.Warn().Err(errs[i]).Str("ticker", ticker).Msg("Price history unavailable")
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", ticker, upstream.Brief(errs[i])))
			continue
		}
		clean := series[i].Clean()
		if dropped := len(series[i]) - len(clean); dropped > 0 {
			s.log.Debug().Str("ticker", ticker).Int("dropped", dropped).Msg("Dropped invalid closes")
		}
		result.Prices[ticker] = clean
		if len(clean) < MinHistoryPoints {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: insufficient history (%d days)", ticker, len(clean)))
		}
	}

	s.log.Debug().
		Int("requested", len(tickers)).
		Int("loaded", len(result.Prices)).
		Msg("Fetched price histories")

	return result
}
