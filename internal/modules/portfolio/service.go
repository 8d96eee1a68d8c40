package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/factorlens/internal/domain"
	"github.com/aristath/factorlens/internal/modules/analytics"
	"github.com/aristath/factorlens/internal/modules/prices"
)

// ErrNoHoldings is returned when no holding survives normalization.
var ErrNoHoldings = errors.New("no valid holdings")

// PriceSource loads daily histories for a batch of tickers.
type PriceSource interface {
	Fetch(ctx context.Context, tickers []string) prices.Result
}

// FactorSource loads the benchmark factor rows.
type FactorSource interface {
	DailyFactors(ctx context.Context) (domain.FactorSet, error)
}

// Classifier resolves tickers to classifications with overrides applied.
type Classifier interface {
	Resolve(ctx context.Context, tickers []string) (map[string]domain.Classification, []string, error)
}

// RunSaver persists a finished analysis.
type RunSaver interface {
	Save(ctx context.Context, a *Analysis) error
}

// Observer records analysis metrics.
type Observer interface {
	ObserveAnalysis(outcome string, seconds float64)
	SkipRegression(reason string)
}

// Service orchestrates one analysis run from holdings to stored result.
type Service struct {
	prices     PriceSource
	factors    FactorSource
	classifier Classifier
	runs       RunSaver
	observer   Observer
	log        zerolog.Logger
	now        func() time.Time
	newID      func() string

	defaultWindow int
}

// NewService creates the analysis orchestrator. runs and observer may be nil.
func NewService(prices PriceSource, factors FactorSource, classifier Classifier, runs RunSaver, observer Observer, log zerolog.Logger) *Service {
	return &Service{
		prices:     prices,
		factors:    factors,
		classifier: classifier,
		runs:       runs,
		observer:   observer,
		log:        log.With().Str("service", "portfolio").Logger(),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },

		defaultWindow: DefaultFactorWindow,
	}
}

// SetDefaultFactorWindow changes the window used when a request has none.
func (s *Service) SetDefaultFactorWindow(window int) {
	if window > 0 {
		s.defaultWindow = window
	}
}

// Analyze runs the whole pipeline. Provider problems degrade into warnings;
// only an empty portfolio or a failed save is an error.
func (s *Service) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	start := s.now()
	a, err := s.analyze(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if s.observer != nil {
		s.observer.ObserveAnalysis(outcome, s.now().Sub(start).Seconds())
	}
	return a, err
}

func (s *Service) analyze(ctx context.Context, req Request) (*Analysis, error) {
	holdings := analytics.NormalizeHoldings(req.Holdings)
	if len(holdings) == 0 {
		return nil, ErrNoHoldings
	}

	window := req.FactorWindow
	if window <= 0 {
		window = s.defaultWindow
	}

	exposure := analytics.AggregateExposure(holdings)

	var (
		priceResult     prices.Result
		classifications map[string]domain.Classification
		classWarnings   []string
		classErr        error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		priceResult = s.prices.Fetch(gctx, exposure.Tickers)
		return nil
	})
	g.Go(func() error {
		classifications, classWarnings, classErr = s.classifier.Resolve(gctx, exposure.Tickers)
		return nil
	})
	_ = g.Wait()

	warnings := newWarningSet()
	warnings.add(priceResult.Warnings...)
	if classErr != nil {
		s.log.Warn().Err(classErr).Msg("Classification failed")
		warnings.add(fmt.Sprintf("Classification unavailable: %v", classErr))
		classifications = make(map[string]domain.Classification)
	}
	warnings.add(classWarnings...)
	warnings.add(analytics.StructureWarnings(holdings)...)

	rows := analytics.SynthesizePortfolioReturns(priceResult.Prices, exposure)
	if len(rows) == 0 {
		warnings.add("No overlapping return history for the portfolio")
	}
	portfolioSeries := analytics.PortfolioSeries(rows)

	a := &Analysis{
		ID:              s.newID(),
		CreatedAt:       s.now().UTC(),
		RiskFreeRate:    req.RiskFreeRate,
		FactorWindow:    window,
		IncludeAssets:   req.IncludeAssets,
		Holdings:        inputs(holdings),
		Tickers:         exposure.Tickers,
		Weights:         exposure.Weights,
		GrossExposure:   exposure.GrossExposure,
		Observations:    len(rows),
		Statistics:      analytics.ComputeStatistics(portfolioSeries.Values(), req.RiskFreeRate),
		Returns:         rows,
		Concentration:   analytics.ComputeConcentration(holdings, classifications, exposure),
		Classifications: classifications,
		TopPairs:        []analytics.CorrelationPair{},
	}

	for _, w := range analytics.CorrelationWindows {
		m, err := analytics.CorrelationMatrix(rows, exposure.Tickers, w)
		if err != nil {
			return nil, fmt.Errorf("correlation %dd: %w", w, err)
		}
		a.Correlations = append(a.Correlations, m)
	}
	if longest, ok := a.Correlation(analytics.CorrelationWindows[len(analytics.CorrelationWindows)-1]); ok {
		a.TopPairs = analytics.TopPairs(longest, analytics.DefaultTopPairs)
	}

	for _, w := range analytics.DiversifierWindows {
		items, err := analytics.Diversifiers(rows, exposure.Tickers, w)
		if err != nil {
			return nil, fmt.Errorf("diversifiers %dd: %w", w, err)
		}
		a.Diversifiers = append(a.Diversifiers, DiversifierSet{Window: w, Items: items})
	}

	a.Factors = s.regress(ctx, window, portfolioSeries, priceResult.Prices, exposure.Tickers, req.IncludeAssets, warnings)
	a.Warnings = warnings.list()

	if s.runs != nil {
		if err := s.runs.Save(ctx, a); err != nil {
			return nil, fmt.Errorf("failed to save analysis run: %w", err)
		}
	}

	s.log.Info().
		Str("run_id", a.ID).
		Int("tickers", len(a.Tickers)).
		Int("observations", a.Observations).
		Int("regressions", len(a.Factors.Results)).
		Int("warnings", len(a.Warnings)).
		Msg("Portfolio analysis completed")

	return a, nil
}

// regress fits the portfolio and, on request, every asset against the
// factor model. A series that cannot be fitted is skipped with a warning.
func (s *Service) regress(ctx context.Context, window int, portfolioSeries analytics.ReturnSeries, priceSeries map[string]domain.PriceSeries, tickers []string, includeAssets bool, warnings *warningSet) FactorSummary {
	summary := FactorSummary{
		Model:   analytics.ModelLabel(false),
		Window:  window,
		Results: []analytics.RegressionResult{},
	}

	set, err := s.factors.DailyFactors(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Factor data unavailable")
		warnings.add(fmt.Sprintf("Factor load failed: %v", err))
		s.skip("factors_unavailable")
		return summary
	}
	summary.HasMomentum = set.HasMomentum
	summary.Model = analytics.ModelLabel(set.HasMomentum)
	byDate := set.ByDate()

	fit := func(name string, series analytics.ReturnSeries) {
		res, err := analytics.RunFactorRegression(name, series, byDate, window, set.HasMomentum)
		if err != nil {
			s.skip(skipReason(err))
			// Short overlaps are expected for new listings and stay silent.
			if !errors.Is(err, analytics.ErrInsufficientData) {
				warnings.add(fmt.Sprintf("Factor regression skipped: %v", err))
			}
			return
		}
		summary.Results = append(summary.Results, *res)
	}

	fit(analytics.PortfolioSeriesName, portfolioSeries)
	if includeAssets {
		for _, t := range tickers {
			series, ok := priceSeries[t]
			if !ok {
				continue
			}
			fit(t, analytics.ComputeReturns(series))
		}
	}
	return summary
}

func (s *Service) skip(reason string) {
	if s.observer != nil {
		s.observer.SkipRegression(reason)
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, analytics.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, analytics.ErrSingularMatrix):
		return "singular_matrix"
	default:
		return "error"
	}
}

func inputs(holdings []analytics.Holding) []analytics.HoldingInput {
	out := make([]analytics.HoldingInput, len(holdings))
	for i, h := range holdings {
		out[i] = analytics.Input(h)
	}
	return out
}

// warningSet keeps warnings unique in first-seen order.
type warningSet struct {
	seen  map[string]bool
	items []string
}

func newWarningSet() *warningSet {
	return &warningSet{seen: make(map[string]bool), items: make([]string, 0)}
}

func (w *warningSet) add(messages ...string) {
	for _, m := range messages {
		if m == "" || w.seen[m] {
			continue
		}
		w.seen[m] = true
		w.items = append(w.items, m)
	}
}

func (w *warningSet) list() []string {
	return w.items
}
