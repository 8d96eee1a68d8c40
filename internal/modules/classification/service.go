// Package classification assigns region, sector and factor bucket labels
// to tickers for the concentration report.
package classification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/clients/finnhub"
	"github.com/aristath/factorlens/internal/clients/upstream"
	"github.com/aristath/factorlens/internal/clients/yahoo"
	"github.com/aristath/factorlens/internal/domain"
)

// FinnhubMissingWarning is emitted when lookups ran without the Finnhub
// fallback.
const FinnhubMissingWarning = "Ticker classification fallback: Finnhub key not configured (FINNHUB_KEY or FINNHUB_API_KEY)."

const fetchConcurrency = 4

var errMissingSparkRow = errors.New("missing spark row")

// SparkSource returns spark metadata for a batch of tickers.
type SparkSource interface {
	Spark(ctx context.Context, tickers []string) (map[string]yahoo.SparkMeta, []string, error)
}

// ProfileSource returns company profiles.
type ProfileSource interface {
	Configured() bool
	Profile(ctx context.Context, ticker string) (finnhub.Profile, error)
}

// Service classifies tickers from the sector map, spark metadata and
// Finnhub profiles, in that order.
type Service struct {
	sectors   *SectorSource
	spark     SparkSource
	profiles  ProfileSource
	loader    *clientdata.Loader
	overrides Overrides
	log       zerolog.Logger
}

// NewService creates a classification service. Any source may be nil.
func NewService(sectors *SectorSource, spark SparkSource, profiles ProfileSource, loader *clientdata.Loader, overrides Overrides, log zerolog.Logger) *Service {
	if overrides == nil {
		overrides = DefaultOverrides()
	}
	return &Service{
		sectors:   sectors,
		spark:     spark,
		profiles:  profiles,
		loader:    loader,
		overrides: overrides,
		log:       log.With().Str("service", "classification").Logger(),
	}
}

// FinnhubConfigured reports whether the profile fallback is available.
func (s *Service) FinnhubConfigured() bool {
	return s.profiles != nil && s.profiles.Configured()
}

// Classify looks every ticker up in the upstream sources, ignoring
// overrides. Tickers nobody knows are Unknown with source "none" and a
// "T: reason" warning.
func (s *Service) Classify(ctx context.Context, tickers []string) (map[string]domain.Classification, []string, error) {
	sectorMap := map[string]domain.Classification{}
	if s.sectors != nil {
		sectorMap = s.sectors.Map(ctx)
	}

	results := make([]domain.Classification, len(tickers))
	errs := make([]error, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	var mu sync.Mutex

	for i, ticker := range tickers {
		i, ticker := i, ticker
		if c, ok := sectorMap[ticker]; ok {
			results[i] = c
			continue
		}
		g.Go(func() error {
			c, err := s.lookup(gctx, ticker)
			mu.Lock()
			results[i], errs[i] = c, err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	out := make(map[string]domain.Classification, len(tickers))
	warnings := make([]string, 0)
	for i, ticker := range tickers {
		if errs[i] != nil {
			c := domain.UnknownClassification()
			c.Source = SourceNone
			out[ticker] = c
			warnings = append(warnings, fmt.Sprintf("%s: %s", ticker, upstream.Brief(errs[i])))
			continue
		}
		out[ticker] = results[i]
	}
	return out, warnings, nil
}

// Resolve returns final classifications: overrides first, with their
// Unknown fields filled from Classify. Tickers fully covered by an override
// are not looked up.
func (s *Service) Resolve(ctx context.Context, tickers []string) (map[string]domain.Classification, []string, error) {
	out := make(map[string]domain.Classification, len(tickers))
	var lookup []string
	for _, t := range tickers {
		if s.overrides.Complete(t) {
			out[t] = s.overrides.Base(t)
			continue
		}
		lookup = append(lookup, t)
	}

	warnings := make([]string, 0)
	if len(lookup) == 0 {
		return out, warnings, nil
	}

	fetched, fetchWarnings, err := s.Classify(ctx, lookup)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, fetchWarnings...)
	if !s.FinnhubConfigured() {
		warnings = append(warnings, FinnhubMissingWarning)
	}

	for _, t := range lookup {
		out[t] = Merge(s.overrides.Base(t), fetched[t])
	}
	return out, warnings, nil
}

// lookup classifies one ticker through the cache, spark and Finnhub.
func (s *Service) lookup(ctx context.Context, ticker string) (domain.Classification, error) {
	c, _, err := clientdata.Load(ctx, s.loader, clientdata.TableClassifications, ticker, clientdata.TTLClassification,
		func(ctx context.Context) (domain.Classification, error) {
			return s.fetch(ctx, ticker)
		})
	return c, err
}

func (s *Service) fetch(ctx context.Context, ticker string) (domain.Classification, error) {
	sparkClass, sparkErr := s.fromSpark(ctx, ticker)
	if sparkErr == nil && sparkClass.Sector != domain.UnknownSector {
		return sparkClass, nil
	}
	if !s.FinnhubConfigured() {
		return sparkClass, sparkErr
	}

	profile, err := s.profiles.Profile(ctx, ticker)
	if err != nil {
		s.log.Debug().Err(err).Str("ticker", ticker).Msg("Finnhub profile unavailable")
		return sparkClass, sparkErr
	}

	fromProfile := FromProfile(profile)
	if sparkErr != nil {
		return fromProfile, nil
	}
	merged := Merge(sparkClass, fromProfile)
	merged.Source = SourceFinnhub
	return merged, nil
}

func (s *Service) fromSpark(ctx context.Context, ticker string) (domain.Classification, error) {
	if s.spark == nil {
		return domain.Classification{}, errMissingSparkRow
	}
	metas, _, err := s.spark.Spark(ctx, []string{ticker})
	if err != nil {
		return domain.Classification{}, err
	}
	meta, ok := metas[ticker]
	if !ok {
		return domain.Classification{}, errMissingSparkRow
	}
	return FromSpark(ticker, meta), nil
}
