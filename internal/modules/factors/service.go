// Package factors combines benchmark factor returns with per-stock
// FactorsToday loadings for the factors endpoint.
package factors

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/clients/factorstoday"
	"github.com/aristath/factorlens/internal/domain"
)

// Factor priority labels.
const (
	PriorityFactorsToday = "factorstoday"
	PriorityUnavailable  = "factorstoday_unavailable"
)

// LoadingsSource is the FactorsToday surface used here.
type LoadingsSource interface {
	Loadings(ctx context.Context, tickers []string) (map[string][]factorstoday.Row, string)
	Catalog(ctx context.Context) ([]factorstoday.Row, error)
}

// Report is the payload of the factors endpoint.
type Report struct {
	Factors        []domain.FactorRow            `json:"factors"`
	HasMomentum    bool                          `json:"hasMomentum"`
	SymbolFactors  map[string][]factorstoday.Row `json:"symbolFactors"`
	FactorsCatalog []factorstoday.Row            `json:"factorsCatalog"`
	Warnings       []string                      `json:"warnings"`
	FactorPriority string                        `json:"factorPriority"`
}

// Service builds factor reports.
type Service struct {
	benchmark domain.FactorDataProvider
	loadings  LoadingsSource
	log       zerolog.Logger
}

// NewService creates a factors service. Either source may be nil.
func NewService(benchmark domain.FactorDataProvider, loadings LoadingsSource, log zerolog.Logger) *Service {
	return &Service{
		benchmark: benchmark,
		loadings:  loadings,
		log:       log.With().Str("service", "factors").Logger(),
	}
}

// DailyFactors exposes the benchmark factor set.
func (s *Service) DailyFactors(ctx context.Context) (domain.FactorSet, error) {
	if s.benchmark == nil {
		return domain.FactorSet{}, errors.New("no benchmark factor source configured")
	}
	return s.benchmark.DailyFactors(ctx)
}

// Report gathers benchmark factors, loadings for tickers and the catalog.
// Every source failure becomes a warning; Report itself never fails.
func (s *Service) Report(ctx context.Context, tickers []string) Report {
	report := Report{
		Factors:        make([]domain.FactorRow, 0),
		SymbolFactors:  make(map[string][]factorstoday.Row),
		FactorsCatalog: make([]factorstoday.Row, 0),
		Warnings:       make([]string, 0),
	}

	if s.benchmark != nil {
		set, err := s.benchmark.DailyFactors(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Benchmark factors unavailable")
			report.Warnings = append(report.Warnings, "Fama-French factors unavailable: "+err.Error())
		} else {
			if set.Rows != nil {
				report.Factors = set.Rows
			}
			report.HasMomentum = set.HasMomentum
		}
	}

	if s.loadings != nil {
		if len(tickers) > 0 {
			symbolFactors, warning := s.loadings.Loadings(ctx, tickers)
			report.SymbolFactors = symbolFactors
			if warning != "" {
				report.Warnings = append(report.Warnings, warning)
			}
		}

		catalog, err := s.loadings.Catalog(ctx)
		if err != nil {
			report.Warnings = append(report.Warnings, "FactorsToday catalog unavailable: "+err.Error())
		} else if catalog != nil {
			report.FactorsCatalog = catalog
		}
	}

	report.FactorPriority = PriorityUnavailable
	for _, rows := range report.SymbolFactors {
		if len(rows) > 0 {
			report.FactorPriority = PriorityFactorsToday
			break
		}
	}

	return report
}
