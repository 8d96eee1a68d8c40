// Package portfolio runs the full portfolio analysis and keeps its results.
package portfolio

import (
	"time"

	"github.com/aristath/factorlens/internal/domain"
	"github.com/aristath/factorlens/internal/modules/analytics"
)

// DefaultFactorWindow is the regression window used when a request leaves it unset.
const DefaultFactorWindow = 252

// Request is the input of one analysis.
type Request struct {
	Holdings      []analytics.HoldingInput `json:"holdings"`
	RiskFreeRate  float64                  `json:"riskFreeRate"`
	FactorWindow  int                      `json:"factorWindow"`
	IncludeAssets bool                     `json:"includeAssets"`
}

// DiversifierSet ranks tickers by correlation with the portfolio over one window.
type DiversifierSet struct {
	Window int                     `json:"window"`
	Items  []analytics.Diversifier `json:"items"`
}

// FactorSummary holds the regressions of one run.
type FactorSummary struct {
	Model       string                       `json:"model"`
	HasMomentum bool                         `json:"hasMomentum"`
	Window      int                          `json:"window"`
	Results     []analytics.RegressionResult `json:"results"`
}

// Analysis is the immutable result of one run. It is persisted as a whole
// and every export is rendered from it.
type Analysis struct {
	ID            string                   `json:"id"`
	CreatedAt     time.Time                `json:"createdAt"`
	RiskFreeRate  float64                  `json:"riskFreeRate"`
	FactorWindow  int                      `json:"factorWindow"`
	IncludeAssets bool                     `json:"includeAssets"`
	Holdings      []analytics.HoldingInput `json:"holdings"`

	Tickers       []string           `json:"tickers"`
	Weights       map[string]float64 `json:"weights"`
	GrossExposure float64            `json:"grossExposure"`

	Observations int                            `json:"observations"`
	Statistics   analytics.Statistics           `json:"statistics"`
	Returns      []analytics.PortfolioReturnRow `json:"returns"`

	Concentration   analytics.Concentration          `json:"concentration"`
	Classifications map[string]domain.Classification `json:"classifications"`

	Correlations []analytics.Matrix          `json:"correlations"`
	TopPairs     []analytics.CorrelationPair `json:"topPairs"`
	Diversifiers []DiversifierSet            `json:"diversifiers"`

	Factors  FactorSummary `json:"factors"`
	Warnings []string      `json:"warnings"`
}

// Correlation returns the matrix computed over window trading days.
func (a *Analysis) Correlation(window int) (analytics.Matrix, bool) {
	for _, m := range a.Correlations {
		if m.Window == window {
			return m, true
		}
	}
	return analytics.Matrix{}, false
}

// RunSummary is the listing shape of a stored run.
type RunSummary struct {
	ID              string     `json:"id"`
	CreatedAt       time.Time  `json:"createdAt"`
	Tickers         []string   `json:"tickers"`
	FactorWindow    int        `json:"factorWindow"`
	PublishedAt     *time.Time `json:"publishedAt,omitempty"`
	PublishedPrefix string     `json:"publishedPrefix,omitempty"`
}
