package analytics

import "math"

// Exposure is the normalized weight map of a portfolio.
type Exposure struct {
	// Weights maps effective ticker to a signed fraction of gross exposure.
	// Σ|w| = 1 unless GrossExposure is 0, in which case every weight is 0.
	Weights map[string]float64 `json:"weights"`
	// Tickers lists the effective tickers in first-seen order.
	Tickers []string `json:"tickers"`
	// GrossExposure is Σ|aggregated exposure| in currency units.
	GrossExposure float64 `json:"grossExposure"`
}

// AggregateExposure nets exposure values by effective ticker and normalizes
// them by gross exposure. Invalid holdings are skipped.
func AggregateExposure(holdings []Holding) Exposure {
	byTicker := make(map[string]float64)
	tickers := make([]string, 0)
	for _, h := range holdings {
		if !IsValid(h) {
			continue
		}
		t := h.EffectiveTicker()
		if _, seen := byTicker[t]; !seen {
			tickers = append(tickers, t)
		}
		byTicker[t] += h.ExposureValue()
	}

	gross := 0.0
	for _, t := range tickers {
		gross += math.Abs(byTicker[t])
	}

	weights := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		if gross == 0 {
			weights[t] = 0
			continue
		}
		weights[t] = byTicker[t] / gross
	}

	return Exposure{Weights: weights, Tickers: tickers, GrossExposure: gross}
}
