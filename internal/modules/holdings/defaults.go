package holdings

import "github.com/aristath/factorlens/internal/modules/analytics"

var defaultHoldings = []struct {
	ticker      string
	marketValue float64
}{
	{"VOO", 600000}, {"VXUS", 200000}, {"XOM", 120000}, {"VALE", 5259}, {"KMTUY", 5444.07},
	{"CX", 5733}, {"PBR", 5681.40}, {"TS", 4880.70}, {"TIC", 4725}, {"ETN", 4482.36},
	{"OBE", 4849}, {"DVN", 5327.50}, {"DE", 4988.88}, {"HAP", 24058.79}, {"XLE", 22762.79}, {"FCG", 6775.45},
}

// Defaults returns a fresh copy of the sample portfolio.
func Defaults() []analytics.HoldingInput {
	out := make([]analytics.HoldingInput, len(defaultHoldings))
	for i, h := range defaultHoldings {
		out[i] = analytics.HoldingInput{
			Ticker:      h.ticker,
			Kind:        analytics.KindEquity,
			MarketValue: h.marketValue,
		}
	}
	return out
}
