package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestHoldingInput_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		input    HoldingInput
		expected Holding
	}{
		{
			name:     "equity by default",
			input:    HoldingInput{Ticker: " voo ", MarketValue: 100},
			expected: Equity{Ticker: "VOO", MarketValue: 100},
		},
		{
			name:     "unknown kind is equity",
			input:    HoldingInput{Ticker: "xom", Kind: "future", MarketValue: 50},
			expected: Equity{Ticker: "XOM", MarketValue: 50},
		},
		{
			name:     "option without delta gets full exposure",
			input:    HoldingInput{Ticker: "spy250620c500", Kind: "option", Underlying: "spy", MarketValue: 10, Expiration: "2025-06-20"},
			expected: Option{Ticker: "SPY250620C500", Underlying: "SPY", Delta: 1, Expiration: "2025-06-20", MarketValue: 10},
		},
		{
			name:     "delta clamped above",
			input:    HoldingInput{Ticker: "c1", Kind: "option", Underlying: "xle", Delta: ptr(1.7), MarketValue: 10},
			expected: Option{Ticker: "C1", Underlying: "XLE", Delta: 1, MarketValue: 10},
		},
		{
			name:     "delta clamped below",
			input:    HoldingInput{Ticker: "p1", Kind: "option", Underlying: "xle", Delta: ptr(-3), MarketValue: 10},
			expected: Option{Ticker: "P1", Underlying: "XLE", Delta: -1, MarketValue: 10},
		},
		{
			name:     "non-finite delta falls back to 1",
			input:    HoldingInput{Ticker: "p2", Kind: "option", Underlying: "xle", Delta: ptr(math.NaN()), MarketValue: 10},
			expected: Option{Ticker: "P2", Underlying: "XLE", Delta: 1, MarketValue: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.Normalize())
		})
	}
}

func TestOption_EffectivePosition(t *testing.T) {
	withUnderlying := Option{Ticker: "C1", Underlying: "XLE", Delta: 0.5, MarketValue: 200}
	assert.Equal(t, "XLE", withUnderlying.EffectiveTicker())
	assert.Equal(t, 100.0, withUnderlying.ExposureValue())
	assert.False(t, withUnderlying.ProxyUnderlying())

	proxy := Option{Ticker: "C2", Delta: -0.25, MarketValue: 400}
	assert.Equal(t, "C2", proxy.EffectiveTicker())
	assert.Equal(t, -100.0, proxy.ExposureValue())
	assert.True(t, proxy.ProxyUnderlying())
}

func TestNormalizeHoldings_DropsMalformed(t *testing.T) {
	inputs := []HoldingInput{
		{Ticker: "VOO", MarketValue: 100},
		{Ticker: "", MarketValue: 100},
		{Ticker: "NEG", MarketValue: -5},
		{Ticker: "ZERO", MarketValue: 0},
		{Ticker: "INF", MarketValue: math.Inf(1)},
		{Ticker: "NAN", MarketValue: math.NaN()},
		{Ticker: "c1", Kind: "option", Underlying: "xle", Delta: ptr(0.4), MarketValue: 30},
	}

	holdings := NormalizeHoldings(inputs)

	require.Len(t, holdings, 2)
	assert.Equal(t, "VOO", holdings[0].Symbol())
	assert.Equal(t, "XLE", holdings[1].EffectiveTicker())
}

func TestInput_RoundTripsVariant(t *testing.T) {
	opt := Option{Ticker: "C1", Underlying: "XLE", Delta: 0.4, Expiration: "2025-01-17", MarketValue: 30}
	assert.Equal(t, opt, Input(opt).Normalize())

	eq := Equity{Ticker: "VOO", MarketValue: 100}
	assert.Equal(t, eq, Input(eq).Normalize())
}

func TestStructureWarnings(t *testing.T) {
	holdings := []Holding{
		Equity{Ticker: "VOO", MarketValue: 100},
		Option{Ticker: "C1", Delta: 1, MarketValue: 10},
		Option{Ticker: "C2", Underlying: "XLE", Delta: 1, Expiration: "2025-01-17", MarketValue: 10},
	}

	assert.Equal(t, []string{
		"C1: option missing underlying (using ticker as proxy)",
		"C1: option missing expiration date",
	}, StructureWarnings(holdings))
}
