package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/factorlens/internal/domain"
)

func TestMissingThreshold(t *testing.T) {
	tests := []struct {
		tickers  int
		expected int
	}{
		{0, 1},
		{1, 1},
		{3, 1},
		{4, 1},
		{7, 2},
		{10, 3},
		{16, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MissingThreshold(tt.tickers), "tickers=%d", tt.tickers)
	}
}

func TestSynthesizePortfolioReturns_MissingDataThreshold(t *testing.T) {
	full := func(closes ...float64) domain.PriceSeries {
		dates := []string{"d0", "d1", "d2"}
		s := make(domain.PriceSeries, 0, len(closes))
		for i, c := range closes {
			s = append(s, domain.PricePoint{Date: dates[i], Close: c})
		}
		return s
	}

	// C has no d2 data and D stops after d1: on d2 two of four tickers are
	// missing, above the threshold of 1. On d1 only D is missing.
	prices := map[string]domain.PriceSeries{
		"A": full(10, 11, 12),
		"B": full(20, 22, 24),
		"C": full(30, 33),
		"D": {{Date: "d0", Close: 40}},
	}
	exp := Exposure{
		Weights: map[string]float64{"A": 0.25, "B": 0.25, "C": 0.25, "D": 0.25},
		Tickers: []string{"A", "B", "C", "D"},
	}

	rows := SynthesizePortfolioReturns(prices, exp)

	require.Len(t, rows, 1)
	assert.Equal(t, "d1", rows[0].Date)
	expected := 0.0
	for _, r := range []float64{11.0/10 - 1, 22.0/20 - 1, 33.0/30 - 1} {
		expected += r * 0.25
	}
	assert.InDelta(t, expected, float64(rows[0].Return), 1e-15)
	assert.NotContains(t, rows[0].Row, "D")
}

func TestSynthesizePortfolioReturns_ZeroFillsWithoutReweighting(t *testing.T) {
	prices := map[string]domain.PriceSeries{
		"A": {{Date: "d0", Close: 100}, {Date: "d1", Close: 110}},
		"B": {{Date: "d5", Close: 100}, {Date: "d6", Close: 90}},
	}
	exp := Exposure{Weights: map[string]float64{"A": 0.5, "B": 0.5}, Tickers: []string{"A", "B"}}

	rows := SynthesizePortfolioReturns(prices, exp)

	require.Len(t, rows, 2)
	assert.Equal(t, "d1", rows[0].Date)
	assert.InDelta(t, 0.05, float64(rows[0].Return), 1e-12)
	assert.Equal(t, "d6", rows[1].Date)
	assert.InDelta(t, -0.05, float64(rows[1].Return), 1e-12)
}

func TestSynthesizePortfolioReturns_EndToEnd(t *testing.T) {
	exp := AggregateExposure([]Holding{
		Equity{Ticker: "A", MarketValue: 100},
		Equity{Ticker: "B", MarketValue: 100},
	})
	assert.Equal(t, 0.5, exp.Weights["A"])
	assert.Equal(t, 0.5, exp.Weights["B"])

	prices := map[string]domain.PriceSeries{
		"A": {{Date: "d1", Close: 10}, {Date: "d2", Close: 11}},
		"B": {{Date: "d1", Close: 20}, {Date: "d2", Close: 19}},
	}

	rows := SynthesizePortfolioReturns(prices, exp)

	require.Len(t, rows, 1)
	assert.Equal(t, "d2", rows[0].Date)
	assert.InDelta(t, 0.1, float64(rows[0].Row["A"]), 1e-12)
	assert.InDelta(t, -0.05, float64(rows[0].Row["B"]), 1e-12)
	assert.InDelta(t, 0.025, float64(rows[0].Return), 1e-12)

	stats := ComputeStatistics(PortfolioSeries(rows).Values(), 0)
	assert.InDelta(t, 0.025, float64(stats.CumulativeReturn), 1e-12)
	assert.Equal(t, 0.0, float64(stats.Volatility))
	assert.True(t, stats.Sharpe.IsNaN())
	assert.True(t, stats.Sortino.IsNaN())
	assert.Equal(t, 0.0, float64(stats.MaxDrawdown))
}

func TestSynthesizePortfolioReturns_DoesNotMutateInputs(t *testing.T) {
	prices := map[string]domain.PriceSeries{
		"A": {{Date: "d1", Close: 10}, {Date: "d2", Close: 11}},
	}
	exp := Exposure{Weights: map[string]float64{"A": 1}, Tickers: []string{"A"}}

	first := SynthesizePortfolioReturns(prices, exp)
	second := SynthesizePortfolioReturns(prices, exp)

	assert.Equal(t, first, second)
	assert.Len(t, prices["A"], 2)
	assert.Equal(t, []string{"A"}, exp.Tickers)
}
