package analytics

import (
	"math"
	"sort"

	"github.com/aristath/factorlens/internal/domain"
)

// MissingFraction is the share of weighted tickers that may be absent on a
// date before the date is dropped from the portfolio series.
const MissingFraction = 0.3

// PortfolioReturnRow is one date of the weighted portfolio series. Row keeps
// every ticker's return on that date for the correlation engine; tickers
// without data on the date have no entry.
type PortfolioReturnRow struct {
	Date   string           `json:"date"`
	Return Float            `json:"r"`
	Row    map[string]Float `json:"row"`
}

// MissingThreshold is max(1, floor(0.3 × tickerCount)).
func MissingThreshold(tickerCount int) int {
	return max(1, int(math.Floor(float64(tickerCount)*MissingFraction)))
}

// SynthesizePortfolioReturns combines per-ticker returns into one weighted
// series over the union of return dates.
//
// A date is dropped when more weighted tickers are missing than
// MissingThreshold allows. On a kept date an absent ticker contributes 0:
// the remaining weights are not rescaled. This approximation is deliberate
// and must be kept for output compatibility.
func SynthesizePortfolioReturns(prices map[string]domain.PriceSeries, exposure Exposure) []PortfolioReturnRow {
	byDate := make(map[string]map[string]Float)
	for ticker, series := range prices {
		for _, p := range ComputeReturns(series) {
			row, ok := byDate[p.Date]
			if !ok {
				row = make(map[string]Float)
				byDate[p.Date] = row
			}
			row[ticker] = Float(p.Return)
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	threshold := MissingThreshold(len(exposure.Tickers))
	out := make([]PortfolioReturnRow, 0, len(dates))
	for _, d := range dates {
		row := byDate[d]
		missing := 0
		for _, t := range exposure.Tickers {
			if _, ok := row[t]; !ok {
				missing++
			}
		}
		if missing > threshold {
			continue
		}

		r := 0.0
		for _, t := range exposure.Tickers {
			r += valueOrZero(row, t) * exposure.Weights[t]
		}
		out = append(out, PortfolioReturnRow{Date: d, Return: Float(r), Row: row})
	}
	return out
}

// PortfolioSeries projects the rows onto a plain return series.
func PortfolioSeries(rows []PortfolioReturnRow) ReturnSeries {
	out := make(ReturnSeries, len(rows))
	for i, row := range rows {
		out[i] = ReturnPoint{Date: row.Date, Return: float64(row.Return)}
	}
	return out
}

// valueOrZero reads a ticker's return, treating absent and NaN entries as 0.
func valueOrZero(row map[string]Float, ticker string) float64 {
	v, ok := row[ticker]
	if !ok || v.IsNaN() {
		return 0
	}
	return float64(v)
}
