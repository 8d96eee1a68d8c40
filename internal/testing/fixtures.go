package testing

import (
	"math"
	"time"

	"github.com/aristath/factorlens/internal/domain"
)

// fixtureStart is the first date of every generated series. It is a Tuesday.
var fixtureStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// BusinessDates returns n consecutive weekdays starting at 2024-01-02.
func BusinessDates(n int) []string {
	out := make([]string, 0, n)
	d := fixtureStart
	for len(out) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d.Format("2006-01-02"))
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

// NewPriceSeries builds a series from closes on consecutive business dates.
func NewPriceSeries(closes ...float64) domain.PriceSeries {
	dates := BusinessDates(len(closes))
	series := make(domain.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = domain.PricePoint{Date: dates[i], Close: c}
	}
	return series
}

// NewTrendingSeries builds n closes starting at 100 whose daily returns
// oscillate around drift with the given amplitude and period.
func NewTrendingSeries(n int, drift, amplitude float64, period int) domain.PriceSeries {
	closes := make([]float64, n)
	price := 100.0
	for i := 0; i < n; i++ {
		closes[i] = price
		r := drift + amplitude*math.Sin(2*math.Pi*float64(i)/float64(period))
		price *= 1 + r
	}
	return NewPriceSeries(closes...)
}

// NewFactorSet builds n daily factor rows aligned with BusinessDates(n+1)[1:],
// which are the return dates of a series of n+1 closes. Values are
// deterministic and linearly independent across columns.
func NewFactorSet(n int, withMomentum bool) domain.FactorSet {
	dates := BusinessDates(n + 1)[1:]
	rows := make([]domain.FactorRow, n)
	for i := 0; i < n; i++ {
		x := float64(i)
		row := domain.FactorRow{
			Date:  dates[i],
			MktRF: 0.010 * math.Sin(x*0.7),
			SMB:   0.004 * math.Cos(x*1.3),
			HML:   0.003 * math.Sin(x*2.1+0.5),
			RMW:   0.002 * math.Cos(x*0.4+1.0),
			CMA:   0.0025 * math.Sin(x*3.7+0.2),
			RF:    0.0001,
		}
		if withMomentum {
			mom := 0.005 * math.Cos(x*1.9+0.3)
			row.MOM = &mom
		}
		rows[i] = row
	}
	return domain.FactorSet{Rows: rows, HasMomentum: withMomentum}
}

// NewClassificationFixtures returns classifications for a handful of well
// known tickers.
func NewClassificationFixtures() map[string]domain.Classification {
	return map[string]domain.Classification{
		"VOO":  {Region: "US", Sector: "Broad US Equity", Factor: "US Beta", Source: "manual"},
		"VXUS": {Region: "ex-US", Sector: "Broad ex-US Equity", Factor: "International Beta", Source: "manual"},
		"XOM":  {Region: "US", Sector: "Energy", Factor: "Energy/Cyclicals", Source: "manual"},
	}
}
