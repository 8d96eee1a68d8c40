package analytics

import (
	"math"

	"github.com/aristath/factorlens/pkg/formulas"
)

// Statistics summarizes a return series. Undefined values are NaN.
type Statistics struct {
	CumulativeReturn Float `json:"cumulativeReturn" msgpack:"cumulative_return"`
	Volatility       Float `json:"volatility" msgpack:"volatility"`
	Sharpe           Float `json:"sharpe" msgpack:"sharpe"`
	Sortino          Float `json:"sortino" msgpack:"sortino"`
	MaxDrawdown      Float `json:"maxDrawdown" msgpack:"max_drawdown"`
}

// ComputeStatistics evaluates the whole series against an annual risk-free
// rate. Sharpe is NaN when volatility is zero or undefined; Sortino is NaN
// when there are no negative returns or their spread is zero. MaxDrawdown is
// measured on the compounded path from a starting peak of 1 and is never
// positive.
func ComputeStatistics(rs []float64, riskFreeRate float64) Statistics {
	avg := formulas.Mean(rs)
	vol := formulas.AnnualizedVolatility(rs)
	excess := (avg - riskFreeRate/formulas.TradingDaysPerYear) * formulas.TradingDaysPerYear

	sharpe := math.NaN()
	if vol != 0 && !math.IsNaN(vol) {
		sharpe = excess / vol
	}

	sortino := math.NaN()
	downside := formulas.DownsideDeviation(rs) * math.Sqrt(formulas.TradingDaysPerYear)
	if downside != 0 && !math.IsNaN(downside) {
		sortino = excess / downside
	}

	return Statistics{
		CumulativeReturn: Float(formulas.CumulativeReturn(rs)),
		Volatility:       Float(vol),
		Sharpe:           Float(sharpe),
		Sortino:          Float(sortino),
		MaxDrawdown:      Float(MaxDrawdown(rs)),
	}
}

// MaxDrawdown is the minimum of path/peak - 1 over the compounded path.
func MaxDrawdown(rs []float64) float64 {
	peak, path, mdd := 1.0, 1.0, 0.0
	for _, r := range rs {
		path *= 1 + r
		peak = math.Max(peak, path)
		mdd = math.Min(mdd, path/peak-1)
	}
	return mdd
}
