// Package formulas holds the numeric primitives shared by the analytics engine.
// Every statistic here is a population statistic (divisor N).
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization factor for daily series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values.
// An empty slice has no mean and yields NaN.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population standard deviation (divisor N).
// An empty slice yields NaN, a constant slice yields exactly 0.
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	if IsConstant(data) {
		return 0
	}
	// The compensated two-pass variance can round to a tiny negative value.
	v := stat.PopVariance(data, nil)
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

// IsConstant reports whether every value equals the first one.
func IsConstant(data []float64) bool {
	for _, v := range data[min(1, len(data)):] {
		if v != data[0] {
			return false
		}
	}
	return true
}

// DownsideDeviation is the population standard deviation of the negative
// values only. Returns 0 when there are no negative values.
func DownsideDeviation(data []float64) float64 {
	neg := make([]float64, 0, len(data))
	for _, v := range data {
		if v < 0 {
			neg = append(neg, v)
		}
	}
	if len(neg) == 0 {
		return 0
	}
	return PopStdDev(neg)
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: population Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return PopStdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// Correlation calculates the Pearson correlation coefficient between two
// equally long datasets. A constant series on either side has zero variance
// and gives NaN, as do empty or mismatched inputs.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return math.NaN()
	}
	if IsConstant(x) || IsConstant(y) {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// CumulativeReturn compounds periodic returns: Π(1+r) − 1.
func CumulativeReturn(returns []float64) float64 {
	acc := 1.0
	for _, r := range returns {
		acc *= 1 + r
	}
	return acc - 1
}

// CompoundDaily annualizes a daily rate by compounding it over a trading year.
func CompoundDaily(daily float64) float64 {
	return math.Pow(1+daily, TradingDaysPerYear) - 1
}

// HHI is the Herfindahl-Hirschman index of a set of weights (Σw²).
func HHI(weights []float64) float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w * w
	}
	return sum
}
