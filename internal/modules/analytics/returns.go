package analytics

import "github.com/aristath/factorlens/internal/domain"

// ReturnPoint is the simple return realized on Date.
type ReturnPoint struct {
	Date   string  `json:"date"`
	Return float64 `json:"r"`
}

// ReturnSeries is an ascending sequence of simple returns.
type ReturnSeries []ReturnPoint

// Values returns the bare return vector.
func (s ReturnSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Return
	}
	return out
}

// Tail returns the last n points, or the whole series when shorter.
func (s ReturnSeries) Tail(n int) ReturnSeries {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// ComputeReturns converts closes into simple returns:
// r[i] = close[i]/close[i-1] - 1, dated at the later point.
// Fewer than two points yields an empty series.
func ComputeReturns(series domain.PriceSeries) ReturnSeries {
	if len(series) < 2 {
		return ReturnSeries{}
	}
	out := make(ReturnSeries, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		out = append(out, ReturnPoint{
			Date:   series[i].Date,
			Return: series[i].Close/series[i-1].Close - 1,
		})
	}
	return out
}
