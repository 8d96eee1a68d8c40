package analytics

import (
	"math"
	"sort"

	"github.com/aristath/factorlens/pkg/formulas"
)

// Standard lookback windows in trading days.
var (
	CorrelationWindows = []int{21, 63, 126}
	DiversifierWindows = []int{30, 90, 180}
)

// DefaultTopPairs is how many pairs TopPairs keeps when limit <= 0.
const DefaultTopPairs = 10

// Matrix is a symmetric ticker × ticker correlation matrix.
type Matrix struct {
	Window  int       `json:"window"`
	Tickers []string  `json:"tickers"`
	Values  [][]Float `json:"values"`
}

// At returns the correlation between tickers i and j.
func (m Matrix) At(i, j int) float64 {
	return float64(m.Values[i][j])
}

// Lookup returns the correlation between two named tickers.
func (m Matrix) Lookup(a, b string) (float64, bool) {
	i, j := indexOf(m.Tickers, a), indexOf(m.Tickers, b)
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return m.At(i, j), true
}

// CorrelationPair is one unordered pair of tickers.
type CorrelationPair struct {
	Pair  string `json:"pair"`
	A     string `json:"a"`
	B     string `json:"b"`
	Value Float  `json:"value"`
}

// Diversifier is a ticker's correlation with the portfolio itself.
type Diversifier struct {
	Ticker      string `json:"ticker"`
	Correlation Float  `json:"correlation"`
}

// CorrelationMatrix computes Pearson correlations over the last window rows.
// A ticker missing on a date counts as a 0 return for that date. Zero
// variance series correlate as NaN, including with themselves.
func CorrelationMatrix(rows []PortfolioReturnRow, tickers []string, window int) (Matrix, error) {
	if window <= 0 {
		return Matrix{}, ErrInvalidWindow
	}
	sliced := tail(rows, window)

	data := make([][]float64, len(tickers))
	for i, t := range tickers {
		data[i] = columnOf(sliced, t)
	}

	values := make([][]Float, len(tickers))
	for i := range tickers {
		values[i] = make([]Float, len(tickers))
		for j := range tickers {
			values[i][j] = Float(formulas.Correlation(data[i], data[j]))
		}
	}

	out := make([]string, len(tickers))
	copy(out, tickers)
	return Matrix{Window: window, Tickers: out, Values: values}, nil
}

// TopPairs ranks every unordered pair (no self pairs) by descending absolute
// correlation. Ties keep matrix order; NaN pairs sort last.
func TopPairs(m Matrix, limit int) []CorrelationPair {
	if limit <= 0 {
		limit = DefaultTopPairs
	}
	pairs := make([]CorrelationPair, 0)
	for i := 0; i < len(m.Tickers); i++ {
		for j := i + 1; j < len(m.Tickers); j++ {
			pairs = append(pairs, CorrelationPair{
				Pair:  m.Tickers[i] + "-" + m.Tickers[j],
				A:     m.Tickers[i],
				B:     m.Tickers[j],
				Value: m.Values[i][j],
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := float64(pairs[i].Value), float64(pairs[j].Value)
		if math.IsNaN(a) || math.IsNaN(b) {
			return !math.IsNaN(a) && math.IsNaN(b)
		}
		return math.Abs(a) > math.Abs(b)
	})

	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// Diversifiers correlates each ticker with the portfolio return over the last
// window rows, most diversifying (lowest correlation) first. NaN sorts last.
func Diversifiers(rows []PortfolioReturnRow, tickers []string, window int) ([]Diversifier, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	sliced := tail(rows, window)

	portfolio := make([]float64, len(sliced))
	for i, row := range sliced {
		portfolio[i] = float64(row.Return)
	}

	out := make([]Diversifier, len(tickers))
	for i, t := range tickers {
		out[i] = Diversifier{Ticker: t, Correlation: Float(formulas.Correlation(portfolio, columnOf(sliced, t)))}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := float64(out[i].Correlation), float64(out[j].Correlation)
		if math.IsNaN(a) || math.IsNaN(b) {
			return !math.IsNaN(a) && math.IsNaN(b)
		}
		return a < b
	})
	return out, nil
}

func tail(rows []PortfolioReturnRow, n int) []PortfolioReturnRow {
	if n >= len(rows) {
		return rows
	}
	return rows[len(rows)-n:]
}

func columnOf(rows []PortfolioReturnRow, ticker string) []float64 {
	col := make([]float64, len(rows))
	for i, row := range rows {
		col[i] = valueOrZero(row.Row, ticker)
	}
	return col
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}
