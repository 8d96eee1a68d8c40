package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/factorlens/internal/domain"
	"github.com/aristath/factorlens/pkg/formulas"
)

// InterceptName labels the constant column of the design matrix.
const InterceptName = "alpha"

// MinExtraObservations is how many observations beyond the column count a
// regression needs before it is attempted.
const MinExtraObservations = 5

// PortfolioSeriesName names the portfolio's own regression.
const PortfolioSeriesName = "Portfolio"

// RegressionResult is the OLS fit of one series against the factor model.
type RegressionResult struct {
	Name            string   `json:"name"`
	FactorNames     []string `json:"factorNames"`
	Coefficients    []Float  `json:"coefficients"`
	StandardErrors  []Float  `json:"standardErrors"`
	TStatistics     []Float  `json:"tStatistics"`
	RSquared        Float    `json:"rSquared"`
	AnnualizedAlpha Float    `json:"annualizedAlpha"`
	Observations    int      `json:"observations"`
}

// FactorColumns returns the design matrix columns, intercept first.
func FactorColumns(includeMomentum bool) []string {
	cols := []string{InterceptName, domain.FactorMktRF, domain.FactorSMB, domain.FactorHML, domain.FactorRMW, domain.FactorCMA}
	if includeMomentum {
		cols = append(cols, domain.FactorMOM)
	}
	return cols
}

// ModelLabel describes the factor model in use.
func ModelLabel(includeMomentum bool) string {
	if includeMomentum {
		return "FF5 + MOM"
	}
	return "FF5 only (momentum unavailable)"
}

// RunFactorRegression regresses the excess returns of the trailing window of
// series on the daily factor rows. Dates without a factor row are dropped
// and a factor value missing from a row counts as 0. Fewer than
// columns+5 aligned observations yields ErrInsufficientData.
func RunFactorRegression(name string, series ReturnSeries, factorsByDate map[string]domain.FactorRow, window int, includeMomentum bool) (*RegressionResult, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	cols := FactorColumns(includeMomentum)

	trailing := series.Tail(window)
	y := make([]float64, 0, len(trailing))
	x := make([][]float64, 0, len(trailing))
	for _, p := range trailing {
		f, ok := factorsByDate[p.Date]
		if !ok {
			continue
		}
		y = append(y, p.Return-f.RF)
		row := make([]float64, len(cols))
		row[0] = 1
		for c := 1; c < len(cols); c++ {
			v, _ := f.Value(cols[c])
			row[c] = v
		}
		x = append(x, row)
	}

	if len(x) < len(cols)+MinExtraObservations {
		return nil, fmt.Errorf("%s: %d observations for %d columns: %w", name, len(x), len(cols), ErrInsufficientData)
	}

	res, err := OLS(y, x, cols)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	res.Name = name
	return res, nil
}

// OLS fits y = Xβ through the normal equations. The first column of x is
// treated as the intercept, a daily rate that is compounded over a trading
// year for AnnualizedAlpha. Sums are accumulated row by row in input order.
func OLS(y []float64, x [][]float64, names []string) (*RegressionResult, error) {
	n := len(y)
	if n == 0 || len(x) != n || len(x[0]) == 0 {
		return nil, ErrInsufficientData
	}
	k := len(x[0])

	xtx := mat.NewDense(k, k, nil)
	xty := make([]float64, k)
	for i := 0; i < n; i++ {
		for a := 0; a < k; a++ {
			xty[a] += x[i][a] * y[i]
			row := xtx.RawRowView(a)
			for b := 0; b < k; b++ {
				row[b] += x[i][a] * x[i][b]
			}
		}
	}

	inv, err := Invert(xtx)
	if err != nil {
		return nil, err
	}

	beta := make([]float64, k)
	for a := 0; a < k; a++ {
		s := 0.0
		for i, v := range inv.RawRowView(a) {
			s += v * xty[i]
		}
		beta[a] = s
	}

	sse := 0.0
	for i := 0; i < n; i++ {
		yhat := 0.0
		for j, v := range x[i] {
			yhat += v * beta[j]
		}
		e := y[i] - yhat
		sse += e * e
	}

	my := formulas.Mean(y)
	sst := 0.0
	for _, v := range y {
		d := v - my
		sst += d * d
	}

	sigma2 := sse / float64(n-k)
	se := make([]float64, k)
	t := make([]float64, k)
	for i := 0; i < k; i++ {
		se[i] = math.Sqrt(math.Abs(inv.At(i, i) * sigma2))
		t[i] = beta[i] / se[i]
	}

	cols := make([]string, len(names))
	copy(cols, names)
	return &RegressionResult{
		FactorNames:     cols,
		Coefficients:    Floats(beta),
		StandardErrors:  Floats(se),
		TStatistics:     Floats(t),
		RSquared:        Float(1 - sse/sst),
		AnnualizedAlpha: Float(formulas.CompoundDaily(beta[0])),
		Observations:    n,
	}, nil
}
