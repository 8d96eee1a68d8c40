package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Invert returns the inverse of a square matrix by Gauss-Jordan elimination
// with partial pivoting. At each step the row with the strictly largest
// absolute value in the pivot column is swapped in; a pivot that is exactly
// zero yields ErrSingularMatrix. The input is not modified.
func Invert(a mat.Matrix) (*mat.Dense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, fmt.Errorf("invert %dx%d: matrix is not square", n, c)
	}

	// Augmented [A | I], rows kept as slices so swaps are cheap.
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 2*n)
		for j := 0; j < n; j++ {
			row[j] = a.At(i, j)
		}
		row[n+i] = 1
		aug[i] = row
	}

	for i := 0; i < n; i++ {
		p := i
		for r := i + 1; r < n; r++ {
			if math.Abs(aug[r][i]) > math.Abs(aug[p][i]) {
				p = r
			}
		}
		aug[i], aug[p] = aug[p], aug[i]

		div := aug[i][i]
		if div == 0 || math.IsNaN(div) {
			return nil, fmt.Errorf("pivot %d: %w", i, ErrSingularMatrix)
		}
		for col := 0; col < 2*n; col++ {
			aug[i][col] /= div
		}

		for r := 0; r < n; r++ {
			if r == i {
				continue
			}
			f := aug[r][i]
			for col := 0; col < 2*n; col++ {
				aug[r][col] -= f * aug[i][col]
			}
		}
	}

	inv := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		inv.SetRow(i, aug[i][n:])
	}
	return inv, nil
}
