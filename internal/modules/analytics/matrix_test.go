package analytics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestInvert_MatchesGonum(t *testing.T) {
	a := mat.NewDense(3, 3, []float64{
		4, 7, 2,
		3, 6, 1,
		2, 5, 3,
	})

	inv, err := Invert(a)
	require.NoError(t, err)

	var want mat.Dense
	require.NoError(t, want.Inverse(a))
	assert.True(t, mat.EqualApprox(inv, &want, 1e-12))

	var product mat.Dense
	product.Mul(a, inv)
	assert.True(t, mat.EqualApprox(&product, identity(3), 1e-12))
}

func TestInvert_PivotsOnZeroDiagonal(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{
		0, 1,
		1, 0,
	})

	inv, err := Invert(a)
	require.NoError(t, err)
	assert.True(t, mat.Equal(inv, a))
}

func TestInvert_DoesNotModifyInput(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 1, 1, 3})
	before := mat.DenseCopyOf(a)

	_, err := Invert(a)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, before))
}

func TestInvert_Singular(t *testing.T) {
	tests := []struct {
		name string
		data []float64
	}{
		{"zero matrix", []float64{0, 0, 0, 0}},
		{"collinear rows", []float64{1, 2, 2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Invert(mat.NewDense(2, 2, tt.data))
			assert.True(t, errors.Is(err, ErrSingularMatrix))
		})
	}
}

func TestInvert_NotSquare(t *testing.T) {
	_, err := Invert(mat.NewDense(2, 3, nil))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrSingularMatrix))
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
