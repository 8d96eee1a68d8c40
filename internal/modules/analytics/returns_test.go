package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/factorlens/internal/domain"
)

func TestComputeReturns(t *testing.T) {
	series := domain.PriceSeries{
		{Date: "2024-01-02", Close: 100},
		{Date: "2024-01-03", Close: 110},
		{Date: "2024-01-04", Close: 99},
	}

	rs := ComputeReturns(series)

	require.Len(t, rs, 2)
	assert.Equal(t, "2024-01-03", rs[0].Date)
	assert.Equal(t, "2024-01-04", rs[1].Date)
	assert.InDelta(t, 0.1, rs[0].Return, 1e-12)
	assert.InDelta(t, -0.1, rs[1].Return, 1e-12)

	p0, p1, p2 := 100.0, 110.0, 99.0
	assert.Equal(t, p1/p0-1, rs[0].Return)
	assert.Equal(t, p2/p1-1, rs[1].Return)
}

func TestComputeReturns_TooShort(t *testing.T) {
	assert.Empty(t, ComputeReturns(nil))
	assert.Empty(t, ComputeReturns(domain.PriceSeries{{Date: "2024-01-02", Close: 100}}))
}

func TestReturnSeries_Tail(t *testing.T) {
	rs := ReturnSeries{{Date: "d1", Return: 1}, {Date: "d2", Return: 2}, {Date: "d3", Return: 3}}

	assert.Equal(t, []float64{2, 3}, rs.Tail(2).Values())
	assert.Equal(t, []float64{1, 2, 3}, rs.Tail(10).Values())
}
