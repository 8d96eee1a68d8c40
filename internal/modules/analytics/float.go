package analytics

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Float is a float64 that serializes NaN and ±Inf as JSON null.
// Degenerate statistics (zero volatility, zero-variance correlation) are NaN
// and must reach the client as "n/a" rather than break encoding.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler. null decodes to NaN.
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// IsNaN reports whether the value is undefined.
func (f Float) IsNaN() bool {
	return math.IsNaN(float64(f))
}

// Floats converts a float64 slice for serialization.
func Floats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}
