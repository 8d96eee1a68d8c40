package analytics

import "errors"

var (
	// ErrInsufficientData means too few aligned observations for a meaningful
	// result. Callers skip the series and report its absence.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrSingularMatrix is returned when Gauss-Jordan elimination meets a pivot
	// that is exactly zero.
	ErrSingularMatrix = errors.New("singular matrix")

	// ErrInvalidWindow is returned for a non-positive trailing window.
	ErrInvalidWindow = errors.New("invalid window")
)
