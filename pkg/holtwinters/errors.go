package holtwinters

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBatch      = errors.New("batch has no series")
	ErrRaggedBatch     = errors.New("series in a batch must have equal length")
	ErrSeriesTooShort  = errors.New("series shorter than start_periods * frequency")
	ErrInvalidHorizon  = errors.New("horizon must be > 0")
	ErrIndexOutOfRange = errors.New("series index out of range")
	ErrNotFitted       = errors.New("model not fitted, call Fit() first")
	ErrNonFinite       = errors.New("fit produced non-finite values")
	ErrNonPositive     = errors.New("multiplicative seasonality requires strictly positive data")
)

// SeriesError records why a single series of a batch could not be fit.
// Other series in the same batch are unaffected.
type SeriesError struct {
	Index int
	Err   error
}

func (e *SeriesError) Error() string {
	return fmt.Sprintf("fit error for series %d: %v", e.Index, e.Err)
}

func (e *SeriesError) Unwrap() error {
	return e.Err
}
