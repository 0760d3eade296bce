package holtwinters

import "fmt"

// Batch is a validated, immutable set of equal-length series.
type Batch struct {
	values    [][]float64
	precision Precision
}

// NewBatch ingests a source. It rejects empty and ragged input; the
// minimum-length check depends on model configuration and happens in Fit.
func NewBatch(src Source) (*Batch, error) {
	if src == nil {
		return nil, ErrEmptyBatch
	}
	rows, precision, err := src.Rows()
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyBatch
	}

	n := len(rows[0])
	values := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: series 0 has %d points, series %d has %d", ErrRaggedBatch, n, i, len(row))
		}
		values[i] = append([]float64(nil), row...)
	}

	return &Batch{values: values, precision: precision}, nil
}

// NumSeries returns the number of series in the batch.
func (b *Batch) NumSeries() int { return len(b.values) }

// NumPoints returns the shared series length.
func (b *Batch) NumPoints() int { return len(b.values[0]) }

// Precision returns the precision the batch was supplied in.
func (b *Batch) Precision() Precision { return b.precision }

// Series returns a copy of series i.
func (b *Batch) Series(i int) []float64 {
	return append([]float64(nil), b.values[i]...)
}
