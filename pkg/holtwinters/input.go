package holtwinters

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Float is the set of element types a batch may be supplied in.
type Float interface {
	float32 | float64
}

// Precision is the floating point width of the caller's input. Computation is
// always carried out in float64; Float32 batches have their outputs rounded
// back through float32.
type Precision int

const (
	Float64 Precision = iota
	Float32
)

func (p Precision) String() string {
	if p == Float32 {
		return "float32"
	}
	return "float64"
}

func (p Precision) round(v float64) float64 {
	if p == Float32 {
		return float64(float32(v))
	}
	return v
}

// roundAll rounds xs in place and returns it.
func (p Precision) roundAll(xs []float64) []float64 {
	if p != Float32 {
		return xs
	}
	for i, v := range xs {
		xs[i] = float64(float32(v))
	}
	return xs
}

// Source is the ingestion boundary of the engine. Each input representation
// converts itself into canonical row-major float64 rows (one row per series)
// and reports the precision it was supplied in. Nothing past this boundary
// knows which representation the data came from.
type Source interface {
	Rows() ([][]float64, Precision, error)
}

func precisionOf[T Float]() Precision {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return Float32
	}
	return Float64
}

func widen[T Float](src []T) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

// Rows is an in-memory batch, one slice per series.
type Rows[T Float] [][]T

func (r Rows[T]) Rows() ([][]float64, Precision, error) {
	out := make([][]float64, len(r))
	for i, row := range r {
		out[i] = widen(row)
	}
	return out, precisionOf[T](), nil
}

// Column is one named series of a Frame.
type Column[T Float] struct {
	Name   string
	Values []T
}

// Frame is a columnar table where every column is a series. Column order is
// the series index.
type Frame[T Float] struct {
	Columns []Column[T]
}

func (f Frame[T]) Rows() ([][]float64, Precision, error) {
	out := make([][]float64, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = widen(c.Values)
	}
	return out, precisionOf[T](), nil
}

// Names returns the column names in series order.
func (f Frame[T]) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Strided is a flat buffer holding Series rows of Points values, each row
// starting Stride elements after the previous one, as handed over by
// accelerator libraries. A zero Stride means rows are packed.
type Strided[T Float] struct {
	Data   []T
	Series int
	Points int
	Stride int
}

func (s Strided[T]) Rows() ([][]float64, Precision, error) {
	if s.Series <= 0 || s.Points <= 0 {
		return nil, 0, ErrEmptyBatch
	}
	stride := s.Stride
	if stride == 0 {
		stride = s.Points
	}
	if stride < s.Points {
		return nil, 0, fmt.Errorf("stride %d smaller than row length %d", stride, s.Points)
	}
	if need := (s.Series-1)*stride + s.Points; len(s.Data) < need {
		return nil, 0, fmt.Errorf("buffer holds %d values, need %d", len(s.Data), need)
	}

	out := make([][]float64, s.Series)
	for i := range out {
		off := i * stride
		out[i] = widen(s.Data[off : off+s.Points])
	}
	return out, precisionOf[T](), nil
}

// Matrix adapts a gonum matrix whose rows are series.
type Matrix struct {
	M mat.Matrix
}

func (m Matrix) Rows() ([][]float64, Precision, error) {
	if m.M == nil {
		return nil, 0, errors.New("nil matrix")
	}
	r, c := m.M.Dims()
	out := make([][]float64, r)
	raw, isRaw := m.M.(mat.RawRowViewer)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		if isRaw {
			copy(row, raw.RawRowView(i))
		} else {
			mat.Row(row, i, m.M)
		}
		out[i] = row
	}
	return out, Float64, nil
}
