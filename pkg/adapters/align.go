package adapters

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/HatiCode/hwcast/pkg/holtwinters"
)

// ErrNoCommonPoints is returned when the series do not overlap in time.
var ErrNoCommonPoints = errors.New("series have no timestamps in common")

// MaxAlignedSteps bounds the length of an aligned batch.
const MaxAlignedSteps = 1 << 20

// AlignColumns builds an equal-length batch from independently collected
// series on a regular step grid. Timestamps are truncated to stepSec and the
// last value wins within a step. The grid runs from the latest first step to
// the earliest last step across series, so every series has data at both
// ends. A step missing from a series inside that span is filled by linear
// interpolation between its nearest present neighbours, which keeps the
// seasonal phase of every column intact. Columns follow the order of series
// and the returned times are the grid steps, oldest first.
func AlignColumns(series []*Series, stepSec int) (holtwinters.Frame[float64], []time.Time, error) {
	if len(series) == 0 {
		return holtwinters.Frame[float64]{}, nil, holtwinters.ErrEmptyBatch
	}
	stepSec = defaultStep(stepSec)
	step := int64(stepSec)

	buckets := make([]map[int64]float64, len(series))
	first, last := int64(math.MinInt64), int64(math.MaxInt64)
	for i, s := range series {
		if s == nil || s.Len() == 0 {
			return holtwinters.Frame[float64]{}, nil, fmt.Errorf("series %d is empty", i)
		}
		b := make(map[int64]float64, s.Len())
		lo, hi := int64(math.MaxInt64), int64(math.MinInt64)
		for _, p := range s.Points {
			ts := AlignTimestamp(p.Time, stepSec).Unix()
			b[ts] = p.Value
			lo, hi = min(lo, ts), max(hi, ts)
		}
		buckets[i] = b
		first, last = max(first, lo), min(last, hi)
	}
	if first > last {
		return holtwinters.Frame[float64]{}, nil, ErrNoCommonPoints
	}
	n := (last-first)/step + 1
	if n > MaxAlignedSteps {
		return holtwinters.Frame[float64]{}, nil, fmt.Errorf("aligned span of %d steps exceeds limit %d", n, MaxAlignedSteps)
	}

	times := make([]time.Time, n)
	for j := range times {
		times[j] = time.Unix(first+int64(j)*step, 0).UTC()
	}

	frame := holtwinters.Frame[float64]{Columns: make([]holtwinters.Column[float64], len(series))}
	for i, s := range series {
		frame.Columns[i] = holtwinters.Column[float64]{Name: s.Name, Values: fillGrid(buckets[i], first, step, int(n))}
	}
	return frame, times, nil
}

// fillGrid reads n steps starting at first from b. The first and last step
// must be present in b; steps between are interpolated linearly.
func fillGrid(b map[int64]float64, first, step int64, n int) []float64 {
	values := make([]float64, n)
	prev := 0
	values[0] = b[first]
	for j := 1; j < n; j++ {
		v, ok := b[first+int64(j)*step]
		if !ok {
			continue
		}
		values[j] = v
		if gap := j - prev; gap > 1 {
			for k := prev + 1; k < j; k++ {
				frac := float64(k-prev) / float64(gap)
				values[k] = values[prev] + frac*(v-values[prev])
			}
		}
		prev = j
	}
	return values
}
