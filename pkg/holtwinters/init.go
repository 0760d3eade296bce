package holtwinters

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minTrendWindow is the regression window used when seasonality is disabled.
const minTrendWindow = 10

// initialState estimates the smoother state from the first startPeriods
// seasonal cycles of y:
//  1. a centered moving average of order frequency gives the local trend
//  2. seasonal indices are the per-phase mean deviation (additive) or ratio
//     (multiplicative) from that average, normalized to sum 0 / mean 1
//  3. level and trend come from a least squares line through the
//     deseasonalized window, with the level moved back one step so that it
//     precedes the first observation
func initialState(y []float64, frequency, startPeriods int, kind SeasonalKind) State {
	if frequency <= 1 {
		w := min(len(y), max(startPeriods, minTrendWindow))
		level, trend := fitLine(y[:w])
		return State{Level0: level - trend, Trend0: trend}
	}

	w := min(len(y), startPeriods*frequency)
	window := y[:w]
	season := seasonalIndices(window, frequency, kind)

	deseason := make([]float64, w)
	for t, v := range window {
		if kind == Multiplicative {
			deseason[t] = v / season[t%frequency]
		} else {
			deseason[t] = v - season[t%frequency]
		}
	}
	level, trend := fitLine(deseason)

	return State{
		Level0:  level - trend,
		Trend0:  trend,
		Season0: season,
	}
}

// fitLine returns the intercept and slope of y against 0..len(y)-1.
func fitLine(y []float64) (intercept, slope float64) {
	if len(y) == 1 {
		return y[0], 0
	}
	x := make([]float64, len(y))
	floats.Span(x, 0, float64(len(y)-1))
	return stat.LinearRegression(x, y, nil, false)
}

// centeredMovingAverage returns the centered moving average of order m and
// the index of its first value. For even m the 2×m average is used so the
// window stays centered on an observation.
func centeredMovingAverage(y []float64, m int) ([]float64, int) {
	half := m / 2
	if m%2 == 1 {
		if len(y) < m {
			return nil, 0
		}
		out := make([]float64, 0, len(y)-m+1)
		for t := half; t < len(y)-half; t++ {
			out = append(out, floats.Sum(y[t-half:t+half+1])/float64(m))
		}
		return out, half
	}

	if len(y) <= m {
		return nil, 0
	}
	out := make([]float64, 0, len(y)-m)
	for t := half; t < len(y)-half; t++ {
		sum := 0.5*y[t-half] + 0.5*y[t+half] + floats.Sum(y[t-half+1:t+half])
		out = append(out, sum/float64(m))
	}
	return out, half
}

func seasonalIndices(window []float64, m int, kind SeasonalKind) []float64 {
	cma, start := centeredMovingAverage(window, m)
	if len(cma) == 0 {
		mean := stat.Mean(window, nil)
		cma = make([]float64, len(window))
		for i := range cma {
			cma[i] = mean
		}
		start = 0
	}

	sums := make([]float64, m)
	counts := make([]int, m)
	for i, c := range cma {
		t := start + i
		if kind == Multiplicative {
			sums[t%m] += window[t] / c
		} else {
			sums[t%m] += window[t] - c
		}
		counts[t%m]++
	}

	season := make([]float64, m)
	for p := range season {
		if counts[p] == 0 {
			season[p] = kind.neutral()
			continue
		}
		season[p] = sums[p] / float64(counts[p])
	}

	mean := floats.Sum(season) / float64(m)
	if kind == Multiplicative {
		if mean != 0 {
			floats.Scale(1/mean, season)
		}
	} else {
		floats.AddConst(-mean, season)
	}
	return season
}
