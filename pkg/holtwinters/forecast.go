package holtwinters

import "math"

// FittedModel is the immutable result of fitting one series.
type FittedModel struct {
	Params
	State

	Frequency int
	Seasonal  SeasonalKind

	// Full fitted sequences, one value per observation.
	Level     []float64
	Trend     []float64
	Season    []float64
	Fitted    []float64
	Residuals []float64

	// SSE is the sum of squared one-step-ahead residuals at the optimum.
	SSE float64

	// Evaluations is the number of objective evaluations the search used.
	Evaluations int

	// Forecast state, kept apart from the exported sequences.
	lastLevel   float64
	lastTrend   float64
	sse         float64
	finalSeason []float64
	precision   Precision
}

func newFittedModel(y []float64, frequency int, kind SeasonalKind, p Params, s State, evals int, precision Precision) (*FittedModel, error) {
	sm := Smooth(y, frequency, kind, p, s)
	if math.IsNaN(sm.SSE) || math.IsInf(sm.SSE, 0) {
		return nil, ErrNonFinite
	}
	n := len(y)
	if last := sm.Level[n-1] + sm.Trend[n-1]; math.IsNaN(last) || math.IsInf(last, 0) {
		return nil, ErrNonFinite
	}

	fm := &FittedModel{
		Frequency:   frequency,
		Seasonal:    kind,
		Evaluations: evals,
		lastLevel:   sm.Level[n-1],
		lastTrend:   sm.Trend[n-1],
		sse:         sm.SSE,
		finalSeason: sm.FinalSeason,
		precision:   precision,
	}
	fm.Params = Params{
		Alpha: precision.round(p.Alpha),
		Beta:  precision.round(p.Beta),
		Gamma: precision.round(p.Gamma),
	}
	fm.State = State{
		Level0:  precision.round(s.Level0),
		Trend0:  precision.round(s.Trend0),
		Season0: precision.roundAll(append([]float64(nil), s.Season0...)),
	}
	fm.Level = precision.roundAll(sm.Level)
	fm.Trend = precision.roundAll(sm.Trend)
	fm.Season = precision.roundAll(sm.Season)
	fm.Fitted = precision.roundAll(sm.Forecast)
	fm.Residuals = precision.roundAll(sm.Residual)
	fm.SSE = precision.round(sm.SSE)
	return fm, nil
}

// clone returns a deep copy of fm.
func (fm *FittedModel) clone() *FittedModel {
	c := *fm
	c.Season0 = append([]float64(nil), fm.Season0...)
	c.Level = append([]float64(nil), fm.Level...)
	c.Trend = append([]float64(nil), fm.Trend...)
	c.Season = append([]float64(nil), fm.Season...)
	c.Fitted = append([]float64(nil), fm.Fitted...)
	c.Residuals = append([]float64(nil), fm.Residuals...)
	return &c
}

// NumPoints returns the length of the fitted series.
func (fm *FittedModel) NumPoints() int {
	return len(fm.Level)
}

// RMSE returns the root mean squared in-sample one-step-ahead error.
func (fm *FittedModel) RMSE() float64 {
	if len(fm.Residuals) == 0 {
		return 0
	}
	return math.Sqrt(fm.SSE / float64(len(fm.Residuals)))
}

// Forecast extrapolates h steps past the end of the fitted series:
//
//	additive:       l[n-1] + k·b[n-1] + s[(n+k-1) mod m]
//	multiplicative: (l[n-1] + k·b[n-1]) · s[(n+k-1) mod m]
//
// where s is the last seasonal cycle seen during fitting.
func (fm *FittedModel) Forecast(h int) []float64 {
	n := fm.NumPoints()
	level, trend := fm.lastLevel, fm.lastTrend
	m := len(fm.finalSeason)

	out := make([]float64, h)
	for k := 1; k <= h; k++ {
		base := level + float64(k)*trend
		s := fm.finalSeason[(n+k-1)%m]
		var v float64
		if fm.Seasonal == Multiplicative {
			v = base * s
		} else {
			v = base + s
		}
		out[k-1] = fm.precision.round(v)
	}
	return out
}

// ResidualStdDev returns the residual standard error sqrt(SSE/(n-1)).
func (fm *FittedModel) ResidualStdDev() float64 {
	n := fm.NumPoints()
	if n < 2 {
		return 0
	}
	return math.Sqrt(fm.sse / float64(n-1))
}
