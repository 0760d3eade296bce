package holtwinters

// Params are the smoothing coefficients, each in [0, 1].
type Params struct {
	Alpha float64 // level
	Beta  float64 // trend
	Gamma float64 // seasonal
}

// State is the smoother state immediately before the first observation.
// Season0[j] is the seasonal value applied to observation j (j < frequency).
type State struct {
	Level0  float64
	Trend0  float64
	Season0 []float64
}

// Smoothed holds the full output of one smoothing pass over a series.
type Smoothed struct {
	Level    []float64
	Trend    []float64
	Season   []float64
	Forecast []float64 // one-step-ahead forecasts
	Residual []float64 // y - Forecast
	SSE      float64

	// FinalSeason[p] is the last seasonal value seen at phase p = t mod frequency.
	FinalSeason []float64
}

// Smooth runs the Holt-Winters recurrences over y with fixed coefficients and
// initial state. With frequency <= 1 the seasonal component is held at its
// neutral value and Gamma is ignored.
//
// Additive:
//
//	f[t] = l[t-1] + b[t-1] + s[t-m]
//	l[t] = α(y[t] - s[t-m]) + (1-α)(l[t-1] + b[t-1])
//	b[t] = β(l[t] - l[t-1]) + (1-β)b[t-1]
//	s[t] = γ(y[t] - l[t]) + (1-γ)s[t-m]
//
// Multiplicative replaces the seasonal offsets with ratios.
//
// NaN and Inf are propagated, never trapped.
func Smooth(y []float64, frequency int, kind SeasonalKind, p Params, init State) Smoothed {
	n := len(y)
	out := Smoothed{
		Level:    make([]float64, n),
		Trend:    make([]float64, n),
		Season:   make([]float64, n),
		Forecast: make([]float64, n),
		Residual: make([]float64, n),
	}
	ring := newRing(frequency, kind, init.Season0)
	out.SSE = smooth(y, frequency, kind, p, init, ring, &out)
	out.FinalSeason = ring
	return out
}

func newRing(frequency int, kind SeasonalKind, season0 []float64) []float64 {
	m := max(frequency, 1)
	ring := make([]float64, m)
	if frequency <= 1 || len(season0) < m {
		for i := range ring {
			ring[i] = kind.neutral()
		}
		return ring
	}
	copy(ring, season0)
	return ring
}

// smooth is the inner loop shared by Smooth and the optimizer objective. ring
// holds one seasonal value per phase and is updated in place. When out is nil
// only the sum of squared residuals is computed.
func smooth(y []float64, frequency int, kind SeasonalKind, p Params, init State, ring []float64, out *Smoothed) float64 {
	m := len(ring)
	seasonal := frequency > 1
	mult := kind == Multiplicative
	a, b, g := p.Alpha, p.Beta, p.Gamma

	level, trend := init.Level0, init.Trend0
	sse := 0.0

	for t, yt := range y {
		phase := t % m
		s := ring[phase]
		base := level + trend

		var f, lt float64
		if mult {
			f = base * s
			lt = a*(yt/s) + (1-a)*base
		} else {
			f = base + s
			lt = a*(yt-s) + (1-a)*base
		}
		bt := b*(lt-level) + (1-b)*trend

		st := s
		if seasonal {
			if mult {
				st = g*(yt/lt) + (1-g)*s
			} else {
				st = g*(yt-lt) + (1-g)*s
			}
			ring[phase] = st
		}

		r := yt - f
		sse += r * r

		if out != nil {
			out.Forecast[t] = f
			out.Residual[t] = r
			out.Level[t] = lt
			out.Trend[t] = bt
			out.Season[t] = st
		}

		level, trend = lt, bt
	}

	return sse
}
