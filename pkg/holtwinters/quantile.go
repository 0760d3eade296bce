package holtwinters

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// ParseQuantileLevel parses a quantile level from either p-notation (p90, p95)
// or decimal notation (0.90, 0.95).
//
// Examples:
//   - "p50" → 0.50
//   - "p90" → 0.90
//   - "0.95" → 0.95
func ParseQuantileLevel(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantile level")
	}

	if strings.HasPrefix(strings.ToLower(s), "p") {
		percentile, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid p-notation %q: %w", s, err)
		}
		if percentile <= 0 || percentile >= 100 {
			return 0, fmt.Errorf("percentile %v out of range (0, 100)", percentile)
		}
		return percentile / 100.0, nil
	}

	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantile %q: %w", s, err)
	}
	if q <= 0 || q >= 1 {
		return 0, fmt.Errorf("quantile %v out of range (0, 1)", q)
	}
	return q, nil
}

// FormatQuantileLevel formats a quantile level as p-notation: 0.9 → "p90".
func FormatQuantileLevel(q float64) string {
	percentile := q * 100
	if r := math.Round(percentile); math.Abs(percentile-r) < 1e-9 {
		return fmt.Sprintf("p%d", int(r))
	}
	return fmt.Sprintf("p%.1f", percentile)
}

// Quantiles returns forecast quantiles of series index for each level,
// assuming normally distributed one-step errors whose spread grows with
// the square root of the horizon step:
//
//	q[k] = forecast[k] + z(level)·σ·√k
//
// where σ is the residual standard error of the fit.
func (fm *FittedModel) Quantiles(h int, levels []float64) (map[float64][]float64, error) {
	if h <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidHorizon, h)
	}
	point := fm.Forecast(h)
	sigma := fm.ResidualStdDev()

	out := make(map[float64][]float64, len(levels))
	for _, q := range levels {
		if q <= 0 || q >= 1 {
			return nil, fmt.Errorf("quantile %v out of range (0, 1)", q)
		}
		z := distuv.UnitNormal.Quantile(q)
		row := make([]float64, h)
		for k := range row {
			row[k] = fm.precision.round(point[k] + z*sigma*math.Sqrt(float64(k+1)))
		}
		out[q] = row
	}
	return out, nil
}

// Quantiles returns forecast quantiles for a single fitted series.
// See FittedModel.Quantiles.
func (m *Model) Quantiles(index, h int, levels []float64) (map[float64][]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fm, err := m.fittedLocked(index)
	if err != nil {
		return nil, err
	}
	return fm.Quantiles(h, levels)
}
