// Package adapters collects the metric series that hwcast fits and forecasts.
//
// Each adapter pulls one series over a trailing window from an external
// system and returns it as timestamped points sorted by time:
//   - PrometheusAdapter: Prometheus range queries
//   - VictoriaMetricsAdapter: VictoriaMetrics Prometheus-compatible API
//   - HTTPAdapter: any JSON endpoint, values picked with gjson paths
//
// AlignColumns turns several collected series into one equal-length batch
// for the Holt-Winters engine.
package adapters

import (
	"context"
	"time"
)

// Point is a single observation.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is a named, time-ordered sequence of points.
type Series struct {
	Name   string
	Points []Point
}

// Len returns the number of points.
func (s *Series) Len() int { return len(s.Points) }

// Values returns the point values in time order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Adapter fetches one series from an external system.
//
// Collect must respect context cancellation and deadlines and never panic.
type Adapter interface {
	// Collect returns the points of the last windowSeconds, oldest first.
	Collect(ctx context.Context, windowSeconds int) (*Series, error)

	// Name returns a short identifier such as "prometheus" or "http".
	Name() string
}

// AlignTimestamp truncates ts to a multiple of the step.
func AlignTimestamp(ts time.Time, stepSec int) time.Time {
	return ts.Truncate(time.Duration(stepSec) * time.Second)
}

func window(windowSeconds int) (start, end time.Time) {
	end = time.Now().UTC().Truncate(time.Second)
	return end.Add(-time.Duration(windowSeconds) * time.Second), end
}

func defaultStep(step int) int {
	if step <= 0 {
		return 60
	}
	return step
}
