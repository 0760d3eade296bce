// Package metrics instruments the forecaster pipeline with Prometheus.
//
// Metrics exposed:
//   - hwcast_collect_seconds: Histogram of series collection duration
//   - hwcast_fit_seconds: Histogram of batch fit duration
//   - hwcast_predict_seconds: Histogram of forecast duration
//   - hwcast_forecast_age_seconds: Gauge of current forecast age
//   - hwcast_series: Gauge of series in the last fitted batch
//   - hwcast_series_failed: Gauge of series that failed to fit
//   - hwcast_errors_total: Counter of errors by component and reason
//
// Every metric carries a batch label.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of one batch.
type Metrics struct {
	CollectSeconds     prometheus.Histogram
	FitSeconds         prometheus.Histogram
	PredictSeconds     prometheus.Histogram
	ForecastAgeSeconds prometheus.Gauge
	Series             prometheus.Gauge
	SeriesFailed       prometheus.Gauge
	ErrorsTotal        *prometheus.CounterVec
}

// New creates and registers the metrics of batch with the default registry.
// It panics if called twice with the same batch.
func New(batch string) *Metrics {
	labels := prometheus.Labels{"batch": batch}

	return &Metrics{
		CollectSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "hwcast_collect_seconds",
			Help:        "Time spent collecting all series of a batch",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),

		FitSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "hwcast_fit_seconds",
			Help:        "Time spent fitting all series of a batch",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.01, 2, 14),
		}),

		PredictSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:        "hwcast_predict_seconds",
			Help:        "Time spent forecasting all series of a batch",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),

		ForecastAgeSeconds: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "hwcast_forecast_age_seconds",
			Help:        "Age of the current forecast in seconds",
			ConstLabels: labels,
		}),

		Series: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "hwcast_series",
			Help:        "Number of series in the last fitted batch",
			ConstLabels: labels,
		}),

		SeriesFailed: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "hwcast_series_failed",
			Help:        "Number of series that failed to fit in the last batch",
			ConstLabels: labels,
		}),

		ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "hwcast_errors_total",
			Help:        "Total number of errors by component and reason",
			ConstLabels: labels,
		}, []string{"component", "reason"}),
	}
}

// RecordCollect records the time spent collecting series.
func (m *Metrics) RecordCollect(seconds float64) {
	m.CollectSeconds.Observe(seconds)
}

// RecordFit records the time spent fitting.
func (m *Metrics) RecordFit(seconds float64) {
	m.FitSeconds.Observe(seconds)
}

// RecordPredict records the time spent forecasting.
func (m *Metrics) RecordPredict(seconds float64) {
	m.PredictSeconds.Observe(seconds)
}

// SetForecastAge sets the current forecast age.
func (m *Metrics) SetForecastAge(seconds float64) {
	m.ForecastAgeSeconds.Set(seconds)
}

// SetSeries sets the series count and failed series count of the last fit.
func (m *Metrics) SetSeries(total, failed int) {
	m.Series.Set(float64(total))
	m.SeriesFailed.Set(float64(failed))
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, reason string) {
	m.ErrorsTotal.WithLabelValues(component, reason).Inc()
}
