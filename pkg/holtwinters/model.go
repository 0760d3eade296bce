package holtwinters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AllSeries selects every series of the batch in Predict.
const AllSeries = -1

// DefaultStartPeriods is the default minimum number of full seasonal cycles.
const DefaultStartPeriods = 2

// Config configures a Model.
type Config struct {
	// NumSeries is the expected number of series. Zero infers it from the batch.
	NumSeries int

	// Frequency is the seasonal period in observations. 1 disables seasonality.
	Frequency int

	Seasonal SeasonalKind

	// StartPeriods is the minimum number of full seasonal cycles a series
	// must contain before it can be fit. Defaults to DefaultStartPeriods.
	StartPeriods int

	// MaxEvaluations caps objective evaluations per optimizer stage.
	// Defaults to DefaultMaxEvaluations.
	MaxEvaluations int

	// Workers bounds the number of series fit concurrently.
	// Defaults to GOMAXPROCS.
	Workers int

	Logger *slog.Logger
}

// Model fits and forecasts a batch of independent series.
//
// Fit replaces everything learned by a previous Fit. Predict only reads the
// fitted state, so any number of Predict calls may run concurrently; Fit is
// exclusive with every other call.
type Model struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.RWMutex
	fitted    bool
	precision Precision
	models    []*FittedModel
	failures  []*SeriesError
}

// New validates cfg and returns an unfitted Model.
func New(cfg Config) (*Model, error) {
	if cfg.Frequency < 1 {
		return nil, fmt.Errorf("frequency must be >= 1, got %d", cfg.Frequency)
	}
	if cfg.NumSeries < 0 {
		return nil, fmt.Errorf("number of series must be >= 0, got %d", cfg.NumSeries)
	}
	if cfg.Seasonal != Additive && cfg.Seasonal != Multiplicative {
		return nil, fmt.Errorf("invalid seasonal kind %v", cfg.Seasonal)
	}
	if cfg.StartPeriods <= 0 {
		cfg.StartPeriods = DefaultStartPeriods
	}
	if cfg.MaxEvaluations <= 0 {
		cfg.MaxEvaluations = DefaultMaxEvaluations
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Model{cfg: cfg, logger: logger}, nil
}

// Name returns the model identifier.
func (m *Model) Name() string {
	return fmt.Sprintf("holtwinters(%d,%s)", m.cfg.Frequency, m.cfg.Seasonal)
}

// Seasonal returns the configured seasonal kind.
func (m *Model) Seasonal() SeasonalKind { return m.cfg.Seasonal }

// Frequency returns the configured seasonal period.
func (m *Model) Frequency() int { return m.cfg.Frequency }

// MinPoints returns the minimum series length Fit accepts.
func (m *Model) MinPoints() int {
	return m.cfg.StartPeriods * m.cfg.Frequency
}

// Fit ingests src and fits every series in parallel.
//
// Validation problems (empty or ragged batch, wrong series count, series too
// short) fail the whole call and leave the previous fit untouched. Numeric
// problems in individual series are recorded as SeriesError values, available
// from Failures, and do not stop the other series. A canceled context aborts
// the fit and also leaves the previous fit untouched.
func (m *Model) Fit(ctx context.Context, src Source) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	batch, err := NewBatch(src)
	if err != nil {
		return err
	}
	if m.cfg.NumSeries > 0 && batch.NumSeries() != m.cfg.NumSeries {
		return fmt.Errorf("expected %d series, got %d", m.cfg.NumSeries, batch.NumSeries())
	}
	if batch.NumPoints() < m.MinPoints() {
		return fmt.Errorf("%w: need at least %d points (%d periods of %d), got %d",
			ErrSeriesTooShort, m.MinPoints(), m.cfg.StartPeriods, m.cfg.Frequency, batch.NumPoints())
	}

	start := time.Now()
	n := batch.NumSeries()
	models := make([]*FittedModel, n)
	errs := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			models[i], errs[i] = m.fitOne(batch.values[i], batch.precision)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var failures []*SeriesError
	for i, err := range errs {
		if err == nil {
			continue
		}
		se := &SeriesError{Index: i, Err: err}
		failures = append(failures, se)
		m.logger.Warn("series fit failed", "series", i, "error", err)
	}

	m.mu.Lock()
	m.fitted = true
	m.precision = batch.precision
	m.models = models
	m.failures = failures
	m.mu.Unlock()

	m.logger.Debug("batch fit complete",
		"model", m.Name(),
		"series", n,
		"points", batch.NumPoints(),
		"failed", len(failures),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

func (m *Model) fitOne(y []float64, precision Precision) (*FittedModel, error) {
	p, s, evals, err := fitSeries(y, m.cfg.Frequency, m.cfg.StartPeriods, m.cfg.Seasonal, m.cfg.MaxEvaluations, m.logger)
	if err != nil {
		return nil, err
	}
	return newFittedModel(y, m.cfg.Frequency, m.cfg.Seasonal, p, s, evals, precision)
}

// NumSeries returns the number of series in the last fitted batch.
func (m *Model) NumSeries() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.models)
}

// Precision returns the precision of the last fitted batch.
func (m *Model) Precision() Precision {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.precision
}

// Failures returns the per-series failures of the last Fit, in series order.
func (m *Model) Failures() []*SeriesError {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*SeriesError(nil), m.failures...)
}

// Fitted returns a copy of the fitted model of series index, or the
// SeriesError that prevented it from being fit. Changing the copy does not
// affect the Model.
func (m *Model) Fitted(index int) (*FittedModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fm, err := m.fittedLocked(index)
	if err != nil {
		return nil, err
	}
	return fm.clone(), nil
}

func (m *Model) fittedLocked(index int) (*FittedModel, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if index < 0 || index >= len(m.models) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(m.models))
	}
	if fm := m.models[index]; fm != nil {
		return fm, nil
	}
	for _, f := range m.failures {
		if f.Index == index {
			return nil, f
		}
	}
	return nil, &SeriesError{Index: index, Err: errors.New("no model")}
}

// PredictSeries forecasts h steps for a single series.
func (m *Model) PredictSeries(index, h int) ([]float64, error) {
	if h <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidHorizon, h)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	fm, err := m.fittedLocked(index)
	if err != nil {
		return nil, err
	}
	return fm.Forecast(h), nil
}

// Predict forecasts h steps. With index AllSeries it returns one row per
// series in series order; otherwise a single row for that series.
//
// Rows of series that failed to fit are filled with NaN when every series
// is requested; requesting a failed series directly returns its SeriesError.
func (m *Model) Predict(index, h int) ([][]float64, error) {
	if h <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidHorizon, h)
	}
	if index < AllSeries {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if index != AllSeries {
		fm, err := m.fittedLocked(index)
		if err != nil {
			return nil, err
		}
		return [][]float64{fm.Forecast(h)}, nil
	}

	if !m.fitted {
		return nil, ErrNotFitted
	}
	out := make([][]float64, len(m.models))
	for i, fm := range m.models {
		if fm == nil {
			out[i] = nanRow(h)
			continue
		}
		out[i] = fm.Forecast(h)
	}
	return out, nil
}

func nanRow(h int) []float64 {
	row := make([]float64, h)
	for i := range row {
		row[i] = math.NaN()
	}
	return row
}
