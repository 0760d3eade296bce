package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HatiCode/hwcast/cmd/forecaster/config"
	"github.com/HatiCode/hwcast/cmd/forecaster/metrics"
	"github.com/HatiCode/hwcast/pkg/adapters"
	"github.com/HatiCode/hwcast/pkg/holtwinters"
	"github.com/HatiCode/hwcast/pkg/storage"
)

// Forecaster runs the forecast loop of one batch:
//
//	collect → align → fit → predict → store
type Forecaster struct {
	batch    config.BatchConfig
	names    []string
	adapters []adapters.Adapter
	model    *holtwinters.Model
	store    storage.Store
	levels   []float64
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu          sync.Mutex
	lastSuccess time.Time
	onSuccess   func(batch string)
}

// New creates the forecaster of batch, with one adapter per series.
func New(
	batch config.BatchConfig,
	adapterList []adapters.Adapter,
	store storage.Store,
	logger *slog.Logger,
	m *metrics.Metrics,
) (*Forecaster, error) {
	if len(adapterList) != len(batch.Series) {
		return nil, fmt.Errorf("batch %q: %d adapters for %d series", batch.Name, len(adapterList), len(batch.Series))
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("batch", batch.Name)

	mc, err := batch.ModelConfig()
	if err != nil {
		return nil, err
	}
	mc.Logger = logger
	model, err := holtwinters.New(mc)
	if err != nil {
		return nil, fmt.Errorf("batch %q: %w", batch.Name, err)
	}

	levels, err := batch.QuantileLevels()
	if err != nil {
		return nil, fmt.Errorf("batch %q: %w", batch.Name, err)
	}

	names := make([]string, len(batch.Series))
	for i, s := range batch.Series {
		names[i] = s.Name
	}

	return &Forecaster{
		batch:    batch,
		names:    names,
		adapters: adapterList,
		model:    model,
		store:    store,
		levels:   levels,
		logger:   logger,
		metrics:  m,
	}, nil
}

// OnSuccess registers fn to be called after every successful tick.
// It must be called before Run.
func (f *Forecaster) OnSuccess(fn func(batch string)) {
	f.onSuccess = fn
}

// Run executes the forecast loop every batch interval until ctx is canceled.
func (f *Forecaster) Run(ctx context.Context) error {
	f.logger.Info("starting forecast loop",
		"interval", f.batch.Interval,
		"window", f.batch.Window,
		"series", len(f.names),
		"model", f.model.Name(),
	)

	ticker := time.NewTicker(f.batch.Interval)
	defer ticker.Stop()

	if err := f.Tick(ctx); err != nil {
		f.logger.Error("initial forecast tick failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("forecast loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := f.Tick(ctx); err != nil {
				f.logger.Error("forecast tick failed", "error", err)
			}
			f.updateAge()
		}
	}
}

// Tick performs one forecast cycle.
func (f *Forecaster) Tick(ctx context.Context) error {
	start := time.Now()

	series, collectDuration, err := f.collect(ctx)
	if err != nil {
		f.recordError("adapter", "collect_failed")
		return fmt.Errorf("collect: %w", err)
	}

	frame, times, err := adapters.AlignColumns(series, f.stepSeconds())
	if err != nil {
		f.recordError("adapter", "align_failed")
		return fmt.Errorf("align: %w", err)
	}

	fitDuration, err := f.fit(ctx, frame)
	if err != nil {
		reason := "fit_failed"
		if errors.Is(err, holtwinters.ErrSeriesTooShort) {
			reason = "series_too_short"
		}
		f.recordError("model", reason)
		return fmt.Errorf("fit: %w", err)
	}

	forecasts, predictDuration, err := f.predict()
	if err != nil {
		f.recordError("model", "predict_failed")
		return fmt.Errorf("predict: %w", err)
	}

	last := times[len(times)-1]
	if err := f.storeSnapshot(ctx, last.Add(f.batch.Step), forecasts); err != nil {
		f.recordError("store", "put_failed")
		return fmt.Errorf("store: %w", err)
	}

	failed := len(f.model.Failures())
	if f.metrics != nil {
		f.metrics.SetSeries(len(f.names), failed)
	}

	f.mu.Lock()
	f.lastSuccess = time.Now()
	f.mu.Unlock()
	f.updateAge()
	if f.onSuccess != nil {
		f.onSuccess(f.batch.Name)
	}

	f.logger.Info("forecast tick complete",
		"points", len(times),
		"failed_series", failed,
		"horizon", f.batch.HorizonSteps(),
		"collect_ms", collectDuration.Milliseconds(),
		"fit_ms", fitDuration.Milliseconds(),
		"predict_ms", predictDuration.Milliseconds(),
		"total_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (f *Forecaster) stepSeconds() int {
	return int(f.batch.Step.Seconds())
}

// collect pulls every series of the batch concurrently.
func (f *Forecaster) collect(ctx context.Context) ([]*adapters.Series, time.Duration, error) {
	start := time.Now()
	windowSeconds := int(f.batch.Window.Seconds())
	out := make([]*adapters.Series, len(f.adapters))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range f.adapters {
		g.Go(func() error {
			s, err := a.Collect(gctx, windowSeconds)
			if err != nil {
				return fmt.Errorf("series %q: %w", f.names[i], err)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	duration := time.Since(start)
	if f.metrics != nil {
		f.metrics.RecordCollect(duration.Seconds())
	}

	f.logger.Debug("collected series",
		"series", len(out),
		"window_seconds", windowSeconds,
		"duration_ms", duration.Milliseconds(),
	)
	return out, duration, nil
}

func (f *Forecaster) fit(ctx context.Context, frame holtwinters.Frame[float64]) (time.Duration, error) {
	start := time.Now()
	if err := f.model.Fit(ctx, frame); err != nil {
		return 0, err
	}
	duration := time.Since(start)
	if f.metrics != nil {
		f.metrics.RecordFit(duration.Seconds())
	}
	return duration, nil
}

func (f *Forecaster) predict() ([]storage.SeriesForecast, time.Duration, error) {
	start := time.Now()
	forecasts, err := storage.SeriesForecasts(f.model, f.names, f.batch.HorizonSteps(), f.levels)
	if err != nil {
		return nil, 0, err
	}
	duration := time.Since(start)
	if f.metrics != nil {
		f.metrics.RecordPredict(duration.Seconds())
	}
	return forecasts, duration, nil
}

func (f *Forecaster) storeSnapshot(ctx context.Context, first time.Time, forecasts []storage.SeriesForecast) error {
	snapshot := storage.Snapshot{
		Batch:       f.batch.Name,
		GeneratedAt: time.Now(),
		Start:       first,
		StepSeconds: f.stepSeconds(),
		Horizon:     f.batch.HorizonSteps(),
		Frequency:   f.batch.Frequency,
		Seasonal:    f.model.Seasonal().String(),
		Series:      forecasts,
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := f.store.Put(ctx, snapshot); err != nil {
		return err
	}

	f.logger.Debug("stored snapshot", "start", first)
	return nil
}

func (f *Forecaster) updateAge() {
	if f.metrics == nil {
		return
	}
	f.mu.Lock()
	last := f.lastSuccess
	f.mu.Unlock()
	if !last.IsZero() {
		f.metrics.SetForecastAge(time.Since(last).Seconds())
	}
}

func (f *Forecaster) recordError(component, reason string) {
	if f.metrics != nil {
		f.metrics.RecordError(component, reason)
	}
}

// Batch returns the batch name.
func (f *Forecaster) Batch() string {
	return f.batch.Name
}
