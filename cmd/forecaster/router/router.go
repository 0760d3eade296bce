// Package router configures the forecaster's HTTP API.
//
// Routes:
//   - GET  /forecast/current?batch=<name>[&series=<name>] - latest batch snapshot
//   - POST /fit - fit and forecast a batch supplied in the request body
//   - GET  /healthz - health check
//   - GET  /metrics - Prometheus metrics
//
// Snapshots older than the stale threshold carry an X-Hwcast-Stale header.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/hwcast/pkg/holtwinters"
	"github.com/HatiCode/hwcast/pkg/httpx"
	"github.com/HatiCode/hwcast/pkg/storage"
)

// MaxFitBodyBytes bounds the size of a /fit request body.
const MaxFitBodyBytes = 8 << 20

// MaxFitHorizon bounds the horizon of a /fit request.
const MaxFitHorizon = 10000

// MaxFitOutputValues bounds the number of forecast values a /fit response
// may carry, counting every series and quantile.
const MaxFitOutputValues = 1 << 22

// SetupRoutes configures HTTP endpoints for the forecaster. When store can
// be pinged, /healthz reports its reachability.
func SetupRoutes(store storage.Store, staleAfter time.Duration, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/healthz", httpx.HealthHandlerWithCheck(storeCheck(store)))
	mux.HandleFunc("/forecast/current", handleGetSnapshot(store, staleAfter, logger))
	mux.HandleFunc("/fit", handleFit(logger))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

type pinger interface {
	Ping(ctx context.Context) error
}

func storeCheck(store storage.Store) func() error {
	p, ok := store.(pinger)
	if !ok {
		return func() error { return nil }
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("store unavailable: %w", err)
		}
		return nil
	}
}

// handleGetSnapshot returns a handler for GET /forecast/current?batch=<name>.
func handleGetSnapshot(store storage.Store, staleAfter time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		batch := r.URL.Query().Get("batch")
		if batch == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "batch parameter required")
			return
		}
		if err := storage.ValidateBatchName(batch); err != nil {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "invalid batch name format")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snapshot, found, err := store.GetLatest(ctx, batch)
		if err != nil {
			logger.Error("failed to get snapshot", "batch", batch, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("snapshot not found for batch %q", batch))
			return
		}

		if name := r.URL.Query().Get("series"); name != "" {
			var selected []storage.SeriesForecast
			for _, s := range snapshot.Series {
				if s.Name == name {
					selected = append(selected, s)
				}
			}
			if len(selected) == 0 {
				httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("series %q not found in batch %q", name, batch))
				return
			}
			snapshot.Series = selected
		}

		if time.Since(snapshot.GeneratedAt) > staleAfter {
			w.Header().Set("X-Hwcast-Stale", "true")
		}

		if err := httpx.WriteJSON(w, http.StatusOK, snapshot); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}

// FitRequest is the body of POST /fit. All series must have the same length.
type FitRequest struct {
	Frequency    int         `json:"frequency"`
	Seasonal     string      `json:"seasonal"`
	StartPeriods int         `json:"startPeriods,omitempty"`
	Horizon      int         `json:"horizon"`
	Quantiles    []string    `json:"quantiles,omitempty"`
	Precision    string      `json:"precision,omitempty"`
	Series       []FitSeries `json:"series"`
}

// FitSeries is one named series of a FitRequest.
type FitSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// FitResponse is the reply to POST /fit.
type FitResponse struct {
	Model     string                   `json:"model"`
	Precision string                   `json:"precision"`
	Series    []storage.SeriesForecast `json:"series"`
}

// handleFit returns a handler for POST /fit.
func handleFit(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req FitRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxFitBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		resp, err := fit(r.Context(), req, logger)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				status = http.StatusServiceUnavailable
			}
			httpx.WriteError(w, status, err)
			return
		}

		if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}

func fit(ctx context.Context, req FitRequest, logger *slog.Logger) (*FitResponse, error) {
	if len(req.Series) == 0 {
		return nil, holtwinters.ErrEmptyBatch
	}
	if req.Horizon <= 0 {
		return nil, fmt.Errorf("%w, got %d", holtwinters.ErrInvalidHorizon, req.Horizon)
	}
	if req.Horizon > MaxFitHorizon {
		return nil, fmt.Errorf("%w: %d exceeds limit %d", holtwinters.ErrInvalidHorizon, req.Horizon, MaxFitHorizon)
	}
	if out := len(req.Series) * req.Horizon * (1 + len(req.Quantiles)); out > MaxFitOutputValues {
		return nil, fmt.Errorf("%w: %d series x %d steps x %d rows exceeds %d values",
			holtwinters.ErrInvalidHorizon, len(req.Series), req.Horizon, 1+len(req.Quantiles), MaxFitOutputValues)
	}
	if req.Seasonal == "" {
		req.Seasonal = "additive"
	}
	kind, err := holtwinters.ParseSeasonal(req.Seasonal)
	if err != nil {
		return nil, err
	}
	levels := make([]float64, 0, len(req.Quantiles))
	for _, q := range req.Quantiles {
		level, err := holtwinters.ParseQuantileLevel(q)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}

	names := make([]string, len(req.Series))
	for i, s := range req.Series {
		names[i] = s.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("series-%d", i)
		}
	}

	var src holtwinters.Source
	switch req.Precision {
	case "", "float64":
		rows := make(holtwinters.Rows[float64], len(req.Series))
		for i, s := range req.Series {
			rows[i] = s.Values
		}
		src = rows
	case "float32":
		rows := make(holtwinters.Rows[float32], len(req.Series))
		for i, s := range req.Series {
			rows[i] = make([]float32, len(s.Values))
			for j, v := range s.Values {
				rows[i][j] = float32(v)
			}
		}
		src = rows
	default:
		return nil, fmt.Errorf("unknown precision %q (must be float32 or float64)", req.Precision)
	}

	model, err := holtwinters.New(holtwinters.Config{
		NumSeries:    len(req.Series),
		Frequency:    req.Frequency,
		Seasonal:     kind,
		StartPeriods: req.StartPeriods,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	if err := model.Fit(ctx, src); err != nil {
		return nil, err
	}

	series, err := storage.SeriesForecasts(model, names, req.Horizon, levels)
	if err != nil {
		return nil, err
	}

	return &FitResponse{
		Model:     model.Name(),
		Precision: model.Precision().String(),
		Series:    series,
	}, nil
}
