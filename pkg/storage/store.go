// Package storage keeps the latest forecast snapshot of each batch.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Snapshot is the forecast of every series of one batch at a point in time.
type Snapshot struct {
	Batch       string           `json:"batch"`
	GeneratedAt time.Time        `json:"generatedAt"`
	// Start is the timestamp of the first forecast step.
	Start       time.Time        `json:"start"`
	StepSeconds int              `json:"stepSeconds"`
	Horizon     int              `json:"horizon"`
	Frequency   int              `json:"frequency"`
	Seasonal    string           `json:"seasonal"`
	Series      []SeriesForecast `json:"series"`
}

// SeriesForecast is the forecast of a single series. A series that could not
// be fit has no Values and a non-empty Error.
type SeriesForecast struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values,omitempty"`

	// Quantiles maps a level in p-notation ("p90") to a band matching Values.
	Quantiles map[string][]float64 `json:"quantiles,omitempty"`

	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
	SSE   float64 `json:"sse"`

	Error string `json:"error,omitempty"`
}

// Failed reports whether the series could not be fit.
func (s SeriesForecast) Failed() bool { return s.Error != "" }

type Store interface {
	Put(ctx context.Context, snapshot Snapshot) error
	GetLatest(ctx context.Context, batch string) (Snapshot, bool, error)
}

// ValidateBatchName rejects names that are unsafe as storage keys.
func ValidateBatchName(name string) error {
	if name == "" {
		return errors.New("batch name required")
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_') {
			return fmt.Errorf("invalid batch name %q: only alphanumeric, hyphens, and underscores allowed", name)
		}
	}
	return nil
}
