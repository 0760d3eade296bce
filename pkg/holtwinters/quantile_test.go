package holtwinters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantileLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"p50", 0.50, false},
		{"p90", 0.90, false},
		{"P95", 0.95, false}, // case insensitive
		{"0.75", 0.75, false},
		{"0.999", 0.999, false},

		{"", 0, true},
		{"0", 0, true},
		{"p100", 0, true},
		{"1.5", 0, true},
		{"-0.5", 0, true},
		{"pabc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseQuantileLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseQuantileLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseQuantileLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatQuantileLevel(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0.50, "p50"},
		{0.90, "p90"},
		{0.95, "p95"},
		{0.99, "p99"},
		{0.975, "p97.5"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatQuantileLevel(tt.input); got != tt.want {
				t.Errorf("FormatQuantileLevel(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestModel_Quantiles(t *testing.T) {
	m, err := New(Config{Frequency: 12, Seasonal: Multiplicative})
	require.NoError(t, err)
	require.NoError(t, m.Fit(context.Background(), Rows[float64]{airPassengers()}))

	const h = 12
	point, err := m.PredictSeries(0, h)
	require.NoError(t, err)

	q, err := m.Quantiles(0, h, []float64{0.1, 0.5, 0.9})
	require.NoError(t, err)
	require.Len(t, q, 3)

	for k := 0; k < h; k++ {
		assert.InDelta(t, point[k], q[0.5][k], 1e-9, "median at step %d", k)
		assert.Less(t, q[0.1][k], point[k], "p10 at step %d", k)
		assert.Greater(t, q[0.9][k], point[k], "p90 at step %d", k)
	}

	// Bands widen with the horizon.
	assert.Greater(t, q[0.9][h-1]-point[h-1], q[0.9][0]-point[0])

	_, err = m.Quantiles(0, h, []float64{1.2})
	assert.Error(t, err)
	_, err = m.Quantiles(0, 0, []float64{0.9})
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}
