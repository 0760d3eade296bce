package storage

import (
	"fmt"

	"github.com/HatiCode/hwcast/pkg/holtwinters"
)

// SeriesForecasts forecasts h steps of every series of a fitted model.
// names labels the series in batch order. Series that failed to fit are
// returned with their error and no values. levels adds quantile bands.
func SeriesForecasts(m *holtwinters.Model, names []string, h int, levels []float64) ([]SeriesForecast, error) {
	if len(names) != m.NumSeries() {
		return nil, fmt.Errorf("got %d names for %d series", len(names), m.NumSeries())
	}

	rows, err := m.Predict(holtwinters.AllSeries, h)
	if err != nil {
		return nil, err
	}

	out := make([]SeriesForecast, len(rows))
	for i, row := range rows {
		out[i].Name = names[i]

		fm, err := m.Fitted(i)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		out[i].Values = row
		out[i].Alpha = fm.Alpha
		out[i].Beta = fm.Beta
		out[i].Gamma = fm.Gamma
		out[i].SSE = fm.SSE

		if len(levels) == 0 {
			continue
		}
		bands, err := fm.Quantiles(h, levels)
		if err != nil {
			return nil, err
		}
		out[i].Quantiles = make(map[string][]float64, len(bands))
		for q, band := range bands {
			out[i].Quantiles[holtwinters.FormatQuantileLevel(q)] = band
		}
	}
	return out, nil
}
