// Package holtwinters fits triple exponential smoothing (Holt-Winters) models
// to batches of equal-length series and forecasts them.
//
// A batch is handed to Model.Fit through a Source: a slice of rows, named
// columns, a strided buffer or a gonum matrix, in float32 or float64. Each
// series is fit independently and in parallel by minimising the sum of
// squared one-step-ahead errors. A series that cannot be fit does not stop
// the others; its failure is reported by Model.Failures.
//
//	m, err := holtwinters.New(holtwinters.Config{Frequency: 12, Seasonal: holtwinters.Multiplicative})
//	if err != nil {
//		return err
//	}
//	if err := m.Fit(ctx, holtwinters.Rows[float64](series)); err != nil {
//		return err
//	}
//	forecasts, err := m.Predict(holtwinters.AllSeries, 12)
package holtwinters
