// Package goforecast provides additive time-series forecasting.
//
// A series is decomposed as
//
//	y(t) = trend(t) + seasonal(t) + holidays(t) + noise
//
// where the trend is piecewise linear with changepoints, each seasonality
// is a truncated Fourier series and holidays are per-label offsets over
// event windows. All components are fitted jointly by regularized least
// squares.
//
// # Quick Start
//
// Fit a model with weekly and yearly seasonality:
//
//	series, _ := timeseries.LoadCSV("sales.csv", nil)
//	config := forecaster.DefaultConfig()
//	config.Seasonalities = []forecaster.Seasonality{
//		forecaster.Weekly(3),
//		forecaster.Yearly(10),
//	}
//	model, _ := forecaster.Fit(series, config)
//	forecast := model.PredictFuture(90, 24*time.Hour, false)
//
// Evaluate a configuration by rolling-origin cross-validation:
//
//	result, _ := diagnostics.CrossValidate(ctx, series, forecaster.New(config),
//		diagnostics.DefaultConfig(30*24*time.Hour))
//	metrics := diagnostics.PerformanceMetrics(result.Rows, 0.1)
//
// # Packages
//
// The library is organized into the following packages:
//
//   - forecaster: Model configuration, fitting, prediction and snapshots
//   - diagnostics: Cross-validation, accuracy metrics and grid search
//   - stats: Accuracy measures and residual checks
//   - timeseries: Time series data structures and CSV input
//
// The goforecast command wraps these packages in a CLI and an HTTP service
// backed by an in-memory or Postgres model store.
package goforecast
