// Package diagnostics evaluates forecasters by rolling-origin
// cross-validation.
//
// The history up to each cutoff is used for fitting and the following
// horizon for scoring:
//
//	cv := diagnostics.DefaultConfig(30 * 24 * time.Hour)
//	result, err := diagnostics.CrossValidate(ctx, series, forecaster.New(cfg), cv)
//	metrics := diagnostics.PerformanceMetrics(result.Rows, 0.1)
//
// Tune runs the same procedure over a grid of configurations:
//
//	grid := diagnostics.Grid{
//	    ChangepointRegularization: []float64{0.001, 0.01, 0.1},
//	    Harmonics:                 map[string][]int{"weekly": {2, 3, 4}},
//	}
//	tuned, err := diagnostics.Tune(ctx, series, cfg, grid, cv, "rmse")
package diagnostics
