// Package forecaster implements an additive decomposition forecaster.
//
// A series is modelled as
//
//	y(t) = g(t) + s(t) + h(t) + noise
//
// where:
//   - g(t) is a continuous piecewise-linear trend whose rate may change at
//     changepoints
//   - s(t) is a sum of seasonalities, each a truncated Fourier series
//   - h(t) adds one offset per event label whose window covers t
//
// All coefficients are estimated jointly by least squares. Setting
// ChangepointRegularization adds an L1 penalty on the rate changes, and
// SeasonalityRegularization or HolidayRegularization add ridge penalties on
// their blocks.
//
// # Basic Usage
//
//	cfg := forecaster.DefaultConfig()
//	cfg.Seasonalities = []forecaster.Seasonality{
//	    forecaster.Weekly(3),
//	    forecaster.Yearly(10),
//	}
//
//	model, err := forecaster.Fit(series, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	forecast := model.PredictFuture(90, 24*time.Hour, false)
//	for _, p := range forecast.Points {
//	    fmt.Printf("%s %.2f [%.2f, %.2f]\n", p.Time.Format("2006-01-02"), p.Yhat, p.Lower, p.Upper)
//	}
//
// # Holidays
//
// Events with the same label share one offset. Windows extend the effect
// before and after the date in time units:
//
//	cfg.Events = []forecaster.Event{
//	    {Date: xmas2022, Label: "christmas", LowerWindow: -1, UpperWindow: 1},
//	    {Date: xmas2023, Label: "christmas", LowerWindow: -1, UpperWindow: 1},
//	}
//
// # Uncertainty
//
// Intervals combine residual noise, trend parameter uncertainty and
// simulated future changepoints. They are reproducible for a given Seed and
// widen with the distance beyond the training range. Set
// UncertaintySamples to 0 to skip simulation.
//
// # Errors
//
// Fit returns *InvalidConfigurationError, *InsufficientDataError or
// *DegenerateDesignError; match them with errors.As or the sentinels with
// errors.Is. Predict never fails. Queries outside the training range add
// an *OutOfRangeQueryWarning to Forecast.Warnings.
package forecaster
