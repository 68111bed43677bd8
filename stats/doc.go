// Package stats provides residual diagnostics and forecast accuracy measures.
//
// # Autocorrelation
//
//	acf := stats.ACF(residuals, 20)
//	res := stats.ACFWithConfidence(residuals, 20, 0.95)
//	significant := stats.SignificantLags(res.Values, res.ConfBounds)
//
// # Residual Tests
//
//	// Ljung-Box test, H0: no autocorrelation up to the given lag
//	lb := stats.LjungBox(residuals, 10, fitdf)
//	if lb.PValue > 0.05 {
//	    // Residuals are white noise (good)
//	}
//
//	dw := stats.DurbinWatson(residuals)
//
// # Accuracy
//
//	rmse := stats.RMSE(actual, predicted)
//	mape := stats.MAPE(actual, predicted)
//	cov := stats.Coverage(actual, lower, upper)
//	aic, bic := stats.InformationCriteria(sse, n, k)
package stats
