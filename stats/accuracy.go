package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var nan = math.NaN()

// Point forecast accuracy measures. All of them take equal length actual and
// predicted slices and return NaN when there is nothing to score.

// MSE returns the mean squared error.
func MSE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return nan
	}
	errs := make([]float64, len(actual))
	floats.SubTo(errs, actual, predicted)
	return floats.Dot(errs, errs) / float64(len(errs))
}

// RMSE returns the root mean squared error.
func RMSE(actual, predicted []float64) float64 {
	return math.Sqrt(MSE(actual, predicted))
}

// MAE returns the mean absolute error.
func MAE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return nan
	}
	errs := make([]float64, len(actual))
	floats.SubTo(errs, actual, predicted)
	return floats.Norm(errs, 1) / float64(len(errs))
}

// MAPE returns the mean absolute percentage error as a fraction. Observations
// with a zero actual value are skipped.
func MAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) {
		return nan
	}
	sum, n := 0.0, 0
	for i, a := range actual {
		if a == 0 {
			continue
		}
		sum += math.Abs((a - predicted[i]) / a)
		n++
	}
	if n == 0 {
		return nan
	}
	return sum / float64(n)
}

// SMAPE returns the symmetric mean absolute percentage error in [0, 2].
func SMAPE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return nan
	}
	sum := 0.0
	for i, a := range actual {
		den := (math.Abs(a) + math.Abs(predicted[i])) / 2
		if den == 0 {
			continue
		}
		sum += math.Abs(a-predicted[i]) / den
	}
	return sum / float64(len(actual))
}

// Coverage returns the fraction of actual values inside [lower, upper].
func Coverage(actual, lower, upper []float64) float64 {
	if len(actual) == 0 || len(actual) != len(lower) || len(actual) != len(upper) {
		return nan
	}
	inside := 0
	for i, a := range actual {
		if a >= lower[i] && a <= upper[i] {
			inside++
		}
	}
	return float64(inside) / float64(len(actual))
}

// RSquared returns the coefficient of determination of predicted against
// actual. A constant actual series yields NaN.
func RSquared(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return nan
	}
	_, variance := stat.MeanVariance(actual, nil)
	tss := variance * float64(len(actual)-1)
	if tss == 0 || math.IsNaN(tss) {
		return nan
	}
	return 1 - MSE(actual, predicted)*float64(len(actual))/tss
}

// InformationCriteria returns the Gaussian AIC and BIC of a least squares fit
// with n observations, k estimated parameters and residual sum of squares sse.
func InformationCriteria(sse float64, n, k int) (aic, bic float64) {
	if n <= 0 || sse <= 0 {
		return nan, nan
	}
	ll := float64(n) * math.Log(sse/float64(n))
	return ll + 2*float64(k), ll + float64(k)*math.Log(float64(n))
}
