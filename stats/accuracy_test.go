package stats

import (
	"math"
	"testing"
)

func TestErrorMeasures(t *testing.T) {
	actual := []float64{1, 2, 3, 4}
	predicted := []float64{2, 2, 1, 4}

	tests := []struct {
		name     string
		fn       func(a, p []float64) float64
		expected float64
	}{
		{"MSE", MSE, 5.0 / 4},
		{"RMSE", RMSE, math.Sqrt(5.0 / 4)},
		{"MAE", MAE, 3.0 / 4},
		{"MAPE", MAPE, (1.0 + 0 + 2.0/3 + 0) / 4},
		{"SMAPE", SMAPE, (1/1.5 + 0 + 2.0/2 + 0) / 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.fn(actual, predicted)
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("Expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestErrorMeasuresMismatch(t *testing.T) {
	if !math.IsNaN(MSE([]float64{1}, []float64{1, 2})) {
		t.Error("Expected NaN for mismatched lengths")
	}
	if !math.IsNaN(MAE(nil, nil)) {
		t.Error("Expected NaN for empty input")
	}
	if !math.IsNaN(MAPE([]float64{0, 0}, []float64{1, 2})) {
		t.Error("Expected NaN when every actual value is zero")
	}
}

func TestCoverage(t *testing.T) {
	actual := []float64{1, 5, 3, 10}
	lower := []float64{0, 0, 3, 0}
	upper := []float64{2, 4, 3, 9}

	if got := Coverage(actual, lower, upper); got != 0.5 {
		t.Errorf("Expected coverage 0.5, got %f", got)
	}
}

func TestRSquared(t *testing.T) {
	actual := []float64{1, 2, 3, 4, 5}

	if got := RSquared(actual, actual); math.Abs(got-1) > 1e-12 {
		t.Errorf("Expected R^2 of 1 for a perfect fit, got %f", got)
	}

	mean := []float64{3, 3, 3, 3, 3}
	if got := RSquared(actual, mean); math.Abs(got) > 1e-12 {
		t.Errorf("Expected R^2 of 0 for the mean, got %f", got)
	}
}

func TestInformationCriteria(t *testing.T) {
	aic, bic := InformationCriteria(10, 100, 3)

	ll := 100 * math.Log(0.1)
	if math.Abs(aic-(ll+6)) > 1e-10 {
		t.Errorf("Expected AIC %f, got %f", ll+6, aic)
	}
	if math.Abs(bic-(ll+3*math.Log(100))) > 1e-10 {
		t.Errorf("Expected BIC %f, got %f", ll+3*math.Log(100), bic)
	}
	if bic <= aic {
		t.Error("Expected BIC to penalize more than AIC for n=100")
	}
}
