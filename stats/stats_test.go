package stats

import (
	"math"
	"testing"
)

func TestACF(t *testing.T) {
	// Create a simple AR(1) process
	n := 100
	phi := 0.8
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = phi*values[i-1] + (float64(i%10)-5)/10
	}

	acf := ACF(values, 10)
	if acf == nil {
		t.Fatal("ACF returned nil")
	}

	// ACF at lag 0 should be 1
	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
	if acf[1] <= 0 {
		t.Errorf("Expected positive lag-1 autocorrelation, got %f", acf[1])
	}
}

func TestACFConstant(t *testing.T) {
	if acf := ACF([]float64{3, 3, 3, 3}, 2); acf != nil {
		t.Errorf("Expected nil ACF for constant values, got %v", acf)
	}
}

func TestACFWithConfidence(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i) + math.Sin(float64(i)/10)
	}

	result := ACFWithConfidence(values, 20, 0.95)
	if result == nil {
		t.Fatal("ACFWithConfidence returned nil")
	}

	// Confidence bounds should be approximately 1.96/sqrt(n)
	expected := 1.96 / math.Sqrt(100)
	if math.Abs(result.ConfBounds-expected) > 0.001 {
		t.Errorf("Expected confidence bounds ~%f, got %f", expected, result.ConfBounds)
	}
	if len(result.Lags) != 21 {
		t.Errorf("Expected 21 lags, got %d", len(result.Lags))
	}
}

func TestSignificantLags(t *testing.T) {
	values := []float64{1.0, 0.5, 0.3, 0.1, 0.05, -0.2, -0.5}

	significant := SignificantLags(values, 0.15)

	expected := []int{1, 2, 5, 6}
	if len(significant) != len(expected) {
		t.Fatalf("Expected %d significant lags, got %d", len(expected), len(significant))
	}
	for i, lag := range expected {
		if significant[i] != lag {
			t.Errorf("Expected lag %d at index %d, got %d", lag, i, significant[i])
		}
	}
}

func TestLjungBox(t *testing.T) {
	n := 100
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = float64(i%7-3) / 3
	}

	result := LjungBox(noise, 10, 0)
	if result == nil {
		t.Fatal("LjungBox returned nil")
	}
	t.Logf("Ljung-Box - Q: %f, P-Value: %f, DOF: %d",
		result.Statistic, result.PValue, result.DOF)

	autocorrelated := make([]float64, n)
	for i := 1; i < n; i++ {
		autocorrelated[i] = 0.9*autocorrelated[i-1] + float64(i%7-3)/10
	}

	result2 := LjungBox(autocorrelated, 10, 0)
	if result2 == nil {
		t.Fatal("LjungBox returned nil for autocorrelated data")
	}
	if result2.PValue > 0.05 {
		t.Errorf("Expected autocorrelation to be detected, p-value %f", result2.PValue)
	}

	if LjungBox(noise[:5], 10, 0) != nil {
		t.Error("Expected nil for fewer than 10 residuals")
	}
}

func TestLjungBoxDOF(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = math.Sin(float64(i))
	}

	result := LjungBox(values, 5, 10)
	if result == nil {
		t.Fatal("LjungBox returned nil")
	}
	if result.DOF != 1 {
		t.Errorf("Expected DOF floor of 1, got %d", result.DOF)
	}
}

func TestDurbinWatson(t *testing.T) {
	tests := []struct {
		name      string
		residuals []float64
		expected  float64
	}{
		{"alternating", []float64{1, -1, 1, -1, 1, -1, 1, -1}, 3.5},
		{"positive autocorrelation", []float64{1, 1, 1, 1, -1, -1, -1, -1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DurbinWatson(tt.residuals)
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("Expected DW %f, got %f", tt.expected, result)
			}
		})
	}

	if !math.IsNaN(DurbinWatson([]float64{0, 0, 0})) {
		t.Error("Expected NaN for all-zero residuals")
	}
}

func TestChiSquaredCDF(t *testing.T) {
	tests := []struct {
		x        float64
		k        int
		expected float64
	}{
		{0, 1, 0},
		{3.841, 1, 0.95},
		{5.991, 2, 0.95},
		{7.815, 3, 0.95},
	}

	for _, tt := range tests {
		result := chiSquaredCDF(tt.x, tt.k)
		if math.Abs(result-tt.expected) > 0.001 {
			t.Errorf("chiSquaredCDF(%f, %d) = %f, expected %f", tt.x, tt.k, result, tt.expected)
		}
	}
}
