package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ACF calculates the Autocorrelation Function of values.
// Returns ACF values for lags 0 to maxLag, or nil when values are constant.
func ACF(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	mean := stat.Mean(values, nil)
	centered := make([]float64, n)
	copy(centered, values)
	floats.AddConst(-mean, centered)

	variance := floats.Dot(centered, centered)
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		acf[k] = floats.Dot(centered[k:], centered[:n-k]) / variance
	}
	return acf
}

// ACFResult represents the result of ACF analysis.
type ACFResult struct {
	Lags       []int
	Values     []float64
	ConfBounds float64 // two-sided bound at the requested level
}

// ACFWithConfidence calculates ACF with white-noise confidence bounds
// z/sqrt(n) at the given level (0.95 when level is outside (0, 1)).
func ACFWithConfidence(values []float64, maxLag int, level float64) *ACFResult {
	acf := ACF(values, maxLag)
	if acf == nil {
		return nil
	}
	if level <= 0 || level >= 1 {
		level = 0.95
	}

	lags := make([]int, len(acf))
	for i := range lags {
		lags[i] = i
	}

	z := distuv.UnitNormal.Quantile(0.5 + level/2)

	return &ACFResult{
		Lags:       lags,
		Values:     acf,
		ConfBounds: z / math.Sqrt(float64(len(values))),
	}
}

// SignificantLags returns the lags where ACF values exceed confidence bounds.
func SignificantLags(values []float64, confBound float64) []int {
	var significant []int
	for i := 1; i < len(values); i++ { // Skip lag 0
		if math.Abs(values[i]) > confBound {
			significant = append(significant, i)
		}
	}
	return significant
}
