package forecaster

import (
	"math"
	"time"
)

// SeasonalityFit holds the fitted Fourier coefficients of one seasonality,
// ordered sin_1, cos_1, sin_2, cos_2, ... in the units of the observations.
type SeasonalityFit struct {
	Seasonality
	Coefficients []float64 `json:"coefficients"`
}

// Amplitudes returns sqrt(a_k^2 + b_k^2) for each harmonic k.
func (s SeasonalityFit) Amplitudes() []float64 {
	out := make([]float64, len(s.Coefficients)/2)
	for k := range out {
		out[k] = math.Hypot(s.Coefficients[2*k], s.Coefficients[2*k+1])
	}
	return out
}

// epochUnits is the time since the Unix epoch in units. Seasonal phase is
// anchored to it, so it does not depend on the training window.
func epochUnits(t time.Time, unit time.Duration) float64 {
	sec := unit.Seconds()
	return float64(t.Unix())/sec + float64(t.Nanosecond())/float64(unit)
}

// fourierColumns writes the 2K sin/cos bases of period at time x (in units)
// into dst.
func fourierColumns(x, period float64, harmonics int, dst []float64) {
	phase := 2 * math.Pi * math.Mod(x, period) / period
	for k := 1; k <= harmonics; k++ {
		s, c := math.Sincos(float64(k) * phase)
		dst[2*(k-1)] = s
		dst[2*(k-1)+1] = c
	}
}
