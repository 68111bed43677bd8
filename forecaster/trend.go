package forecaster

import (
	"math"
	"time"
)

// Segment is one linear piece of the fitted trend. Within the segment
// g(t) = Intercept + Rate*u, where u is the time since the model start in
// time units.
type Segment struct {
	Start     time.Time `json:"start"`
	Rate      float64   `json:"rate"`
	Intercept float64   `json:"intercept"`
}

// placeChangepoints spreads count changepoints evenly over the first
// fraction of the distinct training timestamps. The first timestamp is never
// used and the last is excluded so every hinge column has support.
func placeChangepoints(distinct []time.Time, count int, fraction float64) []time.Time {
	n := len(distinct)
	histSize := int(math.Floor(float64(n) * fraction))
	if histSize > n-1 {
		histSize = n - 1
	}
	if count > histSize-1 {
		count = histSize - 1
	}
	if count <= 0 {
		return nil
	}

	out := make([]time.Time, 0, count)
	for i := 1; i <= count; i++ {
		idx := int(math.Round(float64(i) * float64(histSize-1) / float64(count)))
		out = append(out, distinct[idx])
	}
	return out
}

// trendColumns writes [1, tn, max(0, tn-c_j)...] into dst.
func trendColumns(tn float64, cps []float64, dst []float64) {
	dst[0] = 1
	dst[1] = tn
	for j, c := range cps {
		dst[2+j] = math.Max(0, tn-c)
	}
}

// trendValue evaluates the piecewise-linear trend at normalized time tn.
// beta holds [m, k, delta_1..delta_S].
func trendValue(tn float64, cps, beta []float64) float64 {
	g := beta[0] + beta[1]*tn
	for j, c := range cps {
		if tn > c {
			g += beta[2+j] * (tn - c)
		}
	}
	return g
}

// segments converts the hinge parameterization into explicit rate and
// intercept per segment, in normalized units.
func segments(cps, beta []float64) (rates, intercepts []float64) {
	rates = make([]float64, len(cps)+1)
	intercepts = make([]float64, len(cps)+1)
	rate, intercept := beta[1], beta[0]
	rates[0], intercepts[0] = rate, intercept
	for j, c := range cps {
		rate += beta[2+j]
		intercept -= c * beta[2+j]
		rates[j+1], intercepts[j+1] = rate, intercept
	}
	return rates, intercepts
}
