package forecaster

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// maxArrivals bounds the simulated changepoints per sample path.
	maxArrivals = 10000
	// intervalChunk is the number of timestamps whose sample radii are held
	// in memory at once.
	intervalChunk = 256
)

// intervalWidths returns the interval half-width at each normalized time on
// the scaled target.
//
// Sample s draws a noise deviate z, a trend parameter deviate p and a
// simulated changepoint path D_s. Its radius at tn is
//
//	R_s(tn) = sqrt((sigma*z)^2 + v(tn)*p^2 + M_s(h)^2)
//
// where v is the trend parameter variance (held at its boundary value or
// above outside the training range), h is the distance past the nearest
// end of the range and M_s(h) = max_{h' <= h} |D_s(h')|. Every term is
// non-decreasing in h, so the IntervalWidth quantile of R over samples is
// too.
//
// Timestamps are processed in chunks of intervalChunk. Every chunk replays
// the same per-sample streams, and a path's draws do not depend on the
// horizons requested, so the widths are identical to a single pass.
func (m *Model) intervalWidths(tns []float64) []float64 {
	widths := make([]float64, len(tns))
	samples := m.config.UncertaintySamples
	if samples == 0 || len(tns) == 0 {
		return widths
	}

	rate := float64(len(m.basis.cpNorm))
	scale := m.deltaScale()
	radii := make([]float64, min(len(tns), intervalChunk)*samples)
	peak := make([]float64, min(len(tns), intervalChunk))

	for lo := 0; lo < len(tns); lo += intervalChunk {
		hi := min(lo+intervalChunk, len(tns))
		m.chunkWidths(tns[lo:hi], widths[lo:hi], radii[:(hi-lo)*samples], peak[:hi-lo], rate, scale)
	}
	return widths
}

func (m *Model) chunkWidths(tns, widths, radii, peak []float64, rate, scale float64) {
	samples := m.config.UncertaintySamples

	variance := make([]float64, len(tns))
	for i, tn := range tns {
		variance[i] = m.trendVariance(tn)
	}

	// Forward paths extend past the end, backward paths before the start.
	fwd, fwdH := horizonOrder(tns, func(tn float64) float64 { return tn - 1 })
	bwd, bwdH := horizonOrder(tns, func(tn float64) float64 { return -tn })

	for s := 0; s < samples; s++ {
		fwdRng := rand.New(rand.NewPCG(m.config.Seed, uint64(2*s)))
		bwdRng := rand.New(rand.NewPCG(m.config.Seed, uint64(2*s+1)))
		z := fwdRng.NormFloat64()
		p := fwdRng.NormFloat64()

		for i := range peak {
			peak[i] = 0
		}
		for k, v := range changepointPath(fwdRng, rate, scale, fwdH) {
			peak[fwd[k]] = v
		}
		for k, v := range changepointPath(bwdRng, rate, scale, bwdH) {
			peak[bwd[k]] = v
		}

		noise := m.sigma * z
		for i := range tns {
			radii[i*samples+s] = math.Sqrt(noise*noise + variance[i]*p*p + peak[i]*peak[i])
		}
	}

	for i := range tns {
		r := radii[i*samples : (i+1)*samples]
		sort.Float64s(r)
		widths[i] = stat.Quantile(m.config.IntervalWidth, stat.Empirical, r, nil)
	}
}

// horizonOrder returns the indices with a positive horizon, sorted by
// horizon, and the horizons in that order.
func horizonOrder(tns []float64, horizon func(float64) float64) ([]int, []float64) {
	var idx []int
	for i, tn := range tns {
		if horizon(tn) > 0 {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return horizon(tns[idx[a]]) < horizon(tns[idx[b]])
	})
	hs := make([]float64, len(idx))
	for k, i := range idx {
		hs[k] = horizon(tns[i])
	}
	return idx, hs
}

// changepointPath simulates future rate changes as a Poisson process with
// the given rate per normalized unit and Laplace distributed deltas, and
// returns the running maximum of |D(h)| at each sorted horizon. The draw
// sequence does not depend on the horizons requested.
func changepointPath(rng *rand.Rand, rate, scale float64, hs []float64) []float64 {
	out := make([]float64, len(hs))
	if rate <= 0 || len(hs) == 0 {
		return out
	}

	pos, d, slope, peak := 0.0, 0.0, 0.0, 0.0
	next := rng.ExpFloat64() / rate
	arrivals := 0
	for i, h := range hs {
		for next <= h && arrivals < maxArrivals {
			d += slope * (next - pos)
			pos = next
			peak = math.Max(peak, math.Abs(d))
			slope += laplace(rng, scale)
			arrivals++
			next += rng.ExpFloat64() / rate
		}
		// D is linear between arrivals, so max |D| on [0, h] is reached at an
		// arrival or at h itself.
		out[i] = math.Max(peak, math.Abs(d+slope*(h-pos)))
	}
	return out
}

func laplace(rng *rand.Rand, scale float64) float64 {
	v := scale * rng.ExpFloat64()
	if rng.Uint64()&1 == 0 {
		return -v
	}
	return v
}

// deltaScale is the Laplace scale of simulated rate changes: the mean
// absolute fitted delta.
func (m *Model) deltaScale() float64 {
	k := len(m.basis.cpNorm)
	if k == 0 {
		return 0
	}
	deltas := m.beta[2 : 2+k]
	return floats.Norm(deltas, 1)/float64(k) + 1e-8
}

// trendVariance returns the variance of the fitted trend at tn from the
// parameter covariance sigma^2 * A^-1. Outside the training range it is held
// at least at its value on the nearest boundary.
func (m *Model) trendVariance(tn float64) float64 {
	if m.ainv == nil {
		return 0
	}
	k := m.basis.trendCols()
	cov := m.ainv.SliceSym(0, k)
	q := func(x float64) float64 {
		row := make([]float64, k)
		trendColumns(x, m.basis.cpNorm, row)
		v := mat.NewVecDense(k, row)
		return m.sigma * m.sigma * math.Max(0, mat.Inner(v, cov, v))
	}

	switch {
	case tn > 1:
		return math.Max(q(1), q(tn))
	case tn < 0:
		return math.Max(q(0), q(tn))
	}
	return q(tn)
}
