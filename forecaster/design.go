package forecaster

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// basis maps a timestamp to a row of the regression design:
// [1, tn, hinges | fourier blocks | event indicators].
type basis struct {
	start, end   time.Time
	unit         time.Duration
	changepoints []time.Time
	cpNorm       []float64
	seasons      []Seasonality
	events       *eventSet
	labels       []string // labels with a column
}

func newBasis(start, end time.Time, unit time.Duration, cps []time.Time, seasons []Seasonality, events *eventSet, labels []string) *basis {
	b := &basis{
		start:        start,
		end:          end,
		unit:         unit,
		changepoints: cps,
		seasons:      seasons,
		events:       events,
		labels:       labels,
	}
	b.cpNorm = make([]float64, len(cps))
	for i, c := range cps {
		b.cpNorm[i] = b.norm(c)
	}
	return b
}

// norm maps t to normalized time: 0 at the first observation, 1 at the last.
func (b *basis) norm(t time.Time) float64 {
	return float64(t.Sub(b.start)) / float64(b.end.Sub(b.start))
}

// span is the training range length in time units.
func (b *basis) span() float64 {
	return float64(b.end.Sub(b.start)) / float64(b.unit)
}

func (b *basis) trendCols() int { return 2 + len(b.cpNorm) }

// seasonOffset returns the first column of seasonality i.
func (b *basis) seasonOffset(i int) int {
	off := b.trendCols()
	for _, s := range b.seasons[:i] {
		off += 2 * s.Harmonics
	}
	return off
}

func (b *basis) eventOffset() int { return b.seasonOffset(len(b.seasons)) }

func (b *basis) cols() int { return b.eventOffset() + len(b.labels) }

// row writes the design row for t into dst.
func (b *basis) row(t time.Time, dst []float64) {
	trendColumns(b.norm(t), b.cpNorm, dst)
	x := epochUnits(t, b.unit)
	for i, s := range b.seasons {
		off := b.seasonOffset(i)
		fourierColumns(x, s.Period, s.Harmonics, dst[off:off+2*s.Harmonics])
	}
	off := b.eventOffset()
	for j, l := range b.labels {
		dst[off+j] = 0
		if b.events.covers(l, t) {
			dst[off+j] = 1
		}
	}
}

// matrix builds the n x p design for timestamps.
func (b *basis) matrix(timestamps []time.Time) *mat.Dense {
	p := b.cols()
	data := make([]float64, len(timestamps)*p)
	for i, t := range timestamps {
		b.row(t, data[i*p:(i+1)*p])
	}
	return mat.NewDense(len(timestamps), p, data)
}
