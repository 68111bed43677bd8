package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Sentinel errors for series validation.
var (
	ErrLengthMismatch = errors.New("timestamps and values must have the same length")
	ErrNotSorted      = errors.New("timestamps must be sorted ascending")
	ErrDuplicateTime  = errors.New("timestamps must be unique")
)

// Epoch is the first timestamp assigned by New.
var Epoch = time.Unix(0, 0).UTC()

// Series represents a time series with timestamps and values.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// New creates a daily time series from values, starting at Epoch.
func New(values []float64) *Series {
	return NewDaily(Epoch, values)
}

// NewDaily creates a time series with one observation per day from start.
func NewDaily(start time.Time, values []float64) *Series {
	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = start.AddDate(0, 0, i)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("%d timestamps, %d values: %w", len(timestamps), len(values), ErrLengthMismatch)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Validate checks that the series is sorted ascending with unique timestamps.
func (s *Series) Validate() error {
	if len(s.Timestamps) != len(s.Values) {
		return ErrLengthMismatch
	}
	for i := 1; i < len(s.Timestamps); i++ {
		switch {
		case s.Timestamps[i].Equal(s.Timestamps[i-1]):
			return fmt.Errorf("index %d: %w", i, ErrDuplicateTime)
		case s.Timestamps[i].Before(s.Timestamps[i-1]):
			return fmt.Errorf("index %d: %w", i, ErrNotSorted)
		}
	}
	return nil
}

// Sorted returns a copy ordered by timestamp. Equal timestamps keep their
// original relative order.
func (s *Series) Sorted() *Series {
	idx := make([]int, len(s.Values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Timestamps[idx[a]].Before(s.Timestamps[idx[b]])
	})

	timestamps := make([]time.Time, len(idx))
	values := make([]float64, len(idx))
	for i, j := range idx {
		timestamps[i] = s.Timestamps[j]
		values[i] = s.Values[j]
	}
	return &Series{Timestamps: timestamps, Values: values, Name: s.Name}
}

// DropNaN returns a copy without missing (NaN or infinite) observations.
func (s *Series) DropNaN() *Series {
	out := &Series{Name: s.Name}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.Values = append(out.Values, v)
		if i < len(s.Timestamps) {
			out.Timestamps = append(out.Timestamps, s.Timestamps[i])
		}
	}
	return out
}

// DistinctTimestamps counts distinct timestamps. The series must be sorted.
func (s *Series) DistinctTimestamps() int {
	if len(s.Timestamps) == 0 {
		return 0
	}
	n := 1
	for i := 1; i < len(s.Timestamps); i++ {
		if !s.Timestamps[i].Equal(s.Timestamps[i-1]) {
			n++
		}
	}
	return n
}

// Start returns the first timestamp, or the zero time for an empty series.
func (s *Series) Start() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[0]
}

// End returns the last timestamp, or the zero time for an empty series.
func (s *Series) End() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum / float64(len(s.Values))
}

// Variance calculates the variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq := 0.0
	for _, v := range s.Values {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(len(s.Values)-1)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	min := s.Values[0]
	for _, v := range s.Values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	max := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, len(values))
	if len(s.Timestamps) >= end {
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// Between returns the observations with from < t <= to. A zero from means
// no lower bound.
func (s *Series) Between(from, to time.Time) *Series {
	out := &Series{Name: s.Name}
	for i, t := range s.Timestamps {
		if (!from.IsZero() && !t.After(from)) || t.After(to) {
			continue
		}
		out.Timestamps = append(out.Timestamps, t)
		out.Values = append(out.Values, s.Values[i])
	}
	return out
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	timestamps := make([]time.Time, len(s.Timestamps))
	copy(timestamps, s.Timestamps)

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
	}
}

// MakeFuture returns timestamps for periods steps of freq after the last
// observation. With includeHistory the series' own timestamps come first.
func (s *Series) MakeFuture(periods int, freq time.Duration, includeHistory bool) []time.Time {
	var out []time.Time
	if includeHistory {
		out = make([]time.Time, 0, len(s.Timestamps)+periods)
		out = append(out, s.Timestamps...)
	}
	if periods <= 0 || freq <= 0 || len(s.Timestamps) == 0 {
		return out
	}
	last := s.End()
	for i := 1; i <= periods; i++ {
		out = append(out, last.Add(time.Duration(i)*freq))
	}
	return out
}
