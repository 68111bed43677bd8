package forecaster

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

const snapshotVersion = 1

// Snapshot is the serializable state of a Model. Restore rebuilds an
// identical model from it: fitted values and predictions match exactly.
type Snapshot struct {
	Version      int         `json:"version"`
	Config       Config      `json:"config"`
	Start        time.Time   `json:"start"`
	End          time.Time   `json:"end"`
	Changepoints []time.Time `json:"changepoints,omitempty"`
	Labels       []string    `json:"labels,omitempty"`
	Unobserved   []string    `json:"unobserved,omitempty"`
	YScale       float64     `json:"y_scale"`
	Beta         []float64   `json:"beta"`
	Covariance   []float64   `json:"covariance,omitempty"` // row-major inverse normal matrix
	Timestamps   []time.Time `json:"timestamps"`
	Values       []float64   `json:"values"`
}

// Snapshot captures the model state.
func (m *Model) Snapshot() *Snapshot {
	s := &Snapshot{
		Version:      snapshotVersion,
		Config:       m.config.withDefaults(),
		Start:        m.basis.start,
		End:          m.basis.end,
		Changepoints: m.Changepoints(),
		Labels:       append([]string(nil), m.basis.labels...),
		Unobserved:   m.UnobservedEvents(),
		YScale:       m.yScale,
		Beta:         append([]float64(nil), m.beta...),
		Timestamps:   m.Timestamps(),
		Values:       m.Values(),
	}
	if m.ainv != nil {
		p := len(m.beta)
		s.Covariance = make([]float64, 0, p*p)
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				s.Covariance = append(s.Covariance, m.ainv.At(i, j))
			}
		}
	}
	return s
}

// Restore rebuilds a Model from a snapshot. Errors wrap ErrInvalidSnapshot
// or are an *InvalidConfigurationError.
func Restore(s *Snapshot) (*Model, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}
	if err := s.Config.Validate(); err != nil {
		return nil, err
	}
	cfg := s.Config.withDefaults()

	switch {
	case !s.End.After(s.Start):
		return nil, fmt.Errorf("%w: empty training range", ErrInvalidSnapshot)
	case !(s.YScale > 0):
		return nil, fmt.Errorf("%w: y scale must be positive", ErrInvalidSnapshot)
	case len(s.Timestamps) != len(s.Values) || len(s.Timestamps) < 2:
		return nil, fmt.Errorf("%w: %d timestamps, %d values", ErrInvalidSnapshot, len(s.Timestamps), len(s.Values))
	}

	events := newEventSet(cfg.Events, cfg.TimeUnit)
	b := newBasis(s.Start, s.End, cfg.TimeUnit, s.Changepoints, cfg.Seasonalities, events, s.Labels)
	p := b.cols()
	if len(s.Beta) != p {
		return nil, fmt.Errorf("%w: %d coefficients for %d columns", ErrInvalidSnapshot, len(s.Beta), p)
	}

	m := &Model{
		config:     cfg,
		basis:      b,
		yScale:     s.YScale,
		beta:       append([]float64(nil), s.Beta...),
		timestamps: append([]time.Time(nil), s.Timestamps...),
		values:     append([]float64(nil), s.Values...),
		unobserved: append([]string(nil), s.Unobserved...),
	}
	switch len(s.Covariance) {
	case 0:
	case p * p:
		m.ainv = mat.NewSymDense(p, append([]float64(nil), s.Covariance...))
	default:
		return nil, fmt.Errorf("%w: covariance has %d entries, want %d", ErrInvalidSnapshot, len(s.Covariance), p*p)
	}

	m.finish()
	return m, nil
}
