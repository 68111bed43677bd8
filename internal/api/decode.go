package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sartorproj/goforecast/forecaster"
	"github.com/sartorproj/goforecast/timeseries"
)

// duration accepts Go duration strings, a day count such as "7d", or
// integer nanoseconds.
type duration time.Duration

func (d *duration) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := parseDuration(s)
		if err != nil {
			return err
		}
		*d = duration(v)
		return nil
	}
	var ns int64
	if err := json.Unmarshal(b, &ns); err != nil {
		return fmt.Errorf("duration must be a string or nanoseconds: %w", err)
	}
	*d = duration(ns)
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(s)
}

// configBody is a forecaster.Config whose time unit may be given as a
// duration string.
type configBody struct {
	forecaster.Config
	TimeUnit duration `json:"time_unit"`
}

func defaultConfigBody() *configBody {
	cfg := forecaster.DefaultConfig()
	return &configBody{Config: *cfg, TimeUnit: duration(cfg.TimeUnit)}
}

func (c *configBody) config() *forecaster.Config {
	cfg := c.Config
	cfg.TimeUnit = time.Duration(c.TimeUnit)
	return &cfg
}

// seriesBody carries observations as parallel ds/y arrays. A null y is a
// missing value.
type seriesBody struct {
	DS []string   `json:"ds"`
	Y  []*float64 `json:"y"`
}

func (s seriesBody) series() (*timeseries.Series, error) {
	if len(s.DS) != len(s.Y) {
		return nil, fmt.Errorf("%w: %d ds, %d y", timeseries.ErrLengthMismatch, len(s.DS), len(s.Y))
	}
	ts, err := parseTimes(s.DS)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(s.Y))
	for i, v := range s.Y {
		values[i] = math.NaN()
		if v != nil {
			values[i] = *v
		}
	}
	return timeseries.NewWithTimestamps(ts, values)
}

func parseTimes(raw []string) ([]time.Time, error) {
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		t, err := timeseries.ParseTime(s, time.RFC3339Nano, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: ds[%d]: cannot parse %q", errBadRequest, i, s)
		}
		out[i] = t
	}
	return out, nil
}

// decode reads a JSON body into v, rejecting unknown fields.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
