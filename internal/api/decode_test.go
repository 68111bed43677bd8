package api

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"0.5d", 12 * time.Hour, false},
		{"36h", 36 * time.Hour, false},
		{" 90m ", 90 * time.Minute, false},
		{"xd", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseDuration(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseDuration(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestDurationJSON(t *testing.T) {
	var v struct {
		A duration `json:"a"`
		B duration `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a":"2d","b":1000}`), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if time.Duration(v.A) != 48*time.Hour {
		t.Errorf("Expected 48h, got %v", time.Duration(v.A))
	}
	if time.Duration(v.B) != time.Microsecond {
		t.Errorf("Expected 1µs, got %v", time.Duration(v.B))
	}
	if err := json.Unmarshal([]byte(`{"a":true}`), &v); err == nil {
		t.Error("Expected error for boolean duration")
	}
}

func TestConfigBodyKeepsDefaults(t *testing.T) {
	body := defaultConfigBody()
	if err := json.Unmarshal([]byte(`{"interval_width":0.9,"time_unit":"1h"}`), body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	cfg := body.config()
	if cfg.IntervalWidth != 0.9 {
		t.Errorf("Expected interval width 0.9, got %v", cfg.IntervalWidth)
	}
	if cfg.TimeUnit != time.Hour {
		t.Errorf("Expected time unit 1h, got %v", cfg.TimeUnit)
	}
	if cfg.ChangepointCount == 0 {
		t.Error("Expected default changepoint count to survive partial decode")
	}
}

func TestSeriesBodyNullIsMissing(t *testing.T) {
	var body seriesBody
	if err := json.Unmarshal([]byte(`{"ds":["2024-01-01","2024-01-02"],"y":[1.5,null]}`), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	s, err := body.series()
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if s.Values[0] != 1.5 || !math.IsNaN(s.Values[1]) {
		t.Errorf("Expected [1.5 NaN], got %v", s.Values)
	}
}
