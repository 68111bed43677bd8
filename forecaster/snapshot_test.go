package forecaster

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSnapshotRoundTrip(t *testing.T) {
	model := trendingModel(t, 100, 21)

	data, err := json.Marshal(model.Snapshot())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	restored, err := Restore(&snap)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if !reflect.DeepEqual(restored.FittedValues(), model.FittedValues()) {
		t.Error("Fitted values differ after restore")
	}
	if restored.Sigma() != model.Sigma() {
		t.Errorf("Expected sigma %f, got %f", model.Sigma(), restored.Sigma())
	}

	ts := []time.Time{model.Start().Add(3 * day), model.End().Add(45 * day)}
	want := model.Predict(ts).Points
	got := restored.Predict(ts).Points
	for i := range want {
		if got[i].Yhat != want[i].Yhat || got[i].Lower != want[i].Lower || got[i].Upper != want[i].Upper {
			t.Errorf("Point %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	model := trendingModel(t, 0, 0)

	tests := []struct {
		name   string
		modify func(*Snapshot)
	}{
		{"version", func(s *Snapshot) { s.Version = 99 }},
		{"coefficients", func(s *Snapshot) { s.Beta = s.Beta[:3] }},
		{"covariance", func(s *Snapshot) { s.Covariance = s.Covariance[:4] }},
		{"values", func(s *Snapshot) { s.Values = s.Values[:10] }},
		{"range", func(s *Snapshot) { s.End = s.Start }},
		{"scale", func(s *Snapshot) { s.YScale = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := model.Snapshot()
			tt.modify(snap)
			if _, err := Restore(snap); !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("Expected ErrInvalidSnapshot, got %v", err)
			}
		})
	}

	if _, err := Restore(nil); !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("Expected ErrInvalidSnapshot for nil, got %v", err)
	}
}
