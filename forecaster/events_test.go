package forecaster

import (
	"strings"
	"testing"
	"time"
)

func TestReadEventsCSV(t *testing.T) {
	data := `holiday,ds,lower_window,upper_window
christmas,2022-12-25,-1,1
new_year,2023-01-01,0,
christmas,2023-12-25,-1,1`

	events, err := ReadEventsCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadEventsCSV failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	first := events[0]
	if first.Label != "christmas" || first.LowerWindow != -1 || first.UpperWindow != 1 {
		t.Errorf("Unexpected first event: %+v", first)
	}
	if !first.Date.Equal(time.Date(2022, 12, 25, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected date: %v", first.Date)
	}
	if events[1].UpperWindow != 0 {
		t.Errorf("Expected blank window to be 0, got %d", events[1].UpperWindow)
	}
}

func TestReadEventsCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing columns", "date,name\n2022-01-01,x"},
		{"bad date", "ds,holiday\nnot-a-date,x"},
		{"bad window", "ds,holiday,lower_window\n2022-01-01,x,abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadEventsCSV(strings.NewReader(tt.data)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestEventWindows(t *testing.T) {
	date := time.Date(2022, 12, 25, 0, 0, 0, 0, time.UTC)
	es := newEventSet([]Event{
		{Date: date, Label: "xmas", LowerWindow: -1, UpperWindow: 1},
		{Date: date, Label: "sale"},
	}, day)

	tests := []struct {
		t      time.Time
		active []string
	}{
		{date.Add(-25 * time.Hour), nil},
		{date.Add(-day), []string{"xmas"}},
		{date.Add(12 * time.Hour), []string{"sale", "xmas"}},
		{date.Add(day), []string{"xmas"}},
		{date.Add(2 * day), nil},
	}

	for _, tt := range tests {
		got := es.active(tt.t)
		if len(got) != len(tt.active) {
			t.Errorf("At %v: expected %v, got %v", tt.t, tt.active, got)
			continue
		}
		for i := range got {
			if got[i] != tt.active[i] {
				t.Errorf("At %v: expected %v, got %v", tt.t, tt.active, got)
			}
		}
	}
}
