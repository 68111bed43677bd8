package timeseries

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadCSVFromReader(t *testing.T) {
	csvData := `ds,y
2020-01-01,100
2020-01-02,101
2020-01-03,102
2020-01-04,103
2020-01-05,104`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if series.Len() != 5 {
		t.Errorf("Expected 5 observations, got %d", series.Len())
	}

	expected := []float64{100, 101, 102, 103, 104}
	for i, v := range expected {
		if series.Values[i] != v {
			t.Errorf("Value at index %d: expected %f, got %f", i, v, series.Values[i])
		}
	}

	want := time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)
	if !series.Timestamps[2].Equal(want) {
		t.Errorf("Expected timestamp %v, got %v", want, series.Timestamps[2])
	}
}

func TestLoadCSVWithFilter(t *testing.T) {
	csvData := `station,ds,cnt
A,2020-01-01,100
B,2020-01-01,200
A,2020-01-02,101
B,2020-01-02,201
A,2020-01-03,102`

	opts := DefaultCSVOptions()
	opts.ValueColumn = "cnt"
	opts.IDColumn = "station"
	opts.IDFilter = "A"

	series, err := LoadCSVFromReader(strings.NewReader(csvData), opts)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	expected := []float64{100, 101, 102}
	if series.Len() != len(expected) {
		t.Fatalf("Expected %d observations for 'A', got %d", len(expected), series.Len())
	}
	for i, v := range expected {
		if series.Values[i] != v {
			t.Errorf("Value at index %d: expected %f, got %f", i, v, series.Values[i])
		}
	}
	if series.Name != "cnt" {
		t.Errorf("Expected series name 'cnt', got %q", series.Name)
	}
}

func TestLoadCSVWithNAValues(t *testing.T) {
	csvData := `ds,y
2020-01-01,100
2020-01-02,NA
2020-01-03,102
2020-01-04,NaN
2020-01-05,104`

	series, err := LoadCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if series.Len() != 3 {
		t.Errorf("Expected 3 observations (NA values skipped), got %d", series.Len())
	}
	if len(series.Timestamps) != series.Len() {
		t.Errorf("Timestamps out of step with values: %d vs %d", len(series.Timestamps), series.Len())
	}
}

func TestLoadCSVMissingValueColumn(t *testing.T) {
	csvData := `ds,count
2020-01-01,100`

	_, err := LoadCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	if err == nil {
		t.Fatal("Expected error for missing value column")
	}
}

func TestLoadCSVNoData(t *testing.T) {
	csvData := `ds,y
2020-01-01,NA`

	_, err := LoadCSVFromReader(strings.NewReader(csvData), DefaultCSVOptions())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
}

func TestLoadCSVDateFormats(t *testing.T) {
	testCases := []struct {
		name    string
		csvData string
	}{
		{"ISO format", "ds,y\n2020-01-01,100\n2020-01-02,101"},
		{"RFC3339", "ds,y\n2020-01-01T00:00:00Z,100\n2020-01-02T00:00:00Z,101"},
		{"Slashes", "ds,y\n2020/01/01,100\n2020/01/02,101"},
		{"Quoted", "\"ds\",\"y\"\n\"2020-01-01\",\"100\"\n\"2020-01-02\",\"101\""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			series, err := LoadCSVFromReader(strings.NewReader(tc.csvData), DefaultCSVOptions())
			if err != nil {
				t.Fatalf("Failed to load CSV: %v", err)
			}
			if series.Len() != 2 {
				t.Errorf("Expected 2 observations, got %d", series.Len())
			}
			if len(series.Timestamps) != 2 {
				t.Errorf("Expected 2 parsed timestamps, got %d", len(series.Timestamps))
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	series := NewDaily(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), []float64{1.5, 2})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, series); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	loaded, err := LoadCSVFromReader(&buf, DefaultCSVOptions())
	if err != nil {
		t.Fatalf("Failed to reload CSV: %v", err)
	}
	if loaded.Len() != 2 || loaded.Values[0] != 1.5 {
		t.Errorf("Unexpected reloaded values: %v", loaded.Values)
	}
	if !loaded.Timestamps[1].Equal(series.Timestamps[1]) {
		t.Errorf("Expected timestamp %v, got %v", series.Timestamps[1], loaded.Timestamps[1])
	}
}

func TestDefaultCSVOptions(t *testing.T) {
	opts := DefaultCSVOptions()

	if opts.ValueColumn != "y" {
		t.Errorf("Expected default value column 'y', got '%s'", opts.ValueColumn)
	}
	if opts.DateColumn != "ds" {
		t.Errorf("Expected default date column 'ds', got '%s'", opts.DateColumn)
	}
	if !opts.HasHeader {
		t.Error("Expected HasHeader to be true by default")
	}
	if opts.Delimiter != ',' {
		t.Errorf("Expected default delimiter ',', got '%c'", opts.Delimiter)
	}
}
