package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when a CSV source holds no usable observations.
var ErrNoData = errors.New("no valid data found in CSV")

// DateFormats are tried in order after CSVOptions.DateFormat.
var DateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
}

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string         // Column name for dates (default: "ds")
	ValueColumn string         // Column name for values (default: "y")
	IDColumn    string         // Column name for series ID (optional, for filtering)
	IDFilter    string         // Value to filter by ID column
	DateFormat  string         // Preferred date layout (default: "2006-01-02")
	Location    *time.Location // Location for layouts without zone (default: UTC)
	HasHeader   bool           // Whether CSV has header row (default: true)
	Delimiter   rune           // Field delimiter (default: ',')
	SkipRows    int            // Number of rows to skip at start
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn:  "ds",
		ValueColumn: "y",
		DateFormat:  "2006-01-02",
		Location:    time.UTC,
		HasHeader:   true,
		Delimiter:   ',',
	}
}

// LoadCSV loads a time series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	series, err := LoadCSVFromReader(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return series, nil
}

// LoadCSVFromReader loads a time series from an io.Reader.
// Rows with blank or NA values are skipped, as are rows whose date cannot be
// parsed when a date column is present.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}

	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	valueIdx, dateIdx, idIdx := -1, -1, -1

	if opts.HasHeader {
		headers, err := reader.Read()
		if err != nil {
			return nil, err
		}
		for i, h := range headers {
			h = unquote(h)
			switch {
			case h == opts.ValueColumn:
				valueIdx = i
			case opts.DateColumn != "" && h == opts.DateColumn:
				dateIdx = i
			case opts.IDColumn != "" && h == opts.IDColumn:
				idIdx = i
			}
		}
		if valueIdx == -1 {
			return nil, fmt.Errorf("value column %q not found", opts.ValueColumn)
		}
	} else {
		dateIdx = 0
		valueIdx = 1
	}

	var values []float64
	var timestamps []time.Time

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if opts.IDFilter != "" && idIdx >= 0 && idIdx < len(record) {
			if unquote(record[idIdx]) != opts.IDFilter {
				continue
			}
		}

		if valueIdx >= len(record) {
			continue
		}
		val, ok := parseValue(record[valueIdx])
		if !ok {
			continue
		}

		if dateIdx >= 0 && dateIdx < len(record) {
			ts, err := ParseTime(unquote(record[dateIdx]), opts.DateFormat, opts.Location)
			if err != nil {
				continue
			}
			timestamps = append(timestamps, ts)
		}
		values = append(values, val)
	}

	if len(values) == 0 {
		return nil, ErrNoData
	}

	if len(timestamps) == len(values) {
		return &Series{
			Timestamps: timestamps,
			Values:     values,
			Name:       opts.ValueColumn,
		}, nil
	}

	series := New(values)
	series.Name = opts.ValueColumn
	return series, nil
}

// LoadCSVColumn loads a specific column from a CSV file as a series.
func LoadCSVColumn(filename string, column string) (*Series, error) {
	opts := DefaultCSVOptions()
	opts.ValueColumn = column
	return LoadCSV(filename, opts)
}

// ParseTime parses s with the preferred layout first, then DateFormats.
func ParseTime(s, layout string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if layout != "" {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	var lastErr error
	for _, f := range DateFormats {
		ts, err := time.ParseInLocation(f, s, loc)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// SaveCSV saves a time series to a CSV file with ds,y columns.
func SaveCSV(series *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCSV(file, series); err != nil {
		return err
	}
	return file.Close()
}

// WriteCSV writes a time series as ds,y rows.
func WriteCSV(w io.Writer, series *Series) error {
	writer := bufio.NewWriter(w)
	writer.WriteString("ds,y\n")
	for i, v := range series.Values {
		if i < len(series.Timestamps) {
			writer.WriteString(series.Timestamps[i].Format(time.RFC3339))
		}
		writer.WriteString(",")
		writer.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		writer.WriteString("\n")
	}
	return writer.Flush()
}

func unquote(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\""))
}

func parseValue(s string) (float64, bool) {
	s = unquote(s)
	switch s {
	case "", "NA", "NaN", "null":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
