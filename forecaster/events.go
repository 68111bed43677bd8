package forecaster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sartorproj/goforecast/timeseries"
)

type window struct {
	from, to time.Time // [from, to)
}

// eventSet indexes event windows by label.
type eventSet struct {
	labels  []string // sorted
	windows map[string][]window
}

func newEventSet(events []Event, unit time.Duration) *eventSet {
	es := &eventSet{windows: make(map[string][]window)}
	for _, e := range events {
		w := window{
			from: e.Date.Add(time.Duration(e.LowerWindow) * unit),
			to:   e.Date.Add(time.Duration(e.UpperWindow+1) * unit),
		}
		if _, ok := es.windows[e.Label]; !ok {
			es.labels = append(es.labels, e.Label)
		}
		es.windows[e.Label] = append(es.windows[e.Label], w)
	}
	sort.Strings(es.labels)
	return es
}

// covers reports whether any event of label is active at t.
func (es *eventSet) covers(label string, t time.Time) bool {
	for _, w := range es.windows[label] {
		if !t.Before(w.from) && t.Before(w.to) {
			return true
		}
	}
	return false
}

// active returns the labels active at t, in label order.
func (es *eventSet) active(t time.Time) []string {
	var out []string
	for _, l := range es.labels {
		if es.covers(l, t) {
			out = append(out, l)
		}
	}
	return out
}

// partition splits labels into those covering at least one of the
// timestamps and those covering none.
func (es *eventSet) partition(timestamps []time.Time) (observed, unobserved []string) {
	for _, l := range es.labels {
		seen := false
		for _, t := range timestamps {
			if es.covers(l, t) {
				seen = true
				break
			}
		}
		if seen {
			observed = append(observed, l)
		} else {
			unobserved = append(unobserved, l)
		}
	}
	return observed, unobserved
}

// LoadEventsCSV reads events from a CSV file with a header containing
// ds and holiday columns and optional lower_window and upper_window columns.
func LoadEventsCSV(filename string) ([]Event, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	events, err := ReadEventsCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return events, nil
}

// ReadEventsCSV reads events from r. Dates are parsed in UTC with the layouts
// accepted by timeseries.ParseTime.
func ReadEventsCSV(r io.Reader) ([]Event, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	dateIdx, labelIdx, lowerIdx, upperIdx := -1, -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "ds":
			dateIdx = i
		case "holiday":
			labelIdx = i
		case "lower_window":
			lowerIdx = i
		case "upper_window":
			upperIdx = i
		}
	}
	if dateIdx < 0 || labelIdx < 0 {
		return nil, errors.New("events CSV needs ds and holiday columns")
	}

	var events []Event
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		date, err := timeseries.ParseTime(strings.TrimSpace(record[dateIdx]), "", time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		e := Event{Date: date, Label: strings.TrimSpace(record[labelIdx])}
		if e.LowerWindow, err = windowField(record, lowerIdx); err != nil {
			return nil, fmt.Errorf("line %d: lower_window: %w", line, err)
		}
		if e.UpperWindow, err = windowField(record, upperIdx); err != nil {
			return nil, fmt.Errorf("line %d: upper_window: %w", line, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func windowField(record []string, idx int) (int, error) {
	if idx < 0 || idx >= len(record) {
		return 0, nil
	}
	s := strings.TrimSpace(record[idx])
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
