// Package timeseries provides time series data structures and utilities.
//
// A Series pairs observation timestamps with values. Forecasting code
// expects timestamps sorted ascending; Sorted and DropNaN produce a clean copy
// from raw input.
//
// # Creating a Series
//
// Create a daily series from a slice, or supply explicit timestamps:
//
//	series := timeseries.New([]float64{100, 102, 105, 103, 108, 110})
//	series := timeseries.NewDaily(start, values)
//	series, err := timeseries.NewWithTimestamps(times, values)
//
// # Loading from CSV
//
// The default layout is a header row with "ds" (date) and "y" (value)
// columns. Rows with NA or blank values are skipped:
//
//	series, err := timeseries.LoadCSV("data.csv", nil)
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumn = "cnt"
//	opts.IDColumn = "station"
//	opts.IDFilter = "A"
//	series, err := timeseries.LoadCSVFromReader(reader, opts)
//
// # Future Timestamps
//
// MakeFuture extends a series with evenly spaced query times:
//
//	future := series.MakeFuture(30, 24*time.Hour, true)
package timeseries
