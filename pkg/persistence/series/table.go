// Package series assembles persistence scores from several
// parameterizations into one date-indexed table and smooths it.
package series

import (
	"math"
	"time"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
)

// DefaultWindow is the trailing moving-average length used in the
// published figures (eight meetings, roughly one year).
const DefaultWindow = 8

// Table is a date-indexed set of named columns. Missing values are NaN.
type Table struct {
	Dates   []time.Time
	Labels  []string
	Columns [][]float64
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Dates) }

// Empty reports whether no column has been added yet.
func (t *Table) Empty() bool { return len(t.Labels) == 0 }

// Add appends a column. The first column fixes the date index; later
// columns are aligned to it by position, so every series must come from
// the same documents in the same order. A repeated label or a series of a
// different length is a configuration error.
func (t *Table) Add(label string, dates []time.Time, values []float64) error {
	if len(dates) != len(values) {
		return internalerr.Config("series %q: %d dates for %d values", label, len(dates), len(values))
	}
	if t.Column(label) != nil {
		return internalerr.Config("duplicate series label %q", label)
	}
	if t.Empty() {
		t.Dates = append([]time.Time(nil), dates...)
	} else if len(values) != len(t.Dates) {
		return internalerr.Config("series %q has %d values, table has %d rows (mismatched corpus)", label, len(values), len(t.Dates))
	}
	t.Labels = append(t.Labels, label)
	t.Columns = append(t.Columns, append([]float64(nil), values...))
	return nil
}

// Column returns the values of the named column, or nil.
func (t *Table) Column(label string) []float64 {
	for i, l := range t.Labels {
		if l == label {
			return t.Columns[i]
		}
	}
	return nil
}

// Row returns the values of row i across all columns.
func (t *Table) Row(i int) []float64 {
	row := make([]float64, len(t.Columns))
	for c, col := range t.Columns {
		row[c] = col[i]
	}
	return row
}

// MovingAverage derives a new table whose columns are the trailing
// window-length means of the receiver's columns.
func (t *Table) MovingAverage(window int) (*Table, error) {
	if window < 1 {
		return nil, internalerr.Config("moving average window must be positive, got %d", window)
	}
	out := &Table{
		Dates:   append([]time.Time(nil), t.Dates...),
		Labels:  append([]string(nil), t.Labels...),
		Columns: make([][]float64, len(t.Columns)),
	}
	for i, col := range t.Columns {
		out.Columns[i] = MovingAverage(col, window)
	}
	return out, nil
}

// MovingAverage returns out[i] = mean(values[i-window+1 .. i]) for
// i >= window-1 and NaN before the window fills. A NaN inside the window
// makes that output NaN. window must be positive.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	nan := 0
	for i, v := range values {
		if math.IsNaN(v) {
			nan++
		} else {
			sum += v
		}
		if i >= window {
			old := values[i-window]
			if math.IsNaN(old) {
				nan--
			} else {
				sum -= old
			}
		}
		if i < window-1 || nan > 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(window)
	}
	return out
}
