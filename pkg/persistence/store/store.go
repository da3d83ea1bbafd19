package store

import (
	"context"
	"time"
)

// Store keeps the history of analysis runs.
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// Run is the full output of one analysis run.
type Run struct {
	ID          string
	StartedAt   time.Time
	Window      int
	Config      string // YAML snapshot of the configuration used
	Persistence []Score
	Counts      []Count
}

// Score is one persistence table cell with its smoothed value.
// Missing values are NaN.
type Score struct {
	Label         string
	Position      int
	Date          time.Time
	Value         float64
	MovingAverage float64
}

// Count is one document's tally for a search.
type Count struct {
	Search   string
	Position int
	Doc      string
	Date     time.Time
	Count    int
}

// RunSummary describes a stored run without its rows.
type RunSummary struct {
	ID        string
	StartedAt time.Time
	Window    int
	Labels    []string
	Searches  []string
}
