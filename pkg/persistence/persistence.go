// Package persistence measures how much the language of successive policy
// statements changes from one release to the next, and how often chosen
// phrases are used over time.
package persistence

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/persistence/pkg/persistence/config"
	"github.com/cognicore/persistence/pkg/persistence/export"
	"github.com/cognicore/persistence/pkg/persistence/occurrence"
	"github.com/cognicore/persistence/pkg/persistence/series"
	"github.com/cognicore/persistence/pkg/persistence/similarity"
	"github.com/cognicore/persistence/pkg/persistence/store"
	"github.com/cognicore/persistence/pkg/persistence/tdm"
	"github.com/cognicore/persistence/pkg/persistence/weight"
)

// Engine runs the analysis described by a Config.
type Engine struct {
	cfg    config.Config
	store  store.Store
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Options configures an Engine. Store and Logger are optional.
type Options struct {
	Config config.Config
	Store  store.Store
	Logger *slog.Logger
	Now    func() time.Time
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		cfg:     opts.Config,
		store:   opts.Store,
		logger:  logger,
		now:     now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Report is everything one run produced.
type Report struct {
	RunID         string
	StartedAt     time.Time
	Persistence   *series.Table
	MovingAverage *series.Table
	Counts        []occurrence.Result
	// Degenerate lists, per parameterization label, the dates whose score
	// is undefined because a document had an all-zero term vector.
	Degenerate map[string][]time.Time
	Files      []string
}

// Run validates the configuration, computes every output and only then
// writes files and records the run.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	started := e.now()
	rep := &Report{
		RunID:     e.newID(started),
		StartedAt: started,
	}
	logger := e.logger.With("run", rep.RunID)

	table, degenerate, err := e.Persistence(ctx)
	if err != nil {
		return nil, err
	}
	rep.Persistence = table
	rep.Degenerate = degenerate

	if rep.MovingAverage, err = table.MovingAverage(e.cfg.Window); err != nil {
		return nil, err
	}

	if len(e.cfg.Searches) > 0 {
		counter := &occurrence.Counter{
			DateOffset: e.cfg.DateOffset,
			Workers:    e.cfg.Workers,
			Logger:     logger,
		}
		if rep.Counts, err = counter.Run(ctx, e.cfg.StatementsDir, e.cfg.Searches); err != nil {
			return nil, fmt.Errorf("count occurrences: %w", err)
		}
	}

	if err := e.write(rep); err != nil {
		return nil, err
	}
	if e.store != nil {
		if err := e.save(ctx, rep); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	logger.Info("run complete",
		"rows", rep.Persistence.Len(),
		"series", len(rep.Persistence.Labels),
		"searches", len(rep.Counts),
		"files", len(rep.Files),
		"elapsed", e.now().Sub(started),
	)
	return rep, nil
}

// Persistence computes one column per parameterization. Matrices are
// loaded once per file suffix; parameterizations are computed concurrently
// and added to the table in configuration order, so the first one fixes
// the date index.
func (e *Engine) Persistence(ctx context.Context) (*series.Table, map[string][]time.Time, error) {
	params := e.cfg.Parameterizations

	var suffixes []string
	matrices := make(map[string]*tdm.Matrix)
	for _, p := range params {
		if _, ok := matrices[p.Suffix]; !ok {
			matrices[p.Suffix] = nil
			suffixes = append(suffixes, p.Suffix)
		}
	}

	loaded := make([]*tdm.Matrix, len(suffixes))
	g, gctx := errgroup.WithContext(ctx)
	for i, suffix := range suffixes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := tdm.LoadDir(e.cfg.TDMDir, suffix, e.cfg.DateOffset, e.logger)
			if err != nil {
				return fmt.Errorf("load matrix %q: %w", suffix, err)
			}
			loaded[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	for i, suffix := range suffixes {
		matrices[suffix] = loaded[i]
	}

	results := make([]similarity.Series, len(params))
	g, gctx = errgroup.WithContext(ctx)
	for i, p := range params {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := weight.Apply(matrices[p.Suffix], p.IDF, weight.Options{Lenient: e.cfg.LenientIDF})
			if err != nil {
				return fmt.Errorf("parameterization %q: %w", p.Label, err)
			}
			results[i] = similarity.Persistence(m)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	table := series.NewTable()
	degenerate := make(map[string][]time.Time)
	for i, p := range params {
		s := results[i]
		if err := table.Add(p.Label, s.Dates(), s.Scores()); err != nil {
			return nil, nil, err
		}
		for _, idx := range s.Degenerate() {
			degenerate[p.Label] = append(degenerate[p.Label], s[idx].Date)
			e.logger.Warn("undefined persistence score",
				"label", p.Label,
				"doc", s[idx].Doc,
				"date", s[idx].Date.Format(export.DateLayout),
			)
		}
	}
	return table, degenerate, nil
}

func (e *Engine) write(rep *Report) error {
	out := e.cfg.OutputDir
	prec := e.cfg.Outputs.Precision
	var sheets []export.Sheet

	if !rep.Persistence.Empty() {
		files := []struct {
			name  string
			sheet string
			table *series.Table
		}{
			{e.cfg.Outputs.Persistence, "Persistence", rep.Persistence},
			{e.cfg.Outputs.MovingAverage, "Moving Average", rep.MovingAverage},
		}
		for _, f := range files {
			if f.name != "" {
				path := filepath.Join(out, f.name)
				err := export.WriteFile(path, func(w io.Writer) error {
					return export.WriteTable(w, f.table, prec)
				})
				if err != nil {
					return err
				}
				rep.Files = append(rep.Files, path)
			}
			sheets = append(sheets, export.TableSheet(f.sheet, f.table, prec))
		}
	}

	for _, r := range rep.Counts {
		name := e.cfg.Outputs.CountsPrefix + r.Search.Name
		path := filepath.Join(out, name+".csv")
		err := export.WriteFile(path, func(w io.Writer) error {
			return export.WriteCounts(w, r)
		})
		if err != nil {
			return err
		}
		rep.Files = append(rep.Files, path)
		sheets = append(sheets, export.CountsSheet(name, r))
	}

	if wb := e.cfg.Outputs.Workbook; wb != "" && len(sheets) > 0 {
		if !filepath.IsAbs(wb) {
			wb = filepath.Join(out, wb)
		}
		if err := export.WriteWorkbook(wb, sheets); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		rep.Files = append(rep.Files, wb)
	}
	return nil
}

func (e *Engine) save(ctx context.Context, rep *Report) error {
	snapshot, err := yaml.Marshal(e.cfg)
	if err != nil {
		return err
	}
	run := store.Run{
		ID:        rep.RunID,
		StartedAt: rep.StartedAt,
		Window:    e.cfg.Window,
		Config:    string(snapshot),
	}
	for c, label := range rep.Persistence.Labels {
		for i, date := range rep.Persistence.Dates {
			run.Persistence = append(run.Persistence, store.Score{
				Label:         label,
				Position:      i,
				Date:          date,
				Value:         rep.Persistence.Columns[c][i],
				MovingAverage: rep.MovingAverage.Columns[c][i],
			})
		}
	}
	for _, r := range rep.Counts {
		for i, doc := range r.Docs {
			run.Counts = append(run.Counts, store.Count{
				Search:   r.Search.Name,
				Position: i,
				Doc:      doc.Name,
				Date:     doc.Date,
				Count:    r.Counts[i],
			})
		}
	}
	return e.store.SaveRun(ctx, run)
}

func (e *Engine) newID(t time.Time) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), e.entropy).String()
}
