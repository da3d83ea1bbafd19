package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"github.com/cognicore/persistence/internal/logger"
	"github.com/cognicore/persistence/pkg/persistence"
	"github.com/cognicore/persistence/pkg/persistence/config"
	"github.com/cognicore/persistence/pkg/persistence/export"
	"github.com/cognicore/persistence/pkg/persistence/store"
	"github.com/cognicore/persistence/pkg/persistence/store/sqlite"
)

type summary struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	Rows       int                 `json:"rows"`
	Series     []string            `json:"series"`
	Searches   []string            `json:"searches"`
	Degenerate map[string][]string `json:"degenerate,omitempty"`
	Files      []string            `json:"files"`
}

type options struct {
	configPath string
	tdmDir     string
	stmtDir    string
	outDir     string
	window     int
	db         string
	xlsx       string
	lenient    bool
	workers    int
	logLevel   string
	logFormat  string
	listRuns   int
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := pflag.NewFlagSet("persistence", pflag.ContinueOnError)
	fs.StringVarP(&o.configPath, "config", "c", "", "YAML configuration file (defaults reproduce the published analysis)")
	fs.StringVar(&o.tdmDir, "tdm-dir", "", "Directory holding tdm.sparse/words/docs files")
	fs.StringVar(&o.stmtDir, "statements-dir", "", "Directory of cleaned statement texts")
	fs.StringVarP(&o.outDir, "out", "o", "", "Output directory")
	fs.IntVarP(&o.window, "window", "w", 0, "Moving-average window in meetings")
	fs.StringVar(&o.db, "db", "", "Optional SQLite database recording run history")
	fs.StringVar(&o.xlsx, "xlsx", "", "Optional XLSX workbook name written to the output directory")
	fs.BoolVar(&o.lenient, "lenient-idf", false, "Write NaN for terms found in no document instead of failing")
	fs.IntVar(&o.workers, "workers", 0, "Concurrent statement reads (0 = GOMAXPROCS)")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&o.logFormat, "log-format", "", "text or json")
	fs.IntVar(&o.listRuns, "list-runs", 0, "List the N most recent runs from --db and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

// resolveConfig layers flags over the config file over the defaults.
func resolveConfig(o options) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
	}
	if o.tdmDir != "" {
		cfg.TDMDir = o.tdmDir
	}
	if o.stmtDir != "" {
		cfg.StatementsDir = o.stmtDir
	}
	if o.outDir != "" {
		cfg.OutputDir = o.outDir
	}
	if o.window != 0 {
		cfg.Window = o.window
	}
	if o.db != "" {
		cfg.Database = o.db
	}
	if o.xlsx != "" {
		cfg.Outputs.Workbook = o.xlsx
	}
	if o.lenient {
		cfg.LenientIDF = true
	}
	if o.workers != 0 {
		cfg.Workers = o.workers
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, nil
}

func newSummary(rep *persistence.Report, cfg config.Config) summary {
	s := summary{
		RunID:     rep.RunID,
		StartedAt: rep.StartedAt,
		Rows:      rep.Persistence.Len(),
		Series:    rep.Persistence.Labels,
		Files:     rep.Files,
	}
	for _, sr := range cfg.Searches {
		s.Searches = append(s.Searches, sr.Name)
	}
	if len(rep.Degenerate) > 0 {
		s.Degenerate = make(map[string][]string, len(rep.Degenerate))
		for label, dates := range rep.Degenerate {
			for _, d := range dates {
				s.Degenerate[label] = append(s.Degenerate[label], d.Format(export.DateLayout))
			}
		}
	}
	return s
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(o)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.WithComponent("persistence")

	var st store.Store
	if cfg.Database != "" {
		if st, err = sqlite.OpenSQLite(ctx, cfg.Database); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()
	}

	if o.listRuns > 0 {
		if st == nil {
			return fmt.Errorf("--list-runs requires --db")
		}
		runs, err := st.ListRuns(ctx, o.listRuns)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		return printJSON(stdout, runs)
	}

	log.Info("starting run",
		"tdm_dir", cfg.TDMDir,
		"statements_dir", cfg.StatementsDir,
		"output_dir", cfg.OutputDir,
		"window", cfg.Window,
		"parameterizations", len(cfg.Parameterizations),
		"searches", len(cfg.Searches),
	)

	engine := persistence.New(persistence.Options{
		Config: cfg,
		Store:  st,
		Logger: log,
	})
	rep, err := engine.Run(ctx)
	if err != nil {
		return err
	}
	return printJSON(stdout, newSummary(rep, cfg))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("persistence failed", "error", err)
		os.Exit(1)
	}
}
