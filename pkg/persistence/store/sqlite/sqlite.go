package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
	"github.com/cognicore/persistence/pkg/persistence/store"
)

const (
	dateLayout = "2006-01-02"
	// fixed-width so started_at sorts as text
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	ma_window INTEGER NOT NULL,
	config TEXT
);

CREATE TABLE IF NOT EXISTS persistence (
	run_id TEXT NOT NULL,
	label TEXT NOT NULL,
	position INTEGER NOT NULL,
	date TEXT NOT NULL,
	value REAL,
	moving_average REAL,
	PRIMARY KEY(run_id, label, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS counts (
	run_id TEXT NOT NULL,
	search TEXT NOT NULL,
	position INTEGER NOT NULL,
	doc TEXT NOT NULL,
	date TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY(run_id, search, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores a run and all its rows in one transaction. Saving a run
// with an existing ID replaces it.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: run id is required", internalerr.ErrMalformedInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// foreign_keys is per connection, so children are cleared explicitly
	for _, q := range []string{
		`DELETE FROM persistence WHERE run_id=?`,
		`DELETE FROM counts WHERE run_id=?`,
		`DELETE FROM runs WHERE id=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, r.ID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ma_window, config) VALUES (?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(timeLayout), r.Window, r.Config,
	); err != nil {
		return err
	}

	if err := insertScores(ctx, tx, r.ID, r.Persistence); err != nil {
		return err
	}
	if err := insertCounts(ctx, tx, r.ID, r.Counts); err != nil {
		return err
	}

	return tx.Commit()
}

func insertScores(ctx context.Context, tx *sql.Tx, runID string, scores []store.Score) error {
	if len(scores) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO persistence (run_id, label, position, date, value, moving_average)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, sc := range scores {
		if _, err := stmt.ExecContext(ctx,
			runID, sc.Label, sc.Position, sc.Date.Format(dateLayout),
			nullable(sc.Value), nullable(sc.MovingAverage),
		); err != nil {
			return err
		}
	}
	return nil
}

func insertCounts(ctx context.Context, tx *sql.Tx, runID string, counts []store.Count) error {
	if len(counts) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO counts (run_id, search, position, doc, date, count)
VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range counts {
		if _, err := stmt.ExecContext(ctx,
			runID, c.Search, c.Position, c.Doc, c.Date.Format(dateLayout), c.Count,
		); err != nil {
			return err
		}
	}
	return nil
}

// GetRun loads a run with all of its rows.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	var (
		r       store.Run
		started string
		cfg     sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, ma_window, config FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &started, &r.Window, &cfg)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return store.Run{}, err
	}
	r.Config = cfg.String

	if r.Persistence, err = s.loadScores(ctx, id); err != nil {
		return store.Run{}, err
	}
	if r.Counts, err = s.loadCounts(ctx, id); err != nil {
		return store.Run{}, err
	}
	return r, nil
}

func (s *sqliteStore) loadScores(ctx context.Context, runID string) ([]store.Score, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT p.label, p.position, p.date, p.value, p.moving_average
FROM persistence p
WHERE p.run_id = ?
ORDER BY p.rowid;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Score
	for rows.Next() {
		var (
			sc     store.Score
			date   string
			value  sql.NullFloat64
			moving sql.NullFloat64
		)
		if err := rows.Scan(&sc.Label, &sc.Position, &date, &value, &moving); err != nil {
			return nil, err
		}
		if sc.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, err
		}
		sc.Value = fromNullable(value)
		sc.MovingAverage = fromNullable(moving)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *sqliteStore) loadCounts(ctx context.Context, runID string) ([]store.Count, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT search, position, doc, date, count
FROM counts
WHERE run_id = ?
ORDER BY rowid;`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Count
	for rows.Next() {
		var (
			c    store.Count
			date string
		)
		if err := rows.Scan(&c.Search, &c.Position, &c.Doc, &date, &c.Count); err != nil {
			return nil, err
		}
		if c.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListRuns returns the most recent runs first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, ma_window
FROM runs
ORDER BY started_at DESC, id DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}

	var out []store.RunSummary
	for rows.Next() {
		var (
			rs      store.RunSummary
			started string
		)
		if err := rows.Scan(&rs.ID, &started, &rs.Window); err != nil {
			rows.Close()
			return nil, err
		}
		if rs.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		if out[i].Labels, err = s.distinct(ctx, `SELECT DISTINCT label FROM persistence WHERE run_id = ? ORDER BY label`, out[i].ID); err != nil {
			return nil, err
		}
		if out[i].Searches, err = s.distinct(ctx, `SELECT DISTINCT search FROM counts WHERE run_id = ? ORDER BY search`, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *sqliteStore) distinct(ctx context.Context, query, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
