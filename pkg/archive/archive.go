// Package archive persists audit runs to SQLite so results can be compared
// across survey sessions.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kass/go-geo-audit/pkg/models"
	"github.com/kass/go-geo-audit/pkg/stats"
)

// ErrRunNotFound is returned for an unknown run ID
var ErrRunNotFound = errors.New("audit run not found")

// timeLayout is fixed width in UTC so started_at sorts chronologically as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
	CREATE TABLE IF NOT EXISTS audit_runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		source TEXT NOT NULL,
		total INTEGER NOT NULL,
		scored INTEGER NOT NULL,
		p_horizontal REAL NOT NULL,
		p_vertical REAL NOT NULL,
		fail_rate REAL NOT NULL,
		summary_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_records (
		run_id TEXT NOT NULL REFERENCES audit_runs(run_id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		point_id TEXT NOT NULL,
		device TEXT,
		tech TEXT,
		floor TEXT,
		horizontal_error REAL,
		vertical_error REAL,
		status TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_audit_records_point ON audit_records(point_id);
`

// Run is one archived audit
type Run struct {
	ID        string
	StartedAt time.Time
	Source    string
	Summary   stats.Summary
	Records   []models.ScoredRecord
}

// RunInfo is the listing view of an archived run
type RunInfo struct {
	ID                   string
	StartedAt            time.Time
	Source               string
	Total                int
	Scored               int
	HorizontalPercentile float64
	VerticalPercentile   float64
	FailRate             float64
}

// RecordRow is an archived per-record outcome
type RecordRow struct {
	Seq             int
	PointID         string
	Device          string
	Tech            string
	Floor           string
	HorizontalError *float64
	VerticalError   *float64
	Status          stats.Outcome
}

// Archive is an SQLite audit run store
type Archive struct {
	db *sql.DB
}

// Open opens or creates the archive at path
func Open(ctx context.Context, path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	// a single connection keeps ":memory:" archives on one database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// SaveRun stores the run summary and its per-record outcomes in one transaction
func (a *Archive) SaveRun(ctx context.Context, run Run) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	s := run.Summary
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO audit_runs (run_id, started_at, source, total, scored, p_horizontal, p_vertical, fail_rate, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(timeLayout), run.Source,
		s.Total, s.Scored, s.HorizontalPercentile, s.VerticalPercentile, s.FailRate, string(summaryJSON),
	); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO audit_records (run_id, seq, point_id, device, tech, floor, horizontal_error, vertical_error, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range run.Records {
		outcome := stats.Classify(r, s.Thresholds).Outcome()
		if _, err := stmt.ExecContext(ctx, run.ID, i, r.PointID, r.Device, r.Tech, r.Floor,
			nullable(r.HorizontalErrorMeters), nullable(r.VerticalErrorMeters), string(outcome)); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Runs lists archived runs, newest first; limit <= 0 returns all
func (a *Archive) Runs(ctx context.Context, limit int) ([]RunInfo, error) {
	query := `SELECT run_id, started_at, source, total, scored, p_horizontal, p_vertical, fail_rate
		FROM audit_runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			started string
		)
		if err := rows.Scan(&info.ID, &started, &info.Source, &info.Total, &info.Scored,
			&info.HorizontalPercentile, &info.VerticalPercentile, &info.FailRate); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if info.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("failed to parse run time %q: %w", started, err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// Summary returns the stored summary of a run
func (a *Archive) Summary(ctx context.Context, runID string) (stats.Summary, error) {
	var (
		s   stats.Summary
		raw string
	)
	err := a.db.QueryRowContext(ctx, `SELECT summary_json FROM audit_runs WHERE run_id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return s, fmt.Errorf("failed to read run %s: %w", runID, err)
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return s, fmt.Errorf("failed to decode summary of %s: %w", runID, err)
	}
	return s, nil
}

// Records returns the archived outcomes of a run in their original order
func (a *Archive) Records(ctx context.Context, runID string) ([]RecordRow, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT seq, point_id, device, tech, floor, horizontal_error, vertical_error, status
		FROM audit_records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []RecordRow
	for rows.Next() {
		var (
			r      RecordRow
			h, v   sql.NullFloat64
			status string
		)
		if err := rows.Scan(&r.Seq, &r.PointID, &r.Device, &r.Tech, &r.Floor, &h, &v, &status); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if h.Valid {
			r.HorizontalError = &h.Float64
		}
		if v.Valid {
			r.VerticalError = &v.Float64
		}
		r.Status = stats.Outcome(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the archive
func (a *Archive) Close() error {
	return a.db.Close()
}
