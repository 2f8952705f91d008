// Package sqlite archives genuine reports so recent results survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	title         TEXT NOT NULL,
	report_date   TEXT NOT NULL,
	payload       TEXT NOT NULL,
	run_id        TEXT NOT NULL,
	first_seen_at TEXT NOT NULL,
	last_seen_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_date ON reports(report_date DESC);
`

// Archive is a single-file report store.
type Archive struct {
	db *sql.DB
}

// Open creates the database file and its directory when missing.
func Open(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveReports upserts reports by ID. The first sighting of a report is kept;
// later sightings only refresh last_seen_at and the run that saw it.
func (a *Archive) SaveReports(ctx context.Context, runID string, reports []domain.Report) error {
	if len(reports) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reports (id, source, title, report_date, payload, run_id, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			last_seen_at = excluded.last_seen_at`)
	if err != nil {
		return fmt.Errorf("prepare report upsert: %w", err)
	}
	defer stmt.Close()

	seen := domain.Now().UTC().Format(time.RFC3339Nano)
	for _, r := range reports {
		r.DistanceMeters = nil
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode report %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, string(r.Source), r.Title, r.Date.UTC().Format(time.RFC3339Nano),
			string(payload), runID, seen, seen,
		); err != nil {
			return fmt.Errorf("upsert report %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

// ArchivedReport is a stored report with its bookkeeping timestamps.
type ArchivedReport struct {
	domain.Report
	RunID       string    `json:"run_id"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Recent returns up to limit archived reports, newest report date first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]ArchivedReport, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT payload, run_id, first_seen_at, last_seen_at
		FROM reports
		ORDER BY report_date DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	defer rows.Close()

	out := []ArchivedReport{}
	for rows.Next() {
		var payload, first, last string
		var ar ArchivedReport
		if err := rows.Scan(&payload, &ar.RunID, &first, &last); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &ar.Report); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		if ar.FirstSeenAt, err = time.Parse(time.RFC3339Nano, first); err != nil {
			return nil, fmt.Errorf("parse first_seen_at: %w", err)
		}
		if ar.LastSeenAt, err = time.Parse(time.RFC3339Nano, last); err != nil {
			return nil, fmt.Errorf("parse last_seen_at: %w", err)
		}
		out = append(out, ar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}
