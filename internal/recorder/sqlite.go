package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"PremarketScanner/internal/logger"
	"PremarketScanner/internal/model"
)

// SQLiteRecorder persists the scan-run journal to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			requested   INTEGER,
			analyzed    INTEGER,
			failed      INTEGER,
			top_symbols TEXT,
			delivered   INTEGER,
			note        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS scan_failures (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL REFERENCES scan_runs(id),
			symbol  TEXT NOT NULL,
			reason  TEXT NOT NULL,
			detail  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON scan_failures(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores run and its failures in one transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `INSERT INTO scan_runs
		(id, kind, started_at, finished_at, requested, analyzed, failed, top_symbols, delivered, note)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.ID, run.Kind, run.Started.UnixMilli(), run.Finished.UnixMilli(),
		run.Requested, run.Analyzed, len(run.Failures),
		strings.Join(run.TopSymbols, ","), run.Delivered, run.Note,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range run.Failures {
		if _, err := tx.ExecContext(ctx, `INSERT INTO scan_failures (run_id, symbol, reason, detail) VALUES (?,?,?,?)`,
			run.ID, f.Symbol, f.Reason, f.Detail); err != nil {
			return fmt.Errorf("insert failure: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the latest runs, newest first, with their failures.
func (r *SQLiteRecorder) RecentRuns(ctx context.Context, limit int) ([]ScanRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, kind, started_at, finished_at, requested, analyzed,
		top_symbols, delivered, note FROM scan_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var (
			run             ScanRun
			started, finish int64
			top             string
		)
		if err := rows.Scan(&run.ID, &run.Kind, &started, &finish, &run.Requested, &run.Analyzed,
			&top, &run.Delivered, &run.Note); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Started, run.Finished = time.UnixMilli(started), time.UnixMilli(finish)
		if top != "" {
			run.TopSymbols = strings.Split(top, ",")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		failures, err := r.failures(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Failures = failures
	}
	return runs, nil
}

func (r *SQLiteRecorder) failures(ctx context.Context, runID string) ([]model.SymbolError, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, reason, detail FROM scan_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []model.SymbolError
	for rows.Next() {
		var f model.SymbolError
		if err := rows.Scan(&f.Symbol, &f.Reason, &f.Detail); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
