// Package store persists run metadata and decisions in SQLite, so a long
// generation run can be resumed after being killed: its positive_set,
// negative_set, and muc_set are reloaded from the decisions table before
// sampling any further root subsets.
//
// CSV output (internal/output) remains the mandatory interface; the store
// is optional and only engaged when the CLI is given --db.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection with the runs/decisions schema applied.
type DB struct {
	db *sql.DB
}

// migrations is applied in order on every Open; each statement is
// idempotent (CREATE TABLE/INDEX IF NOT EXISTS) so re-running them against
// an existing database is a no-op.
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                 TEXT PRIMARY KEY,
			seed               INTEGER NOT NULL,
			num_processors     INTEGER NOT NULL,
			num_tasks          INTEGER NOT NULL,
			max_hyperedge_size INTEGER NOT NULL,
			num_samples        INTEGER NOT NULL,
			implicit_deadline  INTEGER NOT NULL,
			truncated_lcm      INTEGER NOT NULL,
			started_at         TEXT NOT NULL,
			finished_at        TEXT,
			positive_count     INTEGER NOT NULL DEFAULT 0,
			negative_count     INTEGER NOT NULL DEFAULT 0,
			muc_count          INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			run_id     TEXT NOT NULL REFERENCES runs(id),
			subset     TEXT NOT NULL,
			verdict    INTEGER NOT NULL,
			is_muc     INTEGER NOT NULL DEFAULT 0,
			decided_at TEXT NOT NULL,
			PRIMARY KEY (run_id, subset)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_run_verdict ON decisions(run_id, verdict)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_run_muc ON decisions(run_id, is_muc)`,
	}
}

// Open creates or opens a SQLite database at path and applies migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1) // modernc.org/sqlite: serialize writers

	db := &DB{db: sqlDB}
	for _, stmt := range migrations() {
		if _, err := sqlDB.Exec(stmt); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply migration: %w", err)
		}
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.db.Close() }

// RunParams describes the parameters a run is started with, persisted in
// the runs table's row at creation time.
type RunParams struct {
	ID               string
	Seed             int64
	NumProcessors    int
	NumTasks         int
	MaxHyperedgeSize int
	NumSamples       int
	ImplicitDeadline bool
	TruncatedLCM     int64
}

// InsertRun records a new run's starting parameters.
func (db *DB) InsertRun(p RunParams) error {
	implicit := 0
	if p.ImplicitDeadline {
		implicit = 1
	}
	_, err := db.db.Exec(`
		INSERT INTO runs (id, seed, num_processors, num_tasks, max_hyperedge_size, num_samples, implicit_deadline, truncated_lcm, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Seed, p.NumProcessors, p.NumTasks, p.MaxHyperedgeSize, p.NumSamples, implicit, p.TruncatedLCM, time.Now().UTC().Format(time.RFC3339))
	return err
}

// FinishRun stamps a run as complete and records its final set sizes.
func (db *DB) FinishRun(runID string, positiveCount, negativeCount, mucCount int) error {
	_, err := db.db.Exec(`
		UPDATE runs SET finished_at = ?, positive_count = ?, negative_count = ?, muc_count = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), positiveCount, negativeCount, mucCount, runID)
	return err
}

// RecordDecision upserts one subset's verdict for a run. Re-recording the
// same (runID, subset) overwrites that row's verdict, is_muc and decided_at
// instead of adding a row, so a resumed run never duplicates a subset.
func (db *DB) RecordDecision(runID, subset string, verdict, isMUC bool) error {
	verdictInt, mucInt := 0, 0
	if verdict {
		verdictInt = 1
	}
	if isMUC {
		mucInt = 1
	}
	_, err := db.db.Exec(`
		INSERT INTO decisions (run_id, subset, verdict, is_muc, decided_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, subset) DO UPDATE SET
			verdict    = excluded.verdict,
			is_muc     = excluded.is_muc,
			decided_at = excluded.decided_at
	`, runID, subset, verdictInt, mucInt, time.Now().UTC().Format(time.RFC3339))
	return err
}

// RunRecorder binds a DB to one run id, implementing search.DecisionRecorder
// by delegating to RecordDecision. Returned as a concrete type rather than
// store importing search's interface, so search never needs to import
// store — the dependency points one way, store down to domain-free SQL,
// search up through the interface its own package declares.
type RunRecorder struct {
	db    *DB
	runID string
}

// RecordDecision persists one subset verdict for the bound run.
func (r *RunRecorder) RecordDecision(subset string, verdict, isMUC bool) error {
	return r.db.RecordDecision(r.runID, subset, verdict, isMUC)
}

// Recorder returns a RunRecorder bound to runID, ready to hand to
// search.Engine.SetRecorder.
func (db *DB) Recorder(runID string) *RunRecorder {
	return &RunRecorder{db: db, runID: runID}
}

// Decision is one previously recorded subset verdict, keyed by its
// canonical "0,2,5" subset encoding.
type Decision struct {
	Subset  string
	Verdict bool
	IsMUC   bool
}

// LoadDecisions returns every decision recorded for runID, for reseeding a
// search Engine's positive_set/negative_set/muc_set when resuming.
func (db *DB) LoadDecisions(runID string) ([]Decision, error) {
	rows, err := db.db.Query(`
		SELECT subset, verdict, is_muc FROM decisions WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var verdictInt, mucInt int
		if err := rows.Scan(&d.Subset, &verdictInt, &mucInt); err != nil {
			return nil, err
		}
		d.Verdict = verdictInt == 1
		d.IsMUC = mucInt == 1
		out = append(out, d)
	}
	return out, rows.Err()
}

// RunSummary is the subset of a runs row needed to report/resume it.
type RunSummary struct {
	ID               string
	Seed             int64
	NumProcessors    int
	NumTasks         int
	MaxHyperedgeSize int
	NumSamples       int
	ImplicitDeadline bool
	TruncatedLCM     int64
	StartedAt        time.Time
	FinishedAt       *time.Time
	PositiveCount    int
	NegativeCount    int
	MUCCount         int
}

// GetRun retrieves a run's summary, or nil if runID is unknown.
func (db *DB) GetRun(runID string) (*RunSummary, error) {
	var r RunSummary
	var implicit int
	var startedStr string
	var finishedStr sql.NullString

	err := db.db.QueryRow(`
		SELECT id, seed, num_processors, num_tasks, max_hyperedge_size, num_samples,
		       implicit_deadline, truncated_lcm, started_at, finished_at,
		       positive_count, negative_count, muc_count
		FROM runs WHERE id = ?
	`, runID).Scan(&r.ID, &r.Seed, &r.NumProcessors, &r.NumTasks, &r.MaxHyperedgeSize, &r.NumSamples,
		&implicit, &r.TruncatedLCM, &startedStr, &finishedStr,
		&r.PositiveCount, &r.NegativeCount, &r.MUCCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.ImplicitDeadline = implicit == 1
	r.StartedAt, _ = time.Parse(time.RFC3339, startedStr)
	if finishedStr.Valid {
		t, _ := time.Parse(time.RFC3339, finishedStr.String)
		r.FinishedAt = &t
	}
	return &r, nil
}
