package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/workspacekit/manifest-eval/internal/model"
)

// SQLite is the zero-dependency local backend, suited to single-machine
// evaluation runs.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open sqlite %s", path)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: %s", p)
		}
	}

	return &SQLite{db: db}, nil
}

// Migrate creates the schema if it does not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	selector    TEXT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS trials (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	scenario_id TEXT NOT NULL,
	variant     TEXT NOT NULL,
	run_index   INTEGER NOT NULL,
	status      TEXT NOT NULL,
	payload     TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trials_run ON trials(run_id, scenario_id, variant, run_index);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return eris.Wrap(err, "store: migrate sqlite")
	}
	return nil
}

func (s *SQLite) CreateRun(ctx context.Context, selectorName, modelID string) (*model.Run, error) {
	now := time.Now().UTC()
	run := &model.Run{
		ID:        uuid.NewString(),
		Selector:  selectorName,
		Model:     modelID,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, selector, model, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Selector, run.Model, run.Status, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run")
	}
	return run, nil
}

func (s *SQLite) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrap(err, "store: update run status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: update run status rows")
	}
	if n == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

func (s *SQLite) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	err := s.db.QueryRowContext(ctx,
		`SELECT id, selector, model, status, created_at, updated_at
		 FROM runs WHERE id = ?`, runID).
		Scan(&run.ID, &run.Selector, &run.Model, &run.Status, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("store: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get run")
	}
	return &run, nil
}

func (s *SQLite) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, selector, model, status, created_at, updated_at FROM runs`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC`
	query, args = appendLimitOffset(query, args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		if err := rows.Scan(&run.ID, &run.Selector, &run.Model, &run.Status,
			&run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "store: list runs")
}

// AppendTrials writes a batch of trial results inside one transaction.
func (s *SQLite) AppendTrials(ctx context.Context, runID string, trials []model.TrialResult) error {
	if len(trials) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin append trials")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trials (run_id, scenario_id, variant, run_index, status, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "store: prepare append trials")
	}
	defer stmt.Close()

	for _, t := range trials {
		payload, err := json.Marshal(t)
		if err != nil {
			return eris.Wrapf(err, "store: marshal trial %s/%s", t.ScenarioID, t.Variant)
		}
		if _, err := stmt.ExecContext(ctx,
			runID, t.ScenarioID, t.Variant, t.RunIndex, t.Status, string(payload), t.Timestamp.UTC()); err != nil {
			return eris.Wrapf(err, "store: insert trial %s/%s", t.ScenarioID, t.Variant)
		}
	}
	return eris.Wrap(tx.Commit(), "store: commit append trials")
}

func (s *SQLite) ListTrials(ctx context.Context, filter TrialFilter) ([]model.TrialResult, error) {
	query := `SELECT payload FROM trials`
	var conds []string
	var args []any
	if filter.RunID != "" {
		conds = append(conds, `run_id = ?`)
		args = append(args, filter.RunID)
	}
	if filter.ScenarioID != "" {
		conds = append(conds, `scenario_id = ?`)
		args = append(args, filter.ScenarioID)
	}
	if filter.Variant != "" {
		conds = append(conds, `variant = ?`)
		args = append(args, filter.Variant)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY scenario_id, variant, run_index`
	query, args = appendLimitOffset(query, args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list trials")
	}
	defer rows.Close()

	var trials []model.TrialResult
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "store: scan trial")
		}
		var t model.TrialResult
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal trial")
		}
		trials = append(trials, t)
	}
	return trials, eris.Wrap(rows.Err(), "store: list trials")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// appendLimitOffset appends paging clauses. An offset only applies when a
// limit is set; callers page with both or neither.
func appendLimitOffset(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
		if offset > 0 {
			query += ` OFFSET ?`
			args = append(args, offset)
		}
	}
	return query, args
}
