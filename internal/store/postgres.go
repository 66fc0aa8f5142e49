package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/workspacekit/manifest-eval/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Postgres is the shared backend for multi-machine or long-lived result
// collections.
type Postgres struct {
	pool Pool
}

// NewPostgres connects to the database at url and verifies the connection.
func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse postgres url")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping postgres")
	}
	return &Postgres{pool: pool}, nil
}

// Migrate creates the schema if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	selector    TEXT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS trials (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES runs(id),
	scenario_id TEXT NOT NULL,
	variant     TEXT NOT NULL,
	run_index   INTEGER NOT NULL,
	status      TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trials_run ON trials(run_id, scenario_id, variant, run_index);
`
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return eris.Wrap(err, "store: migrate postgres")
	}
	return nil
}

func (p *Postgres) CreateRun(ctx context.Context, selectorName, modelID string) (*model.Run, error) {
	now := time.Now().UTC()
	run := &model.Run{
		ID:        uuid.NewString(),
		Selector:  selectorName,
		Model:     modelID,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO runs (id, selector, model, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Selector, run.Model, run.Status, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "store: insert run")
	}
	return run, nil
}

func (p *Postgres) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), runID)
	if err != nil {
		return eris.Wrap(err, "store: update run status")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: run %s not found", runID)
	}
	return nil
}

func (p *Postgres) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var run model.Run
	err := p.pool.QueryRow(ctx,
		`SELECT id, selector, model, status, created_at, updated_at
		 FROM runs WHERE id = $1`, runID).
		Scan(&run.ID, &run.Selector, &run.Model, &run.Status, &run.CreatedAt, &run.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, eris.Errorf("store: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get run")
	}
	return &run, nil
}

func (p *Postgres) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, selector, model, status, created_at, updated_at FROM runs`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` WHERE status = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`
	query, args = appendLimitOffsetPG(query, args, filter.Limit, filter.Offset)

	rows, err := p.pool.Query(ctx, query, args...)
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

// AppendTrials writes a batch of trial results. Each insert is a single
// statement; pgx pipelines them over one round trip per batch in practice.
func (p *Postgres) AppendTrials(ctx context.Context, runID string, trials []model.TrialResult) error {
	for _, t := range trials {
		payload, err := json.Marshal(t)
		if err != nil {
			return eris.Wrapf(err, "store: marshal trial %s/%s", t.ScenarioID, t.Variant)
		}
		_, err = p.pool.Exec(ctx,
			`INSERT INTO trials (run_id, scenario_id, variant, run_index, status, payload, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, t.ScenarioID, t.Variant, t.RunIndex, t.Status, payload, t.Timestamp.UTC())
		if err != nil {
			return eris.Wrapf(err, "store: insert trial %s/%s", t.ScenarioID, t.Variant)
		}
	}
	return nil
}

func (p *Postgres) ListTrials(ctx context.Context, filter TrialFilter) ([]model.TrialResult, error) {
	query := `SELECT payload FROM trials`
	var conds []string
	var args []any
	if filter.RunID != "" {
		args = append(args, filter.RunID)
		conds = append(conds, fmt.Sprintf(`run_id = $%d`, len(args)))
	}
	if filter.ScenarioID != "" {
		args = append(args, filter.ScenarioID)
		conds = append(conds, fmt.Sprintf(`scenario_id = $%d`, len(args)))
	}
	if filter.Variant != "" {
		args = append(args, filter.Variant)
		conds = append(conds, fmt.Sprintf(`variant = $%d`, len(args)))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY scenario_id, variant, run_index`
	query, args = appendLimitOffsetPG(query, args, filter.Limit, filter.Offset)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list trials")
	}
	defer rows.Close()

	var trials []model.TrialResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "store: scan trial")
		}
		var t model.TrialResult
		if err := json.Unmarshal(payload, &t); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal trial")
		}
		trials = append(trials, t)
	}
	return trials, eris.Wrap(rows.Err(), "store: list trials")
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func appendLimitOffsetPG(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
		if offset > 0 {
			args = append(args, offset)
			query += fmt.Sprintf(` OFFSET $%d`, len(args))
		}
	}
	return query, args
}
