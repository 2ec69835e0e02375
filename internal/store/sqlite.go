package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/comps-finder/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS comparables (
	id       TEXT PRIMARY KEY,
	run_id   TEXT NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,
	name     TEXT NOT NULL,
	score    REAL NOT NULL,
	record   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS provenance (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL REFERENCES runs(id),
	candidate_name TEXT NOT NULL,
	field          TEXT NOT NULL,
	value          TEXT NOT NULL,
	source_url     TEXT NOT NULL,
	recorded_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS drops (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL REFERENCES runs(id),
	candidate_name TEXT NOT NULL,
	stage          TEXT NOT NULL,
	reason         TEXT NOT NULL,
	score          REAL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_comparables_run_id ON comparables(run_id);
CREATE INDEX IF NOT EXISTS idx_provenance_run_id ON provenance(run_id);
CREATE INDEX IF NOT EXISTS idx_drops_run_id ON drops(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, target model.TargetInput) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	targetJSON, err := json.Marshal(target)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal target")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, target, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(targetJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Target:    target,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	return s.finishRun(ctx, runID, model.RunStatusComplete, result)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, runErr string) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, &model.RunResult{Error: runErr})
}

func (s *SQLiteStore) finishRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, target, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, target, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.TargetName != "" {
		query += ` AND json_extract(target, '$.name') = ?`
		args = append(args, filter.TargetName)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveComparables(ctx context.Context, runID string, comparables []model.ScoredCandidate) error {
	for i, c := range comparables {
		recordJSON, err := json.Marshal(c)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal comparable")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO comparables (id, run_id, position, name, score, record) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, i+1, c.Name, c.ValidationScore, string(recordJSON),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert comparable %s", c.Name)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveProvenance(ctx context.Context, runID string, entries []model.ProvenanceEntry) error {
	for _, e := range entries {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO provenance (id, run_id, candidate_name, field, value, source_url, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, e.CandidateName, e.Field, e.Value, e.SourceURL, e.Timestamp,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert provenance")
		}
	}
	return nil
}

func (s *SQLiteStore) SaveDrops(ctx context.Context, runID string, drops []model.DropRecord) error {
	for _, d := range drops {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO drops (id, run_id, candidate_name, stage, reason, score) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, d.CandidateName, string(d.Stage), d.Reason, d.Score,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert drop")
		}
	}
	return nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var targetJSON string
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &targetJSON, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(targetJSON), &r.Target); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal target")
	}
	if resultJSON.Valid {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}
