package workflow

import (
	"context"
	"database/sql"
	"time"

	apperrors "mentormatch/internal/common/errors"
)

// PostgresStore persists executions and activity checkpoints in PostgreSQL.
// Activity results use an upsert keyed by (execution_id, activity) so a
// replayed worker never duplicates a checkpoint.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the store's tables when they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS workflow_executions (
	id           TEXT PRIMARY KEY,
	type         TEXT NOT NULL,
	state        TEXT NOT NULL,
	input        BYTEA,
	result       BYTEA,
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS workflow_activity_results (
	execution_id  TEXT NOT NULL REFERENCES workflow_executions(id),
	activity      TEXT NOT NULL,
	attempts      INT NOT NULL,
	output        BYTEA,
	error_code    TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	recorded_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (execution_id, activity)
);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperrors.NewStoreFailedError(err)
	}
	return nil
}

func (s *PostgresStore) CreateExecution(ctx context.Context, id string, wfType Type, input []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_executions (id, type, state, input, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, string(wfType), string(StateStarted), input, time.Now().UTC())
	if err != nil {
		return apperrors.NewStoreFailedError(err)
	}
	return nil
}

func (s *PostgresStore) UpdateState(ctx context.Context, id string, state State) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflow_executions SET state = $1 WHERE id = $2`,
		string(state), id)
	if err != nil {
		return apperrors.NewStoreFailedError(err)
	}
	return nil
}

func (s *PostgresStore) GetActivityResult(ctx context.Context, executionID, activity string) (*ActivityRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT attempts, output, error_code, error_message, recorded_at
		FROM workflow_activity_results
		WHERE execution_id = $1 AND activity = $2`,
		executionID, activity)

	rec := &ActivityRecord{ExecutionID: executionID, Activity: activity}
	err := row.Scan(&rec.Attempts, &rec.Output, &rec.ErrorCode, &rec.ErrorMessage, &rec.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreFailedError(err)
	}
	return rec, nil
}

func (s *PostgresStore) RecordActivityResult(ctx context.Context, rec *ActivityRecord) error {
	recordedAt := rec.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_activity_results
			(execution_id, activity, attempts, output, error_code, error_message, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (execution_id, activity) DO NOTHING`,
		rec.ExecutionID, rec.Activity, rec.Attempts, rec.Output, rec.ErrorCode, rec.ErrorMessage, recordedAt)
	if err != nil {
		return apperrors.NewStoreFailedError(err)
	}
	return nil
}

func (s *PostgresStore) CompleteExecution(ctx context.Context, id string, state State, result []byte) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflow_executions
		SET state = $1, result = $2, completed_at = $3
		WHERE id = $4`,
		string(state), result, time.Now().UTC(), id)
	if err != nil {
		return apperrors.NewStoreFailedError(err)
	}
	return nil
}

func (s *PostgresStore) ListNonTerminal(ctx context.Context) ([]*Execution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, state, input, result, started_at, completed_at
		FROM workflow_executions
		WHERE state NOT IN ($1, $2)
		ORDER BY started_at`,
		string(StateCompleted), string(StateFailed))
	if err != nil {
		return nil, apperrors.NewStoreFailedError(err)
	}
	defer rows.Close()

	var execs []*Execution
	for rows.Next() {
		exec := &Execution{}
		var wfType, state string
		var completedAt sql.NullTime
		if err := rows.Scan(&exec.ID, &wfType, &state, &exec.Input, &exec.Result, &exec.StartedAt, &completedAt); err != nil {
			return nil, apperrors.NewStoreFailedError(err)
		}
		exec.Type = Type(wfType)
		exec.State = State(state)
		if completedAt.Valid {
			exec.CompletedAt = &completedAt.Time
		}
		execs = append(execs, exec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreFailedError(err)
	}
	return execs, nil
}

func (s *PostgresStore) GetExecution(ctx context.Context, id string) (*Execution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, state, input, result, started_at, completed_at
		FROM workflow_executions WHERE id = $1`, id)

	exec := &Execution{}
	var wfType, state string
	var completedAt sql.NullTime
	err := row.Scan(&exec.ID, &wfType, &state, &exec.Input, &exec.Result, &exec.StartedAt, &completedAt)
	if err != nil {
		return nil, apperrors.NewStoreFailedError(err)
	}
	exec.Type = Type(wfType)
	exec.State = State(state)
	if completedAt.Valid {
		exec.CompletedAt = &completedAt.Time
	}
	return exec, nil
}
