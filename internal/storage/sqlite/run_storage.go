package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// RunStorage implements SQLite persistence for pipeline runs
type RunStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewRunStorage creates a new run storage instance
func NewRunStorage(db *SQLiteDB, logger arbor.ILogger) *RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// runCriteriaEnvelope is the serialised run_roles criteria blob, carrying the
// query modes alongside the search criteria
type runCriteriaEnvelope struct {
	Criteria models.SearchCriteria `json:"criteria"`
	Modes    models.RunModes       `json:"modes"`
}

// BeginRun creates a run, or returns the existing one when a run with the
// same non-empty idempotency key is running or completed. A failed run
// releases its key so a restart gets a fresh run id.
func (s *RunStorage) BeginRun(ctx context.Context, input *interfaces.BeginRunInput) (*interfaces.BeginRunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if input.IdempotencyKey != "" {
		var existingID string
		var existingStatus string
		err := tx.QueryRowContext(ctx,
			`SELECT id, status FROM pipeline_runs WHERE idempotency_key = ?`,
			input.IdempotencyKey,
		).Scan(&existingID, &existingStatus)
		switch {
		case err == nil:
			status := models.RunStatus(existingStatus)
			if status == models.RunStatusRunning || status == models.RunStatusCompleted {
				if err := tx.Commit(); err != nil {
					return nil, fmt.Errorf("failed to commit transaction: %w", err)
				}
				return &interfaces.BeginRunResult{RunID: existingID, Resumed: true, Status: status}, nil
			}
			// Failed run: release the key so the restart can claim it
			if _, err := tx.ExecContext(ctx,
				`UPDATE pipeline_runs SET idempotency_key = NULL WHERE id = ?`, existingID,
			); err != nil {
				return nil, fmt.Errorf("failed to release idempotency key: %w", err)
			}
		case err != sql.ErrNoRows:
			return nil, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	runID := common.NewRunID()
	now := common.NowMillis()

	envelope, err := json.Marshal(runCriteriaEnvelope{Criteria: input.Criteria, Modes: input.Modes})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize run criteria: %w", err)
	}

	var key sql.NullString
	if input.IdempotencyKey != "" {
		key.Valid = true
		key.String = input.IdempotencyKey
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, idempotency_key, status, started_at, target_candidates, role_key, role_title, config_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, key, string(models.RunStatusRunning), now,
		input.TargetCandidates, input.RoleKey, input.RoleTitle, string(envelope),
	); err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO run_roles (run_id, role_key, role_title, criteria_json, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		runID, input.RoleKey, input.RoleTitle, string(envelope), now,
	); err != nil {
		return nil, fmt.Errorf("failed to insert run role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().
		Str("run_id", runID).
		Str("role_key", input.RoleKey).
		Int("target_candidates", input.TargetCandidates).
		Msg("Pipeline run started")

	return &interfaces.BeginRunResult{RunID: runID, Resumed: false, Status: models.RunStatusRunning}, nil
}

// MarkRunCompleted finalises a run as completed with its diagnostics blob
func (s *RunStorage) MarkRunCompleted(ctx context.Context, runID string, diagnostics *models.PipelineDiagnostics) error {
	return s.finishRun(ctx, runID, models.RunStatusCompleted, diagnostics)
}

// MarkRunFailed finalises a run as failed with its diagnostics blob
func (s *RunStorage) MarkRunFailed(ctx context.Context, runID string, diagnostics *models.PipelineDiagnostics) error {
	return s.finishRun(ctx, runID, models.RunStatusFailed, diagnostics)
}

func (s *RunStorage) finishRun(ctx context.Context, runID string, status models.RunStatus, diagnostics *models.PipelineDiagnostics) error {
	var summary sql.NullString
	if diagnostics != nil {
		data, err := json.Marshal(diagnostics)
		if err != nil {
			return fmt.Errorf("failed to serialize diagnostics: %w", err)
		}
		summary.Valid = true
		summary.String = string(data)
	}

	result, err := s.db.db.ExecContext(ctx, `
		UPDATE pipeline_runs SET status = ?, finished_at = ?, summary_json = ? WHERE id = ?`,
		string(status), common.NowMillis(), summary, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}

	s.logger.Info().Str("run_id", runID).Str("status", string(status)).Msg("Pipeline run finished")
	return nil
}

// GetRunStatus returns a run with its diagnostics
func (s *RunStorage) GetRunStatus(ctx context.Context, runID string) (*models.PipelineRun, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT id, idempotency_key, status, started_at, finished_at, target_candidates, role_key, role_title, summary_json
		FROM pipeline_runs WHERE id = ?`, runID)
	return scanRun(row)
}

// ListRecentRuns returns the most recent runs, newest first
func (s *RunStorage) ListRecentRuns(ctx context.Context, limit int) ([]*models.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT id, idempotency_key, status, started_at, finished_at, target_candidates, role_key, role_title, summary_json
		FROM pipeline_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AddRunFailure appends a failure record to a run
func (s *RunStorage) AddRunFailure(ctx context.Context, runID string, failure *models.RunFailure) error {
	retryable := 0
	if failure.Retryable {
		retryable = 1
	}
	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO run_failures (run_id, stage, candidate_ref, error_type, message, retryable, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, failure.Stage, failure.CandidateRef, string(failure.ErrorType),
		failure.Message, retryable, failure.Payload, common.NowMillis(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run failure: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.PipelineRun, error) {
	var run models.PipelineRun
	var key, summary sql.NullString
	var finishedAt sql.NullInt64
	var status string

	err := row.Scan(&run.ID, &key, &status, &run.StartedAt, &finishedAt,
		&run.TargetCandidates, &run.RoleKey, &run.RoleTitle, &summary)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Status = models.RunStatus(status)
	run.IdempotencyKey = key.String
	run.FinishedAt = finishedAt.Int64

	if summary.Valid && summary.String != "" {
		var diagnostics models.PipelineDiagnostics
		if err := json.Unmarshal([]byte(summary.String), &diagnostics); err == nil {
			run.Diagnostics = &diagnostics
		}
	}

	return &run, nil
}
