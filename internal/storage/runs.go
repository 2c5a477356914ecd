package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tunebridge/internal/common"
	"tunebridge/internal/model"
	"tunebridge/internal/service"
)

// StartRun records the start of a reconciliation run and returns its ID.
func (s *SQLiteStorage) StartRun(ctx context.Context, syncType string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(syncType, "syncType"); err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, sync_type, status, started_at)
		VALUES (?, ?, 'running', ?)
	`, id, syncType, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	return id, nil
}

// CompleteRun records a run's terminal status and its report.
func (s *SQLiteStorage) CompleteRun(ctx context.Context, runID, status string, report *model.SyncReport) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}
	if err := validateString(status, "status"); err != nil {
		return err
	}

	var reportJSON sql.NullString
	if report != nil {
		data, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		reportJSON = sql.NullString{String: string(data), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_runs
		SET status = ?, completed_at = ?, report = ?
		WHERE id = ?
	`, status, time.Now().UTC(), reportJSON, runID)
	if err != nil {
		return fmt.Errorf("failed to record run completion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %q: %w", runID, common.ErrNotFound)
	}
	return nil
}

// GetRun returns one run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*service.SyncRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, sync_type, status, started_at, completed_at, report
		FROM sync_runs WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %q: %w", runID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]service.SyncRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sync_type, status, started_at, completed_at, report
		FROM sync_runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []service.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*service.SyncRun, error) {
	var (
		run         service.SyncRun
		completedAt sql.NullTime
		reportJSON  sql.NullString
	)
	if err := row.Scan(&run.ID, &run.SyncType, &run.Status, &run.StartedAt,
		&completedAt, &reportJSON); err != nil {
		return nil, err
	}
	run.CompletedAt = completedAt.Time
	if reportJSON.Valid && reportJSON.String != "" {
		run.Report = &model.SyncReport{}
		if err := json.Unmarshal([]byte(reportJSON.String), run.Report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
	}
	return &run, nil
}
