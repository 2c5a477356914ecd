package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tunebridge/internal/model"
)

// MarkSynced records reconciled source→target pairs in a single transaction.
// Re-marking an existing pair refreshes its target ID and timestamp.
func (s *SQLiteStorage) MarkSynced(ctx context.Context, syncType string, items []model.SyncedItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(syncType, "syncType"); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO synced_items (source_id, sync_type, target_id)
		VALUES (?, ?, ?)
		ON CONFLICT(source_id, sync_type) DO UPDATE SET
			target_id = excluded.target_id,
			synced_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, item.SourceID, syncType, item.TargetID); err != nil {
			return fmt.Errorf("failed to mark %q synced: %w", item.SourceID, err)
		}
	}

	return tx.Commit()
}

// IsSynced reports whether a source item is recorded in the ledger.
func (s *SQLiteStorage) IsSynced(ctx context.Context, syncType, sourceID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM synced_items WHERE source_id = ? AND sync_type = ?)
	`, sourceID, syncType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sync status: %w", err)
	}
	return exists, nil
}

// SyncedIDs returns the full source→target mapping for a sync type.
func (s *SQLiteStorage) SyncedIDs(ctx context.Context, syncType string) (map[string]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, target_id FROM synced_items WHERE sync_type = ?
	`, syncType)
	if err != nil {
		return nil, fmt.Errorf("failed to query synced items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make(map[string]string)
	for rows.Next() {
		var sourceID, targetID string
		if err := rows.Scan(&sourceID, &targetID); err != nil {
			return nil, fmt.Errorf("failed to scan synced item: %w", err)
		}
		ids[sourceID] = targetID
	}
	return ids, rows.Err()
}

// SyncedCount returns how many items the ledger records for a sync type.
func (s *SQLiteStorage) SyncedCount(ctx context.Context, syncType string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM synced_items WHERE sync_type = ?
	`, syncType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count synced items: %w", err)
	}
	return count, nil
}

// Offset returns the saved resume offset for a sync type, zero when none.
func (s *SQLiteStorage) Offset(ctx context.Context, syncType string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var offset int
	err := s.db.QueryRowContext(ctx, `
		SELECT last_offset FROM sync_progress WHERE sync_type = ?
	`, syncType).Scan(&offset)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to query resume offset: %w", err)
	}
	return offset, nil
}

// SaveOffset persists the resume offset for a sync type.
func (s *SQLiteStorage) SaveOffset(ctx context.Context, syncType string, offset, total int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(syncType, "syncType"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_progress (sync_type, last_offset, total, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(sync_type) DO UPDATE SET
			last_offset = excluded.last_offset,
			total = excluded.total,
			updated_at = CURRENT_TIMESTAMP
	`, syncType, offset, total)
	if err != nil {
		return fmt.Errorf("failed to save resume offset: %w", err)
	}
	return nil
}

// ClearOffset removes the resume offset for a sync type.
func (s *SQLiteStorage) ClearOffset(ctx context.Context, syncType string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_progress WHERE sync_type = ?`, syncType)
	if err != nil {
		return fmt.Errorf("failed to clear resume offset: %w", err)
	}
	return nil
}
