package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tunebridge/internal/common"
	"tunebridge/internal/service"
)

// SaveUnmatched upserts an entry in the review queue. Re-encountering an item
// refreshes its metadata and suggestions but never touches its review status:
// an already-resolved or dismissed item stays that way.
func (s *SQLiteStorage) SaveUnmatched(ctx context.Context, item *service.UnmatchedItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: item", ErrEmptyString)
	}
	if err := validateString(item.SourceID, "item.SourceID"); err != nil {
		return err
	}

	suggestions, err := json.Marshal(item.Suggestions)
	if err != nil {
		return fmt.Errorf("failed to encode suggestions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO unmatched_items (source_id, sync_type, title, artist, album, suggestions, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, sync_type) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			suggestions = excluded.suggestions,
			updated_at = CURRENT_TIMESTAMP
	`, item.SourceID, item.SyncType, item.Title, item.Artist, item.Album,
		string(suggestions), string(service.UnmatchedPending))
	if err != nil {
		return fmt.Errorf("failed to save unmatched item: %w", err)
	}
	return nil
}

// ListUnmatched returns review-queue entries. Empty syncType or status match
// everything.
func (s *SQLiteStorage) ListUnmatched(ctx context.Context, syncType string, status service.UnmatchedStatus) ([]service.UnmatchedItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, source_id, sync_type, title, artist, album, suggestions,
		       status, resolved_target_id, created_at, updated_at
		FROM unmatched_items
		WHERE (? = '' OR sync_type = ?)
		  AND (? = '' OR status = ?)
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, syncType, syncType, string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query unmatched items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []service.UnmatchedItem
	for rows.Next() {
		var (
			item        service.UnmatchedItem
			artist      sql.NullString
			album       sql.NullString
			suggestions sql.NullString
			resolvedID  sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.SourceID, &item.SyncType, &item.Title,
			&artist, &album, &suggestions, &item.Status, &resolvedID,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unmatched item: %w", err)
		}
		item.Artist = artist.String
		item.Album = album.String
		item.ResolvedTargetID = resolvedID.String
		if suggestions.Valid && suggestions.String != "" {
			if err := json.Unmarshal([]byte(suggestions.String), &item.Suggestions); err != nil {
				return nil, fmt.Errorf("failed to decode suggestions for %q: %w", item.SourceID, err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ResolveUnmatched marks an entry resolved with the target ID a human picked.
func (s *SQLiteStorage) ResolveUnmatched(ctx context.Context, id int64, targetID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(targetID, "targetID"); err != nil {
		return err
	}

	return s.setUnmatchedStatus(ctx, id, service.UnmatchedResolved, targetID)
}

// DismissUnmatched marks an entry dismissed.
func (s *SQLiteStorage) DismissUnmatched(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.setUnmatchedStatus(ctx, id, service.UnmatchedDismissed, "")
}

func (s *SQLiteStorage) setUnmatchedStatus(ctx context.Context, id int64, status service.UnmatchedStatus, targetID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE unmatched_items
		SET status = ?, resolved_target_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(status), targetID, id)
	if err != nil {
		return fmt.Errorf("failed to update unmatched item %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("unmatched item %d: %w", id, common.ErrNotFound)
	}
	return nil
}
