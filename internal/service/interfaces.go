// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"tunebridge/internal/model"
)

// Sync types used to key ledger and progress records.
const (
	SyncFavorites = "favorites"
	SyncPlaylists = "playlists"
	SyncAlbums    = "albums"
)

// SourceCatalog is the read side of the source library. Implementations wrap
// the source service's API; iteration is paginated and restartable from an
// explicit offset so interrupted runs can resume.
type SourceCatalog interface {
	// StreamSavedTracks calls fn for each saved track starting at offset.
	// total is the full collection size as reported by the backend. A non-nil
	// error from fn stops the stream and is returned unchanged.
	StreamSavedTracks(ctx context.Context, offset int, fn func(track model.SourceTrack, offset, total int) error) error
	ListPlaylists(ctx context.Context) ([]model.Playlist, error)
	ListPlaylistTracks(ctx context.Context, playlistID string) ([]model.SourceTrack, error)
	ListSavedAlbums(ctx context.Context) ([]model.SourceAlbum, error)
}

// TargetCatalog is the search and write side of the target library. Search
// methods may return transport errors; the retriever layer is responsible for
// retries and for degrading failures to empty candidate lists. Write methods
// are idempotent from the caller's perspective.
type TargetCatalog interface {
	SearchByKey(ctx context.Context, key string, limit int) ([]model.Candidate, error)
	SearchTracks(ctx context.Context, title, artist string, limit int) ([]model.Candidate, error)
	SearchAlbums(ctx context.Context, title, artist string, limit int) ([]model.Candidate, error)

	ListFavorites(ctx context.Context) ([]model.Candidate, error)
	AddFavorites(ctx context.Context, trackIDs []string) error
	ListFavoriteAlbums(ctx context.Context) ([]model.Candidate, error)
	AddFavoriteAlbums(ctx context.Context, albumIDs []string) error

	FindPlaylistByName(ctx context.Context, name string) (*model.Playlist, error)
	CreatePlaylist(ctx context.Context, name, description string) (string, error)
	ListPlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error)
	AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error
}

// UnmatchedStatus tracks the review state of an unmatched item.
type UnmatchedStatus string

// Review states for unmatched items.
const (
	UnmatchedPending   UnmatchedStatus = "pending"
	UnmatchedResolved  UnmatchedStatus = "resolved"
	UnmatchedDismissed UnmatchedStatus = "dismissed"
)

// UnmatchedItem is a persisted entry in the human review queue.
type UnmatchedItem struct {
	ID               int64
	SourceID         string
	SyncType         string
	Title            string
	Artist           string
	Album            string
	Suggestions      []model.Suggestion
	Status           UnmatchedStatus
	ResolvedTargetID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SyncRun is a persisted record of one reconciliation run.
type SyncRun struct {
	ID          string
	SyncType    string
	Status      string
	StartedAt   time.Time
	CompletedAt time.Time
	Report      *model.SyncReport
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Sync ledger: which source items have already been reconciled, keyed by
	// sync type. MarkSynced is batched and transactional.
	MarkSynced(ctx context.Context, syncType string, items []model.SyncedItem) error
	IsSynced(ctx context.Context, syncType, sourceID string) (bool, error)
	SyncedIDs(ctx context.Context, syncType string) (map[string]string, error)
	SyncedCount(ctx context.Context, syncType string) (int, error)

	// Resume offsets per sync type.
	Offset(ctx context.Context, syncType string) (int, error)
	SaveOffset(ctx context.Context, syncType string, offset, total int) error
	ClearOffset(ctx context.Context, syncType string) error

	// Unmatched review queue.
	SaveUnmatched(ctx context.Context, item *UnmatchedItem) error
	ListUnmatched(ctx context.Context, syncType string, status UnmatchedStatus) ([]UnmatchedItem, error)
	ResolveUnmatched(ctx context.Context, id int64, targetID string) error
	DismissUnmatched(ctx context.Context, id int64) error

	// Run history.
	StartRun(ctx context.Context, syncType string) (string, error)
	CompleteRun(ctx context.Context, runID, status string, report *model.SyncReport) error
	GetRun(ctx context.Context, runID string) (*SyncRun, error)
	ListRuns(ctx context.Context, limit int) ([]SyncRun, error)

	// Database management.
	Migrate(ctx context.Context) error
	Close() error
}

// Progress is a snapshot passed to the driver's progress callback after every
// processed item. It is an observation hook only; reconciliation outcomes do
// not depend on it.
type Progress struct {
	Stage          string
	Index          int
	Total          int
	Matched        int
	NotMatched     int
	ExactKey       int
	Fuzzy          int
	Skipped        int
	AlreadyPresent int
}

// ProgressFunc receives progress snapshots. A nil ProgressFunc is valid.
type ProgressFunc func(Progress)

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
