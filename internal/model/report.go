package model

import "time"

// SyncedItem records a reconciled source→target identifier pair.
type SyncedItem struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

// MissingItem records a source item that could not be matched, with ranked
// suggestions for later human resolution.
type MissingItem struct {
	SourceID    string       `json:"source_id"`
	Title       string       `json:"title"`
	Artist      string       `json:"artist"`
	Album       string       `json:"album"`
	Playlist    string       `json:"playlist,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// SyncReport aggregates the outcome of a reconciliation run. A run always
// completes with a report, even when individual items failed or the run was
// cancelled mid-stream.
type SyncReport struct {
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     time.Time     `json:"completed_at"`
	Matched         int           `json:"matched"`
	NotMatched      int           `json:"not_matched"`
	AlreadyPresent  int           `json:"already_present"`
	Skipped         int           `json:"skipped"`
	ExactKeyMatches int           `json:"exact_key_matches"`
	FuzzyMatches    int           `json:"fuzzy_matches"`
	PlaylistsSynced int           `json:"playlists_synced,omitempty"`
	MissingItems    []MissingItem `json:"missing_items"`
	SyncedItems     []SyncedItem  `json:"synced_items"`
	Errors          []string      `json:"errors"`
	Cancelled       bool          `json:"cancelled"`
}

// Processed returns the number of items that reached a terminal state.
func (r *SyncReport) Processed() int {
	return r.Matched + r.NotMatched + r.AlreadyPresent + r.Skipped
}
