// Package model defines the core domain models used throughout the application.
package model

// SourceTrack describes a track from the source library. Instances are
// created during catalog iteration and never mutated afterwards.
type SourceTrack struct {
	ID         string
	Title      string
	Artist     string
	Album      string
	ISRC       string
	DurationMS int
}

// HasKey reports whether the track carries an ISRC usable for exact matching.
func (t SourceTrack) HasKey() bool {
	return t.ISRC != ""
}

// SourceAlbum describes a saved album from the source library.
type SourceAlbum struct {
	ID          string
	Title       string
	Artist      string
	UPC         string
	TotalTracks int
	ReleaseYear int
}

// HasKey reports whether the album carries a UPC usable for exact matching.
func (a SourceAlbum) HasKey() bool {
	return a.UPC != ""
}

// Candidate is a record returned by a target-catalog search. Candidates are
// transient; only a confirmed match's target ID is persisted.
type Candidate struct {
	ID          string
	Title       string
	Artist      string
	Album       string
	ISRC        string
	UPC         string
	DurationMS  int
	TotalTracks int
}

// Playlist is a named track collection in either catalog.
type Playlist struct {
	ID         string
	Name       string
	TrackCount int
}
