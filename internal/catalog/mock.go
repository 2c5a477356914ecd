package catalog

import (
	"context"
	"sync"

	"tunebridge/internal/model"
	"tunebridge/internal/service"
)

// MockTarget is a mock implementation of service.TargetCatalog for testing.
type MockTarget struct {
	// Functions that can be set by tests to control behavior.
	SearchByKeyFn        func(ctx context.Context, key string, limit int) ([]model.Candidate, error)
	SearchTracksFn       func(ctx context.Context, title, artist string, limit int) ([]model.Candidate, error)
	SearchAlbumsFn       func(ctx context.Context, title, artist string, limit int) ([]model.Candidate, error)
	ListFavoritesFn      func(ctx context.Context) ([]model.Candidate, error)
	AddFavoritesFn       func(ctx context.Context, trackIDs []string) error
	ListFavoriteAlbumsFn func(ctx context.Context) ([]model.Candidate, error)
	AddFavoriteAlbumsFn  func(ctx context.Context, albumIDs []string) error
	FindPlaylistFn       func(ctx context.Context, name string) (*model.Playlist, error)
	CreatePlaylistFn     func(ctx context.Context, name, description string) (string, error)
	ListPlaylistIDsFn    func(ctx context.Context, playlistID string) ([]string, error)
	AddPlaylistTracksFn  func(ctx context.Context, playlistID string, trackIDs []string) error

	// Call tracking.
	mu                 sync.Mutex
	KeySearches        []string
	TextSearches       []TextSearch
	AlbumSearches      []TextSearch
	AddFavoritesCalls  [][]string
	AddAlbumsCalls     [][]string
	PlaylistAddCalls   []PlaylistAdd
	CreatedPlaylists   []string
	ListFavoritesCalls int
}

// TextSearch records the parameters of a text search call.
type TextSearch struct {
	Title  string
	Artist string
	Limit  int
}

// PlaylistAdd records the parameters of an AddPlaylistTracks call.
type PlaylistAdd struct {
	PlaylistID string
	TrackIDs   []string
}

// NewMockTarget creates a new mock target catalog.
func NewMockTarget() *MockTarget {
	return &MockTarget{}
}

// SearchByKey implements service.TargetCatalog.
func (m *MockTarget) SearchByKey(ctx context.Context, key string, limit int) ([]model.Candidate, error) {
	m.mu.Lock()
	m.KeySearches = append(m.KeySearches, key)
	m.mu.Unlock()

	if m.SearchByKeyFn != nil {
		return m.SearchByKeyFn(ctx, key, limit)
	}
	return []model.Candidate{}, nil
}

// SearchTracks implements service.TargetCatalog.
func (m *MockTarget) SearchTracks(ctx context.Context, title, artist string, limit int) ([]model.Candidate, error) {
	m.mu.Lock()
	m.TextSearches = append(m.TextSearches, TextSearch{Title: title, Artist: artist, Limit: limit})
	m.mu.Unlock()

	if m.SearchTracksFn != nil {
		return m.SearchTracksFn(ctx, title, artist, limit)
	}
	return []model.Candidate{}, nil
}

// SearchAlbums implements service.TargetCatalog.
func (m *MockTarget) SearchAlbums(ctx context.Context, title, artist string, limit int) ([]model.Candidate, error) {
	m.mu.Lock()
	m.AlbumSearches = append(m.AlbumSearches, TextSearch{Title: title, Artist: artist, Limit: limit})
	m.mu.Unlock()

	if m.SearchAlbumsFn != nil {
		return m.SearchAlbumsFn(ctx, title, artist, limit)
	}
	return []model.Candidate{}, nil
}

// ListFavorites implements service.TargetCatalog.
func (m *MockTarget) ListFavorites(ctx context.Context) ([]model.Candidate, error) {
	m.mu.Lock()
	m.ListFavoritesCalls++
	m.mu.Unlock()

	if m.ListFavoritesFn != nil {
		return m.ListFavoritesFn(ctx)
	}
	return []model.Candidate{}, nil
}

// AddFavorites implements service.TargetCatalog.
func (m *MockTarget) AddFavorites(ctx context.Context, trackIDs []string) error {
	m.mu.Lock()
	ids := make([]string, len(trackIDs))
	copy(ids, trackIDs)
	m.AddFavoritesCalls = append(m.AddFavoritesCalls, ids)
	m.mu.Unlock()

	if m.AddFavoritesFn != nil {
		return m.AddFavoritesFn(ctx, trackIDs)
	}
	return nil
}

// ListFavoriteAlbums implements service.TargetCatalog.
func (m *MockTarget) ListFavoriteAlbums(ctx context.Context) ([]model.Candidate, error) {
	if m.ListFavoriteAlbumsFn != nil {
		return m.ListFavoriteAlbumsFn(ctx)
	}
	return []model.Candidate{}, nil
}

// AddFavoriteAlbums implements service.TargetCatalog.
func (m *MockTarget) AddFavoriteAlbums(ctx context.Context, albumIDs []string) error {
	m.mu.Lock()
	ids := make([]string, len(albumIDs))
	copy(ids, albumIDs)
	m.AddAlbumsCalls = append(m.AddAlbumsCalls, ids)
	m.mu.Unlock()

	if m.AddFavoriteAlbumsFn != nil {
		return m.AddFavoriteAlbumsFn(ctx, albumIDs)
	}
	return nil
}

// FindPlaylistByName implements service.TargetCatalog.
func (m *MockTarget) FindPlaylistByName(ctx context.Context, name string) (*model.Playlist, error) {
	if m.FindPlaylistFn != nil {
		return m.FindPlaylistFn(ctx, name)
	}
	return nil, nil
}

// CreatePlaylist implements service.TargetCatalog.
func (m *MockTarget) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	m.mu.Lock()
	m.CreatedPlaylists = append(m.CreatedPlaylists, name)
	m.mu.Unlock()

	if m.CreatePlaylistFn != nil {
		return m.CreatePlaylistFn(ctx, name, description)
	}
	return "playlist-" + name, nil
}

// ListPlaylistTrackIDs implements service.TargetCatalog.
func (m *MockTarget) ListPlaylistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	if m.ListPlaylistIDsFn != nil {
		return m.ListPlaylistIDsFn(ctx, playlistID)
	}
	return []string{}, nil
}

// AddPlaylistTracks implements service.TargetCatalog.
func (m *MockTarget) AddPlaylistTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	ids := make([]string, len(trackIDs))
	copy(ids, trackIDs)
	m.PlaylistAddCalls = append(m.PlaylistAddCalls, PlaylistAdd{PlaylistID: playlistID, TrackIDs: ids})
	m.mu.Unlock()

	if m.AddPlaylistTracksFn != nil {
		return m.AddPlaylistTracksFn(ctx, playlistID, trackIDs)
	}
	return nil
}

// MockSource is a mock implementation of service.SourceCatalog for testing.
type MockSource struct {
	SavedTracks   []model.SourceTrack
	Playlists     []model.Playlist
	PlaylistItems map[string][]model.SourceTrack
	SavedAlbums   []model.SourceAlbum

	StreamErr error
}

// NewMockSource creates a new mock source catalog.
func NewMockSource() *MockSource {
	return &MockSource{PlaylistItems: map[string][]model.SourceTrack{}}
}

// StreamSavedTracks implements service.SourceCatalog.
func (m *MockSource) StreamSavedTracks(ctx context.Context, offset int, fn func(track model.SourceTrack, offset, total int) error) error {
	if m.StreamErr != nil {
		return m.StreamErr
	}
	total := len(m.SavedTracks)
	for i := offset; i < total; i++ {
		if err := fn(m.SavedTracks[i], i, total); err != nil {
			return err
		}
	}
	return nil
}

// ListPlaylists implements service.SourceCatalog.
func (m *MockSource) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	return m.Playlists, nil
}

// ListPlaylistTracks implements service.SourceCatalog.
func (m *MockSource) ListPlaylistTracks(ctx context.Context, playlistID string) ([]model.SourceTrack, error) {
	return m.PlaylistItems[playlistID], nil
}

// ListSavedAlbums implements service.SourceCatalog.
func (m *MockSource) ListSavedAlbums(ctx context.Context) ([]model.SourceAlbum, error) {
	return m.SavedAlbums, nil
}

// Ensure mocks satisfy the service contracts.
var (
	_ service.TargetCatalog = (*MockTarget)(nil)
	_ service.SourceCatalog = (*MockSource)(nil)
)
