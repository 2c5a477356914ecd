package syncer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunebridge/internal/catalog"
	"tunebridge/internal/model"
	"tunebridge/internal/service"
)

// stubMatcher maps source IDs straight to target IDs without real matching.
type stubMatcher struct {
	mu         sync.Mutex
	calls      int
	albumCalls int

	resolve      func(track model.SourceTrack) (*model.Match, []model.Suggestion)
	resolveAlbum func(album model.SourceAlbum) (*model.Match, []model.Suggestion)
}

func (s *stubMatcher) Resolve(_ context.Context, track model.SourceTrack) (*model.Match, []model.Suggestion) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.resolve != nil {
		return s.resolve(track)
	}
	return &model.Match{
		Candidate:  model.Candidate{ID: "t-" + track.ID, Title: track.Title, Artist: track.Artist},
		Kind:       model.MatchFuzzy,
		Confidence: 95,
	}, nil
}

func (s *stubMatcher) ResolveAlbum(_ context.Context, album model.SourceAlbum) (*model.Match, []model.Suggestion) {
	s.mu.Lock()
	s.albumCalls++
	s.mu.Unlock()
	if s.resolveAlbum != nil {
		return s.resolveAlbum(album)
	}
	return &model.Match{
		Candidate:  model.Candidate{ID: "t-" + album.ID, Title: album.Title, Artist: album.Artist},
		Kind:       model.MatchFuzzy,
		Confidence: 95,
	}, nil
}

func (s *stubMatcher) resolveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// memStorage is an in-memory service.Storage used by driver tests.
type memStorage struct {
	mu        sync.Mutex
	synced    map[string]map[string]string
	markCalls []int
	offsets   map[string]int
	unmatched []service.UnmatchedItem
	runs      map[string]*service.SyncRun
	seq       int
}

func newMemStorage() *memStorage {
	return &memStorage{
		synced:  map[string]map[string]string{},
		offsets: map[string]int{},
		runs:    map[string]*service.SyncRun{},
	}
}

func (m *memStorage) MarkSynced(_ context.Context, syncType string, items []model.SyncedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.synced[syncType] == nil {
		m.synced[syncType] = map[string]string{}
	}
	for _, item := range items {
		m.synced[syncType][item.SourceID] = item.TargetID
	}
	m.markCalls = append(m.markCalls, len(items))
	return nil
}

func (m *memStorage) IsSynced(_ context.Context, syncType, sourceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.synced[syncType][sourceID]
	return ok, nil
}

func (m *memStorage) SyncedIDs(_ context.Context, syncType string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.synced[syncType]))
	for k, v := range m.synced[syncType] {
		out[k] = v
	}
	return out, nil
}

func (m *memStorage) SyncedCount(_ context.Context, syncType string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.synced[syncType]), nil
}

func (m *memStorage) Offset(_ context.Context, syncType string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offsets[syncType], nil
}

func (m *memStorage) SaveOffset(_ context.Context, syncType string, offset, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets[syncType] = offset
	return nil
}

func (m *memStorage) ClearOffset(_ context.Context, syncType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.offsets, syncType)
	return nil
}

func (m *memStorage) SaveUnmatched(_ context.Context, item *service.UnmatchedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unmatched = append(m.unmatched, *item)
	return nil
}

func (m *memStorage) ListUnmatched(_ context.Context, syncType string, status service.UnmatchedStatus) ([]service.UnmatchedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []service.UnmatchedItem
	for _, item := range m.unmatched {
		if item.SyncType == syncType && item.Status == status {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStorage) ResolveUnmatched(_ context.Context, _ int64, _ string) error { return nil }
func (m *memStorage) DismissUnmatched(_ context.Context, _ int64) error           { return nil }

func (m *memStorage) StartRun(_ context.Context, syncType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("run-%d", m.seq)
	m.runs[id] = &service.SyncRun{ID: id, SyncType: syncType, Status: "running"}
	return id, nil
}

func (m *memStorage) CompleteRun(_ context.Context, runID, status string, report *model.SyncReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[runID]; ok {
		run.Status = status
		run.Report = report
	}
	return nil
}

func (m *memStorage) GetRun(_ context.Context, runID string) (*service.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runID], nil
}

func (m *memStorage) ListRuns(_ context.Context, _ int) ([]service.SyncRun, error) {
	return nil, nil
}

func (m *memStorage) Migrate(_ context.Context) error { return nil }
func (m *memStorage) Close() error                    { return nil }

var _ service.Storage = (*memStorage)(nil)

func savedTracks(n int) []model.SourceTrack {
	tracks := make([]model.SourceTrack, n)
	for i := range tracks {
		tracks[i] = model.SourceTrack{
			ID:     fmt.Sprintf("s%02d", i),
			Title:  fmt.Sprintf("Track %d", i),
			Artist: "Artist",
		}
	}
	return tracks
}

func TestSyncFavoritesBatchedWrites(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedTracks = savedTracks(60)
	target := catalog.NewMockTarget()
	store := newMemStorage()
	matcher := &stubMatcher{}

	driver := New(source, target, store, matcher)
	report, err := driver.SyncFavorites(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 60, report.Matched)
	assert.Equal(t, 60, report.FuzzyMatches)
	assert.Equal(t, 60, report.Processed())
	assert.False(t, report.Cancelled)

	// 60 matches with a flush size of 25 means exactly three write batches.
	require.Len(t, target.AddFavoritesCalls, 3)
	assert.Len(t, target.AddFavoritesCalls[0], 25)
	assert.Len(t, target.AddFavoritesCalls[1], 25)
	assert.Len(t, target.AddFavoritesCalls[2], 10)
	assert.Equal(t, []int{25, 25, 10}, store.markCalls)

	// Every pair must be in the ledger afterwards.
	count, err := store.SyncedCount(context.Background(), service.SyncFavorites)
	require.NoError(t, err)
	assert.Equal(t, 60, count)

	// Resume offset is cleared on completion.
	offset, err := store.Offset(context.Background(), service.SyncFavorites)
	require.NoError(t, err)
	assert.Zero(t, offset)

	run, err := store.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", run.Status)
}

func TestSyncFavoritesSecondRunSkipsEverything(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedTracks = savedTracks(40)
	target := catalog.NewMockTarget()
	store := newMemStorage()
	matcher := &stubMatcher{}
	driver := New(source, target, store, matcher)

	_, err := driver.SyncFavorites(context.Background())
	require.NoError(t, err)
	firstCalls := matcher.resolveCalls()
	firstWrites := len(target.AddFavoritesCalls)

	report, err := driver.SyncFavorites(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 40, report.Skipped)
	assert.Zero(t, report.Matched)
	assert.Equal(t, firstCalls, matcher.resolveCalls(), "ledger-recorded tracks must not be re-matched")
	assert.Len(t, target.AddFavoritesCalls, firstWrites, "ledger-recorded tracks must not be re-written")
}

func TestSyncFavoritesAlreadyPresentShortCircuit(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedTracks = []model.SourceTrack{
		{ID: "s1", Title: "A", Artist: "X", ISRC: "USKEY0000001"},
		{ID: "s2", Title: "B", Artist: "X", ISRC: "USKEY0000002"},
	}
	target := catalog.NewMockTarget()
	target.ListFavoritesFn = func(context.Context) ([]model.Candidate, error) {
		return []model.Candidate{
			{ID: "t1", ISRC: "uskey0000001"},
			{ID: "t2", ISRC: "USKEY0000002"},
		}, nil
	}
	store := newMemStorage()
	matcher := &stubMatcher{}
	driver := New(source, target, store, matcher)

	report, err := driver.SyncFavorites(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.AlreadyPresent)
	assert.Zero(t, report.Matched)
	assert.Zero(t, matcher.resolveCalls(), "favorites already on the target must never hit the engine")
	assert.Empty(t, target.AddFavoritesCalls)

	// Present items still land in the ledger so the next run skips them.
	count, err := store.SyncedCount(context.Background(), service.SyncFavorites)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSyncFavoritesMatchedIntoExistingFavorite(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedTracks = []model.SourceTrack{{ID: "s1", Title: "A", Artist: "X"}}
	target := catalog.NewMockTarget()
	target.ListFavoritesFn = func(context.Context) ([]model.Candidate, error) {
		// Same record, but without an ISRC the short-circuit cannot see it.
		return []model.Candidate{{ID: "t-s1", Title: "A", Artist: "X"}}, nil
	}
	store := newMemStorage()
	driver := New(source, target, store, &stubMatcher{})

	report, err := driver.SyncFavorites(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.AlreadyPresent)
	assert.Zero(t, report.Matched)
	assert.Empty(t, target.AddFavoritesCalls, "a match that is already a favorite must not be re-added")
}

func TestSyncFavoritesUnmatchedRecorded(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedTracks = []model.SourceTrack{{ID: "s1", Title: "Obscure", Artist: "Nobody", Album: "Demo"}}
	target := catalog.NewMockTarget()
	store := newMemStorage()
	matcher := &stubMatcher{
		resolve: func(model.SourceTrack) (*model.Match, []model.Suggestion) {
			return nil, []model.Suggestion{{CandidateID: "near", Title: "Obscure", Confidence: 55}}
		},
	}
	driver := New(source, target, store, matcher)

	report, err := driver.SyncFavorites(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.NotMatched)
	require.Len(t, report.MissingItems, 1)
	assert.Equal(t, "Obscure", report.MissingItems[0].Title)
	assert.Len(t, report.MissingItems[0].Suggestions, 1)

	require.Len(t, store.unmatched, 1)
	assert.Equal(t, "s1", store.unmatched[0].SourceID)
	assert.Equal(t, service.SyncFavorites, store.unmatched[0].SyncType)
	assert.Len(t, store.unmatched[0].Suggestions, 1)
}

func TestSyncFavoritesCancellation(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedTracks = savedTracks(100)
	target := catalog.NewMockTarget()
	store := newMemStorage()
	matcher := &stubMatcher{}

	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultConfig()
	cfg.BatchSize = 10
	driver := New(source, target, store, matcher,
		WithConfig(cfg),
		WithProgress(func(p service.Progress) {
			if p.Index >= 10 {
				cancel()
			}
		}))

	report, err := driver.SyncFavorites(ctx)
	require.NoError(t, err, "cancellation is a reported outcome, not an error")

	assert.True(t, report.Cancelled)
	assert.Equal(t, 10, report.Matched)

	// The matched batch was flushed despite the cancelled context.
	require.Len(t, target.AddFavoritesCalls, 1)
	assert.Len(t, target.AddFavoritesCalls[0], 10)

	// The saved offset points at the first unprocessed item so the next run
	// resumes there.
	offset, oerr := store.Offset(context.Background(), service.SyncFavorites)
	require.NoError(t, oerr)
	assert.Equal(t, 10, offset)

	run, rerr := store.GetRun(context.Background(), "run-1")
	require.NoError(t, rerr)
	assert.Equal(t, "cancelled", run.Status)
}

func TestSyncFavoritesResumesFromOffset(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedTracks = savedTracks(30)
	target := catalog.NewMockTarget()
	store := newMemStorage()
	require.NoError(t, store.SaveOffset(context.Background(), service.SyncFavorites, 20, 30))
	matcher := &stubMatcher{}
	driver := New(source, target, store, matcher)

	report, err := driver.SyncFavorites(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, report.Matched, "only items past the saved offset are processed")
	assert.Equal(t, 10, matcher.resolveCalls())
}

func TestSyncFavoritesDryRun(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedTracks = savedTracks(30)
	target := catalog.NewMockTarget()
	store := newMemStorage()
	cfg := DefaultConfig()
	cfg.DryRun = true
	driver := New(source, target, store, &stubMatcher{}, WithConfig(cfg))

	report, err := driver.SyncFavorites(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 30, report.Matched)
	assert.Empty(t, target.AddFavoritesCalls)
	assert.Empty(t, store.markCalls)
	offset, _ := store.Offset(context.Background(), service.SyncFavorites)
	assert.Zero(t, offset)
}

func TestSyncFavoritesProgress(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedTracks = savedTracks(12)
	target := catalog.NewMockTarget()
	store := newMemStorage()

	var snapshots []service.Progress
	driver := New(source, target, store, &stubMatcher{}, WithProgress(func(p service.Progress) {
		snapshots = append(snapshots, p)
	}))

	_, err := driver.SyncFavorites(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshots, 12)
	last := snapshots[len(snapshots)-1]
	assert.Equal(t, service.SyncFavorites, last.Stage)
	assert.Equal(t, 12, last.Index)
	assert.Equal(t, 12, last.Total)
	assert.Equal(t, 12, last.Matched)
}

func TestSyncPlaylists(t *testing.T) {
	source := catalog.NewMockSource()
	source.Playlists = []model.Playlist{
		{ID: "p1", Name: "Road Trip", TrackCount: 2},
		{ID: "p2", Name: "Focus", TrackCount: 1},
	}
	source.PlaylistItems = map[string][]model.SourceTrack{
		"p1": {
			{ID: "s1", Title: "A", Artist: "X"},
			{ID: "s2", Title: "B", Artist: "X"},
		},
		"p2": {
			{ID: "s3", Title: "C", Artist: "Y"},
		},
	}

	target := catalog.NewMockTarget()
	target.FindPlaylistFn = func(_ context.Context, name string) (*model.Playlist, error) {
		if name == "Focus (from Spotify)" {
			return &model.Playlist{ID: "tp2", Name: name}, nil
		}
		return nil, nil
	}
	target.ListPlaylistIDsFn = func(_ context.Context, playlistID string) ([]string, error) {
		if playlistID == "tp2" {
			return []string{"t-s3"}, nil
		}
		return nil, nil
	}

	store := newMemStorage()
	require.NoError(t, store.MarkSynced(context.Background(), service.SyncPlaylists,
		[]model.SyncedItem{{SourceID: "s3", TargetID: "t-s3"}}))
	store.markCalls = nil

	matcher := &stubMatcher{}
	driver := New(source, target, store, matcher)

	report, err := driver.SyncPlaylists(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, report.PlaylistsSynced)
	assert.Equal(t, 2, report.Matched)
	assert.Equal(t, 1, report.AlreadyPresent, "ledger-known track already on the target playlist")
	assert.Equal(t, 2, matcher.resolveCalls())

	assert.Equal(t, []string{"Road Trip (from Spotify)"}, target.CreatedPlaylists)
	require.Len(t, target.PlaylistAddCalls, 1)
	assert.Equal(t, "playlist-Road Trip (from Spotify)", target.PlaylistAddCalls[0].PlaylistID)
	assert.ElementsMatch(t, []string{"t-s1", "t-s2"}, target.PlaylistAddCalls[0].TrackIDs)
}

func TestSyncPlaylistsFilter(t *testing.T) {
	source := catalog.NewMockSource()
	source.Playlists = []model.Playlist{
		{ID: "p1", Name: "Road Trip"},
		{ID: "p2", Name: "Focus"},
	}
	source.PlaylistItems = map[string][]model.SourceTrack{
		"p1": {{ID: "s1", Title: "A", Artist: "X"}},
		"p2": {{ID: "s2", Title: "B", Artist: "X"}},
	}
	target := catalog.NewMockTarget()
	store := newMemStorage()
	driver := New(source, target, store, &stubMatcher{})

	report, err := driver.SyncPlaylists(context.Background(), []string{"p2"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.PlaylistsSynced)
	assert.Equal(t, []string{"Focus (from Spotify)"}, target.CreatedPlaylists)
}

func TestSyncPlaylistsContinuesAfterFailure(t *testing.T) {
	source := catalog.NewMockSource()
	source.Playlists = []model.Playlist{
		{ID: "p1", Name: "Broken"},
		{ID: "p2", Name: "Fine"},
	}
	source.PlaylistItems = map[string][]model.SourceTrack{
		"p1": {{ID: "s1", Title: "A", Artist: "X"}},
		"p2": {{ID: "s2", Title: "B", Artist: "X"}},
	}
	target := catalog.NewMockTarget()
	target.CreatePlaylistFn = func(_ context.Context, name, _ string) (string, error) {
		if name == "Broken (from Spotify)" {
			return "", fmt.Errorf("quota exceeded")
		}
		return "tp-" + name, nil
	}
	store := newMemStorage()
	driver := New(source, target, store, &stubMatcher{})

	report, err := driver.SyncPlaylists(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, report.PlaylistsSynced)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Broken")
}

func TestSyncAlbums(t *testing.T) {
	source := catalog.NewMockSource()
	source.SavedAlbums = []model.SourceAlbum{
		{ID: "a1", Title: "Present", Artist: "X", UPC: "0001"},
		{ID: "a2", Title: "Fresh", Artist: "Y"},
		{ID: "a3", Title: "Obscure", Artist: "Z"},
	}
	target := catalog.NewMockTarget()
	target.ListFavoriteAlbumsFn = func(context.Context) ([]model.Candidate, error) {
		return []model.Candidate{{ID: "fav1", UPC: "0001"}}, nil
	}
	store := newMemStorage()
	matcher := &stubMatcher{
		resolveAlbum: func(album model.SourceAlbum) (*model.Match, []model.Suggestion) {
			if album.ID == "a3" {
				return nil, nil
			}
			return &model.Match{
				Candidate:  model.Candidate{ID: "t-" + album.ID},
				Kind:       model.MatchFuzzy,
				Confidence: 90,
			}, nil
		},
	}
	driver := New(source, target, store, matcher)

	report, err := driver.SyncAlbums(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.AlreadyPresent)
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.NotMatched)
	require.Len(t, target.AddAlbumsCalls, 1)
	assert.Equal(t, []string{"t-a2"}, target.AddAlbumsCalls[0])

	count, err := store.SyncedCount(context.Background(), service.SyncAlbums)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "present and matched albums both land in the ledger")
}
