package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunebridge/internal/cli"
	"tunebridge/internal/model"
	"tunebridge/internal/service"
	"tunebridge/internal/testutil"
)

func seedUnmatched(t *testing.T, store service.Storage, sourceID, title string, suggestions []model.Suggestion) {
	t.Helper()
	require.NoError(t, store.SaveUnmatched(context.Background(), &service.UnmatchedItem{
		SourceID:    sourceID,
		SyncType:    service.SyncFavorites,
		Title:       title,
		Artist:      "Artist",
		Suggestions: suggestions,
	}))
}

func TestReviewResolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedUnmatched(t, db.Storage, "s1", "Song One", []model.Suggestion{
		{CandidateID: "c1", Title: "Song One (Live)", Artist: "Artist", Confidence: 62},
		{CandidateID: "c2", Title: "Song One", Artist: "Tribute Band", Confidence: 55},
	})

	var out bytes.Buffer
	reviewer := cli.NewReviewer(db.Storage, strings.NewReader("2\n"), &out)
	require.NoError(t, reviewer.Review(context.Background(), ""))

	resolved, err := db.Storage.ListUnmatched(context.Background(), "", service.UnmatchedResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "c2", resolved[0].ResolvedTargetID)
	assert.Contains(t, out.String(), "Review complete.")
}

func TestReviewDismissAndSkip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedUnmatched(t, db.Storage, "s1", "First", nil)
	seedUnmatched(t, db.Storage, "s2", "Second", nil)

	var out bytes.Buffer
	reviewer := cli.NewReviewer(db.Storage, strings.NewReader("d\ns\n"), &out)
	require.NoError(t, reviewer.Review(context.Background(), ""))

	dismissed, err := db.Storage.ListUnmatched(context.Background(), "", service.UnmatchedDismissed)
	require.NoError(t, err)
	assert.Len(t, dismissed, 1)

	pending, err := db.Storage.ListUnmatched(context.Background(), "", service.UnmatchedPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "skipped item stays pending")
}

func TestReviewQuitStopsEarly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedUnmatched(t, db.Storage, "s1", "First", nil)
	seedUnmatched(t, db.Storage, "s2", "Second", nil)

	var out bytes.Buffer
	reviewer := cli.NewReviewer(db.Storage, strings.NewReader("q\n"), &out)
	require.NoError(t, reviewer.Review(context.Background(), ""))

	pending, err := db.Storage.ListUnmatched(context.Background(), "", service.UnmatchedPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2, "quit leaves everything pending")
}

func TestReviewInvalidInputReprompts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedUnmatched(t, db.Storage, "s1", "Song", []model.Suggestion{
		{CandidateID: "c1", Title: "Song", Artist: "Artist", Confidence: 70},
	})

	var out bytes.Buffer
	reviewer := cli.NewReviewer(db.Storage, strings.NewReader("9\n1\n"), &out)
	require.NoError(t, reviewer.Review(context.Background(), ""))

	assert.Contains(t, out.String(), "Enter a suggestion number")
	resolved, err := db.Storage.ListUnmatched(context.Background(), "", service.UnmatchedResolved)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
}

func TestReviewEmptyQueue(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var out bytes.Buffer
	reviewer := cli.NewReviewer(db.Storage, strings.NewReader(""), &out)
	require.NoError(t, reviewer.Review(context.Background(), ""))
	assert.Contains(t, out.String(), "Nothing to review.")
}

func TestReviewEOFEndsSession(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedUnmatched(t, db.Storage, "s1", "Song", nil)

	var out bytes.Buffer
	reviewer := cli.NewReviewer(db.Storage, strings.NewReader(""), &out)
	require.NoError(t, reviewer.Review(context.Background(), ""))

	pending, err := db.Storage.ListUnmatched(context.Background(), "", service.UnmatchedPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
