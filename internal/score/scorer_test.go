package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tunebridge/internal/model"
)

func TestFuzzy(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		a    string
		b    string
		min  float64
		max  float64
	}{
		{
			name: "identical strings",
			a:    "yesterday",
			b:    "yesterday",
			min:  100,
			max:  100,
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			min:  100,
			max:  100,
		},
		{
			name: "one empty",
			a:    "yesterday",
			b:    "",
			min:  0,
			max:  0,
		},
		{
			name: "word reorder caught by token sort",
			a:    "mars bruno",
			b:    "bruno mars",
			min:  100,
			max:  100,
		},
		{
			name: "subset caught by token set",
			a:    "bohemian rhapsody",
			b:    "bohemian rhapsody queen",
			min:  100,
			max:  100,
		},
		{
			name: "substring caught by partial",
			a:    "hallelujah",
			b:    "hallelujah song of praise",
			min:  100,
			max:  100,
		},
		{
			name: "unrelated strings score low",
			a:    "bohemian rhapsody",
			b:    "wrecking ball",
			min:  0,
			max:  60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Fuzzy(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestFuzzyWithExtraMetric(t *testing.T) {
	constant := func(a, b string) float64 { return 99 }
	s := New(WithMetric(constant))

	// The extra metric raises the floor for otherwise-dissimilar strings.
	assert.GreaterOrEqual(t, s.Fuzzy("abc", "xyz"), 99.0)

	// Metrics can never push the score out of bounds.
	over := func(a, b string) float64 { return 250 }
	s = New(WithMetric(over))
	assert.Equal(t, 100.0, s.Fuzzy("abc", "xyz"))
}

func TestJaroWinklerMetric(t *testing.T) {
	m := JaroWinkler()
	assert.InDelta(t, 100, m("yesterday", "yesterday"), 0.01)
	assert.Greater(t, m("yesterday", "yesterdays"), 90.0)
}

func TestScoreCandidate(t *testing.T) {
	s := New()

	t.Run("identical track scores 100", func(t *testing.T) {
		src := model.SourceTrack{Title: "Yesterday", Artist: "The Beatles", Album: "Help!"}
		c := model.Candidate{Title: "Yesterday", Artist: "The Beatles", Album: "Help!"}
		got := s.ScoreCandidate(src, c)
		assert.Equal(t, 100.0, got.Title)
		assert.Equal(t, 100.0, got.Artist)
		assert.Equal(t, 100.0, got.Combined)
	})

	t.Run("remaster suffix and the prefix fold away", func(t *testing.T) {
		src := model.SourceTrack{Title: "Yesterday", Artist: "The Beatles"}
		c := model.Candidate{Title: "Yesterday - Remastered 2009", Artist: "Beatles"}
		got := s.ScoreCandidate(src, c)
		assert.Equal(t, 100.0, got.Title)
		assert.Equal(t, 100.0, got.Artist)
	})

	t.Run("wrong artist drags combined down", func(t *testing.T) {
		src := model.SourceTrack{Title: "Hallelujah", Artist: "Jeff Buckley"}
		c := model.Candidate{Title: "Hallelujah", Artist: "Leonard Cohen"}
		got := s.ScoreCandidate(src, c)
		assert.Equal(t, 100.0, got.Title)
		assert.Less(t, got.Artist, 50.0)
		assert.Less(t, got.Combined, 80.0)
	})

	t.Run("featured artist folded into candidate title", func(t *testing.T) {
		src := model.SourceTrack{Title: "Airplanes", Artist: "Hayley Williams"}
		c := model.Candidate{Title: "Airplanes (feat. Hayley Williams)", Artist: "B.o.B"}
		direct := s.Fuzzy("hayley williams", "b.o.b")
		got := s.ScoreCandidate(src, c)
		assert.Greater(t, got.Artist, direct)
	})

	t.Run("primary artist variant agreement", func(t *testing.T) {
		src := model.SourceTrack{Title: "Song", Artist: "DJ Khaled feat. Rihanna"}
		c := model.Candidate{Title: "Song", Artist: "DJ Khaled"}
		got := s.ScoreCandidate(src, c)
		assert.Equal(t, 100.0, got.Artist)
	})

	t.Run("matching album adds bonus", func(t *testing.T) {
		src := model.SourceTrack{Title: "Karma Police", Artist: "Muse", Album: "OK Computer"}
		with := s.ScoreCandidate(src, model.Candidate{Title: "Karma Police", Artist: "Elbow", Album: "OK Computer"})
		without := s.ScoreCandidate(src, model.Candidate{Title: "Karma Police", Artist: "Elbow"})
		assert.Greater(t, with.Combined, without.Combined)
	})

	t.Run("compilation album penalized", func(t *testing.T) {
		src := model.SourceTrack{Title: "Karma Police", Artist: "Radiohead Y", Album: "OK Computer"}
		comp := s.ScoreCandidate(src, model.Candidate{Title: "Karma Police", Artist: "Radiohead Y", Album: "Greatest Hits"})
		plain := s.ScoreCandidate(src, model.Candidate{Title: "Karma Police", Artist: "Radiohead Y", Album: "Some Other Record"})
		assert.Less(t, comp.Combined, plain.Combined)
	})

	t.Run("combined stays within bounds", func(t *testing.T) {
		src := model.SourceTrack{Title: "Yesterday", Artist: "The Beatles", Album: "Help!"}
		c := model.Candidate{Title: "Yesterday", Artist: "The Beatles", Album: "Help!"}
		got := s.ScoreCandidate(src, c)
		assert.LessOrEqual(t, got.Combined, 100.0)
		assert.GreaterOrEqual(t, got.Combined, 0.0)
	})
}

func TestScoreAlbum(t *testing.T) {
	s := New()

	src := model.SourceAlbum{Title: "Abbey Road", Artist: "The Beatles", TotalTracks: 17}
	exact := s.ScoreAlbum(src, model.Candidate{Title: "Abbey Road", Artist: "Beatles", TotalTracks: 17})
	assert.Equal(t, 100.0, exact.Combined)

	differentCount := s.ScoreAlbum(src, model.Candidate{Title: "Abbey Rd", Artist: "Beatles", TotalTracks: 12})
	sameCount := s.ScoreAlbum(src, model.Candidate{Title: "Abbey Rd", Artist: "Beatles", TotalTracks: 17})
	assert.Greater(t, sameCount.Combined, differentCount.Combined)
}
