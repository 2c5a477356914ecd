// Package score computes bounded [0,100] similarity between source items and
// target candidates. Several string-distance algorithms run per comparison
// and the best result wins: different algorithms catch different deformation
// classes (reordering, truncation, subset phrases), and taking the max avoids
// penalizing a correct match just because one algorithm is a poor fit.
package score

import (
	"strings"

	fuzz "github.com/paul-mannino/go-fuzzywuzzy"

	"tunebridge/internal/model"
	"tunebridge/internal/normalize"
)

// Metric is an additional similarity algorithm returning a [0,100] score.
// Extra metrics are selected at construction time, not per call.
type Metric func(a, b string) float64

// Scorer combines title, artist and album signals into one confidence score.
type Scorer struct {
	extra []Metric
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithMetric adds an extra similarity algorithm to the base set.
func WithMetric(m Metric) Option {
	return func(s *Scorer) {
		s.extra = append(s.extra, m)
	}
}

// New creates a Scorer with the base algorithm set plus any options.
func New(opts ...Option) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scores for a candidate, before and after combining.
type Scores struct {
	Title    float64
	Artist   float64
	Combined float64
}

// Thresholds inside candidate scoring. The pair threshold keeps weak
// cross-variant artist agreements from inflating the artist score; the
// title-partial threshold guards the featured-artist-in-title heuristic.
const (
	artistPairFloor    = 80
	artistInTitleFloor = 70
	albumStrongRatio   = 85
	albumWeakRatio     = 70
	albumStrongBonus   = 8
	albumWeakBonus     = 4
	compilationPenalty = 5
)

var compilationKeywords = []string{
	"greatest hits",
	"best of",
	"the very best",
	"anthology",
	"collection",
	"essential",
	"compilation",
	"gold",
}

// Fuzzy returns the best similarity across all configured algorithms.
func (s *Scorer) Fuzzy(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	best := float64(fuzz.Ratio(a, b))
	if v := float64(fuzz.TokenSortRatio(a, b)); v > best {
		best = v
	}
	if v := float64(fuzz.TokenSetRatio(a, b)); v > best {
		best = v
	}
	if v := float64(fuzz.PartialRatio(a, b)); v > best {
		best = v
	}
	for _, m := range s.extra {
		if v := m(a, b); v > best {
			best = v
		}
	}

	return clamp(best)
}

// ScoreCandidate scores a target candidate against a source track. Title and
// artist carry equal weight; a matching album nudges the score up and a
// compilation-only album nudges it down.
func (s *Scorer) ScoreCandidate(src model.SourceTrack, c model.Candidate) Scores {
	srcTitle := normalize.Clean(src.Title)
	srcArtist := normalize.Clean(src.Artist)
	candTitle := normalize.Clean(c.Title)
	candArtist := normalize.Clean(c.Artist)

	title := s.Fuzzy(srcTitle, candTitle)
	// The raw candidate title is kept for the featured-artist-in-title check:
	// cleaning strips exactly the bracket that heuristic needs.
	artist := s.artistScore(src.Artist, c.Artist, srcArtist, candArtist, strings.ToLower(c.Title))

	combined := title*0.5 + artist*0.5
	combined = s.albumAdjust(combined, src.Album, c.Album)

	return Scores{
		Title:    title,
		Artist:   artist,
		Combined: clamp(combined),
	}
}

// ScoreAlbum scores an album candidate. Track-count agreement substitutes for
// the duration signal tracks have.
func (s *Scorer) ScoreAlbum(src model.SourceAlbum, c model.Candidate) Scores {
	title := s.Fuzzy(normalize.Clean(src.Title), normalize.Clean(c.Title))
	artist := s.Fuzzy(normalize.Clean(src.Artist), normalize.Clean(c.Artist))

	combined := title*0.5 + artist*0.5
	if src.TotalTracks > 0 && src.TotalTracks == c.TotalTracks {
		combined += albumWeakBonus
	}

	return Scores{
		Title:    title,
		Artist:   artist,
		Combined: clamp(combined),
	}
}

// artistScore takes the best of several artist comparisons. Artist strings
// vary wildly in how collaborators are ordered and punctuated, so a single
// direct comparison under-scores legitimate matches.
func (s *Scorer) artistScore(srcRaw, candRaw, srcClean, candClean, candTitleRaw string) float64 {
	best := s.Fuzzy(srcClean, candClean)

	srcPrimary, _ := normalize.SplitFeatured(srcRaw)
	candPrimary, _ := normalize.SplitFeatured(candRaw)
	if v := s.Fuzzy(normalize.Clean(srcPrimary), normalize.Clean(candPrimary)); v > best {
		best = v
	}

	for _, sv := range normalize.ArtistVariants(srcRaw) {
		for _, cv := range normalize.ArtistVariants(candRaw) {
			v := s.Fuzzy(normalize.Clean(sv), normalize.Clean(cv))
			if v > artistPairFloor && v > best {
				best = v
			}
		}
	}

	// Some catalogs fold the featured artist into the title.
	if srcClean != "" && candTitleRaw != "" {
		if v := float64(fuzz.PartialRatio(srcClean, candTitleRaw)); v > artistInTitleFloor && v > best {
			best = v
		}
	}

	return clamp(best)
}

func (s *Scorer) albumAdjust(combined float64, srcAlbum, candAlbum string) float64 {
	srcClean := normalize.Clean(srcAlbum)
	candClean := normalize.Clean(candAlbum)
	if srcClean == "" || candClean == "" {
		return combined
	}

	ratio := fuzz.TokenSortRatio(srcClean, candClean)
	switch {
	case ratio > albumStrongRatio:
		return combined + albumStrongBonus
	case ratio > albumWeakRatio:
		return combined + albumWeakBonus
	}

	// Compilation albums are disproportionately likely to be wrong-album
	// false positives.
	if isCompilation(candClean) && !isCompilation(srcClean) {
		return combined - compilationPenalty
	}

	return combined
}

func isCompilation(album string) bool {
	for _, kw := range compilationKeywords {
		if album == kw ||
			strings.HasPrefix(album, kw+" ") ||
			strings.HasSuffix(album, " "+kw) ||
			strings.Contains(album, " "+kw+" ") {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
