package match

import (
	"context"
	"sort"
	"strings"

	"tunebridge/internal/model"
)

// ResolveAlbum matches a saved album. UPC takes precedence exactly as ISRC
// does for tracks; the fuzzy stage scores the album search pool on
// title/artist similarity with a track-count agreement bonus.
func (e *Engine) ResolveAlbum(ctx context.Context, album model.SourceAlbum) (*model.Match, []model.Suggestion) {
	if album.HasKey() {
		candidates := e.retriever.ByKey(ctx, album.UPC, e.cfg.KeySearchLimit)
		for _, c := range candidates {
			if c.UPC != "" && strings.EqualFold(c.UPC, album.UPC) {
				return &model.Match{
					Candidate:  c,
					Kind:       model.MatchExactKey,
					Confidence: 100,
				}, nil
			}
		}
	}

	candidates := e.retriever.AlbumsByText(ctx, album.Title, album.Artist, e.cfg.SearchLimit)

	pool := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		pool = append(pool, scored{candidate: c, scores: e.scorer.ScoreAlbum(album, c)})
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].scores.Combined > pool[j].scores.Combined
	})

	if len(pool) > 0 && pool[0].scores.Combined >= e.cfg.MinCombinedScore {
		best := pool[0]
		e.logger.Debug("Album fuzzy match",
			"title", album.Title,
			"artist", album.Artist,
			"target_title", best.candidate.Title,
			"score", best.scores.Combined)
		return &model.Match{
			Candidate:  best.candidate,
			Kind:       model.MatchFuzzy,
			Confidence: best.scores.Combined,
		}, nil
	}

	return nil, e.suggestions(pool)
}
