// Package match implements the decision engine that resolves a source item to
// a target candidate or a ranked list of near-miss suggestions. Stages run in
// a strict order and short-circuit on the first success: exact key, primary
// fuzzy, then a sequence of fallback query strategies. The engine has no
// error states; "no match" is a regular outcome.
package match

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"tunebridge/internal/model"
	"tunebridge/internal/normalize"
	"tunebridge/internal/score"
)

// Engine resolves source items against a searchable target catalog.
type Engine struct {
	retriever Retriever
	scorer    *score.Scorer
	logger    *slog.Logger
	cfg       Config
}

// New creates an engine with default configuration.
func New(retriever Retriever, scorer *score.Scorer, logger *slog.Logger) *Engine {
	return NewWithConfig(retriever, scorer, logger, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(retriever Retriever, scorer *score.Scorer, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		retriever: retriever,
		scorer:    scorer,
		logger:    logger,
		cfg:       cfg,
	}
}

// scored pairs a candidate with its component scores and duration delta.
type scored struct {
	candidate model.Candidate
	scores    score.Scores
	deltaMS   int
}

// Resolve matches a source track. It returns either a match or a (possibly
// empty) suggestion list, never both and never an error: retrieval failures
// inside a stage are treated as empty candidate pools.
func (e *Engine) Resolve(ctx context.Context, track model.SourceTrack) (*model.Match, []model.Suggestion) {
	if m := e.matchByKey(ctx, track); m != nil {
		return m, nil
	}

	pool := e.scorePool(track, e.retriever.ByText(ctx, track.Title, track.Artist, e.cfg.SearchLimit))

	if m := e.acceptPrimary(track, pool); m != nil {
		return m, nil
	}

	if m := e.matchFallback(ctx, track); m != nil {
		return m, nil
	}

	return nil, e.suggestions(pool)
}

// matchByKey is the exact-key stage. A byte-exact case-insensitive ISRC hit
// wins outright regardless of how dissimilar the text metadata is.
func (e *Engine) matchByKey(ctx context.Context, track model.SourceTrack) *model.Match {
	if !track.HasKey() {
		return nil
	}

	candidates := e.retriever.ByKey(ctx, track.ISRC, e.cfg.KeySearchLimit)
	if m := scanForKey(candidates, track.ISRC); m != nil {
		e.logger.Debug("Exact key match", "isrc", track.ISRC, "target_id", m.Candidate.ID)
		return m
	}

	// Some catalogs have incomplete key-search indexes; a text query can
	// still surface the exact record.
	if track.Title != "" || track.Artist != "" {
		candidates = e.retriever.ByText(ctx, track.Title, track.Artist, e.cfg.KeySearchLimit)
		if m := scanForKey(candidates, track.ISRC); m != nil {
			e.logger.Debug("Exact key match via text query", "isrc", track.ISRC, "target_id", m.Candidate.ID)
			return m
		}
	}

	return nil
}

func scanForKey(candidates []model.Candidate, key string) *model.Match {
	for _, c := range candidates {
		if c.ISRC != "" && strings.EqualFold(c.ISRC, key) {
			return &model.Match{
				Candidate:  c,
				Kind:       model.MatchExactKey,
				Confidence: 100,
			}
		}
	}
	return nil
}

// acceptPrimary applies the primary fuzzy acceptance rule to a scored pool.
func (e *Engine) acceptPrimary(track model.SourceTrack, pool []scored) *model.Match {
	if len(pool) == 0 {
		return nil
	}

	best := pool[0]
	if best.scores.Combined >= e.cfg.MinCombinedScore && e.withinTolerance(track, best) {
		e.logger.Debug("Fuzzy match",
			"title", track.Title,
			"artist", track.Artist,
			"target_title", best.candidate.Title,
			"score", best.scores.Combined)
		return &model.Match{
			Candidate:  best.candidate,
			Kind:       model.MatchFuzzy,
			Confidence: best.scores.Combined,
		}
	}

	return nil
}

// matchFallback tries the alternative query strategies in order, each gated
// by a combined-score threshold and the duration tolerance.
func (e *Engine) matchFallback(ctx context.Context, track model.SourceTrack) *model.Match {
	// Album-name disambiguation: the artist string may search poorly while
	// the album name is distinctive.
	if track.Album != "" {
		pool := e.scorePool(track, e.retriever.ByText(ctx, track.Title, track.Album, e.cfg.SearchLimit))
		if m := e.acceptFallback(track, pool, model.MatchFuzzyAlbum); m != nil {
			return m
		}
	}

	// Aggressively-cleaned retry, only when it differs from what the primary
	// stage already queried.
	cleanTitle := normalize.CleanAggressive(track.Title)
	if cleanTitle != "" && cleanTitle != normalize.Clean(track.Title) {
		cleanArtist := normalize.CleanAggressive(track.Artist)
		pool := e.scorePool(track, e.retriever.ByText(ctx, cleanTitle, cleanArtist, e.cfg.SearchLimit))
		if m := e.acceptFallback(track, pool, model.MatchFuzzyClean); m != nil {
			return m
		}
	}

	// Primary-artist-only retry: some catalogs index collaborations under the
	// primary artist alone.
	if primary, featured := normalize.SplitFeatured(track.Artist); len(featured) > 0 {
		pool := e.scorePool(track, e.retriever.ByText(ctx, track.Title, primary, e.cfg.SearchLimit))
		if m := e.acceptFallback(track, pool, model.MatchFuzzyPrimaryArtist); m != nil {
			return m
		}
	}

	return e.matchTitleOnly(ctx, track)
}

func (e *Engine) acceptFallback(track model.SourceTrack, pool []scored, kind model.MatchKind) *model.Match {
	for _, sc := range pool {
		if sc.scores.Combined >= e.cfg.FallbackScore && e.withinTolerance(track, sc) {
			e.logger.Debug("Fallback match",
				"kind", kind,
				"title", track.Title,
				"target_title", sc.candidate.Title,
				"score", sc.scores.Combined)
			return &model.Match{
				Candidate:  sc.candidate,
				Kind:       kind,
				Confidence: sc.scores.Combined,
			}
		}
	}
	return nil
}

// matchTitleOnly is the last resort: query by title alone and demand a very
// high title score, minimal artist plausibility, and tight duration. Two
// different artists covering the same song is the classic false positive
// here, hence the strict gates.
func (e *Engine) matchTitleOnly(ctx context.Context, track model.SourceTrack) *model.Match {
	pool := e.scorePool(track, e.retriever.ByText(ctx, track.Title, "", e.cfg.SearchLimit))

	for _, sc := range pool {
		if sc.scores.Title < e.cfg.TitleOnlyScore {
			continue
		}
		if sc.scores.Artist < e.cfg.TitleOnlyArtistFloor {
			continue
		}
		if !deltaWithin(track, sc, e.cfg.TitleOnlyTolerance) {
			continue
		}
		e.logger.Debug("Title-only match",
			"title", track.Title,
			"target_title", sc.candidate.Title,
			"title_score", sc.scores.Title)
		return &model.Match{
			Candidate:  sc.candidate,
			Kind:       model.MatchFuzzyTitleOnly,
			Confidence: sc.scores.Combined,
		}
	}

	return nil
}

// suggestions filters the primary-stage pool down to plausible near-misses.
// The artist floor keeps correctly-titled covers by unrelated artists out of
// the list entirely.
func (e *Engine) suggestions(pool []scored) []model.Suggestion {
	var out []model.Suggestion
	for _, sc := range pool {
		if sc.scores.Combined < e.cfg.SuggestionFloor {
			continue
		}
		if sc.scores.Artist < e.cfg.SuggestionArtistFloor {
			continue
		}
		out = append(out, model.Suggestion{
			CandidateID:     sc.candidate.ID,
			Title:           sc.candidate.Title,
			Artist:          sc.candidate.Artist,
			Album:           sc.candidate.Album,
			Confidence:      sc.scores.Combined,
			TitleScore:      sc.scores.Title,
			ArtistScore:     sc.scores.Artist,
			DurationDeltaMS: sc.deltaMS,
		})
		if len(out) == model.MaxSuggestions {
			break
		}
	}
	return out
}

// scorePool scores every candidate and sorts descending by combined score,
// breaking ties toward the smaller duration delta.
func (e *Engine) scorePool(track model.SourceTrack, candidates []model.Candidate) []scored {
	pool := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		pool = append(pool, scored{
			candidate: c,
			scores:    e.scorer.ScoreCandidate(track, c),
			deltaMS:   durationDelta(track.DurationMS, c.DurationMS),
		})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].scores.Combined != pool[j].scores.Combined {
			return pool[i].scores.Combined > pool[j].scores.Combined
		}
		return pool[i].deltaMS < pool[j].deltaMS
	})

	return pool
}

func (e *Engine) withinTolerance(track model.SourceTrack, sc scored) bool {
	return deltaWithin(track, sc, durationTolerance(track.DurationMS))
}

func deltaWithin(track model.SourceTrack, sc scored, tolerance time.Duration) bool {
	// Without durations on both sides there is nothing to gate on.
	if track.DurationMS == 0 || sc.candidate.DurationMS == 0 {
		return true
	}
	return time.Duration(sc.deltaMS)*time.Millisecond <= tolerance
}

func durationDelta(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return d
}
