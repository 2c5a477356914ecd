package match

import "time"

// Config holds the engine's tuning knobs. The numbers were tuned empirically
// against real libraries and are surfaced as configuration rather than baked
// into call sites; see cmd for the viper bindings.
type Config struct {
	// SearchLimit is the candidate over-fetch for text queries.
	SearchLimit int
	// KeySearchLimit is the over-fetch for exact-key queries. Exact-key
	// search engines can still return noisy results, so fetch wide and scan.
	KeySearchLimit int

	// MinCombinedScore accepts the top candidate in the primary fuzzy stage.
	MinCombinedScore float64
	// FallbackScore is the (lower) acceptance threshold for the fallback
	// query strategies.
	FallbackScore float64
	// TitleOnlyScore is the title threshold for the title-only last resort.
	// Deliberately strict: this path has the highest false-positive risk.
	TitleOnlyScore float64
	// TitleOnlyArtistFloor is the minimal artist plausibility required by the
	// title-only last resort.
	TitleOnlyArtistFloor float64
	// TitleOnlyTolerance is the duration gate for the title-only last resort.
	TitleOnlyTolerance time.Duration

	// SuggestionFloor is the minimum combined score for a near-miss to be
	// surfaced at all.
	SuggestionFloor float64
	// SuggestionArtistFloor keeps correctly-titled songs by completely
	// different artists out of the suggestion list.
	SuggestionArtistFloor float64
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		SearchLimit:           15,
		KeySearchLimit:        25,
		MinCombinedScore:      70,
		FallbackScore:         65,
		TitleOnlyScore:        92,
		TitleOnlyArtistFloor:  40,
		TitleOnlyTolerance:    3 * time.Second,
		SuggestionFloor:       40,
		SuggestionArtistFloor: 50,
	}
}

// durationTolerance returns the accepted duration delta for a track of the
// given nominal length. Short tracks have less room for legitimate
// remaster/live drift, so the tolerance scales with length instead of being a
// single constant.
func durationTolerance(durationMS int) time.Duration {
	d := time.Duration(durationMS) * time.Millisecond
	switch {
	case d < 2*time.Minute:
		return 3 * time.Second
	case d < 4*time.Minute:
		return 5 * time.Second
	case d < 8*time.Minute:
		return 10 * time.Second
	default:
		return 30 * time.Second
	}
}
