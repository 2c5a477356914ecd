package model

// MatchKind indicates which matching stage produced a match.
type MatchKind string

// Match kind constants, ordered from most to least reliable.
const (
	MatchExactKey           MatchKind = "exact_key"
	MatchFuzzy              MatchKind = "fuzzy"
	MatchFuzzyAlbum         MatchKind = "fuzzy_album"
	MatchFuzzyClean         MatchKind = "fuzzy_clean"
	MatchFuzzyPrimaryArtist MatchKind = "fuzzy_primary_artist"
	MatchFuzzyTitleOnly     MatchKind = "fuzzy_title_only"
)

// Match is a confident resolution of a source item to a target candidate.
// Confidence is always within [0,100]; exact-key matches are always 100.
type Match struct {
	Candidate  Candidate
	Kind       MatchKind
	Confidence float64
}

// Exact reports whether the match was made on an ISRC/UPC key.
func (m Match) Exact() bool {
	return m.Kind == MatchExactKey
}

// MaxSuggestions caps the ranked near-miss list surfaced for human review.
const MaxSuggestions = 5

// Suggestion is a near-miss candidate surfaced when no automatic match
// cleared threshold, annotated with component scores for human review.
type Suggestion struct {
	CandidateID     string  `json:"candidate_id"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Album           string  `json:"album"`
	Confidence      float64 `json:"confidence"`
	TitleScore      float64 `json:"title_score"`
	ArtistScore     float64 `json:"artist_score"`
	DurationDeltaMS int     `json:"duration_delta_ms"`
}
