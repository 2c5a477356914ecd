package normalize

import (
	"regexp"
	"strings"
)

// featSplit captures the primary artist before an explicit featuring keyword
// and the featured tail after it, bracketed or inline.
var featSplit = regexp.MustCompile(`(?i)^(.*?)(?:[(\[]\s*|\s+)(?:feat\.?|ft\.?|featuring|with)\s+(.+?)[)\]]?\s*$`)

// featuredSep splits a featured tail like "B, C & D" into individual names.
var featuredSep = regexp.MustCompile(`(?i)\s*(?:,|&|\band\b)\s*`)

// knownDuos lists group names that contain bare separators but must never be
// split. Matched as a case-insensitive substring in either direction so that
// "Simon & Garfunkel feat. X" is still recognized.
var knownDuos = []string{
	"simon & garfunkel",
	"hall & oates",
	"daryl hall & john oates",
	"earth, wind & fire",
	"crosby, stills & nash",
	"emerson, lake & palmer",
	"ike & tina turner",
	"brooks & dunn",
	"she & him",
	"angus & julia stone",
	"tegan and sara",
	"hootie & the blowfish",
	"iron & wine",
	"above & beyond",
	"salt-n-pepa",
	"mumford & sons",
}

// SplitFeatured separates an artist string into the primary artist and any
// featured artists. Only explicit featuring keywords trigger a split; bare
// "&", "," and "and" are treated as part of the name. Known duo and group
// names are never split. When nothing applies the original string is returned
// with a nil featured list.
func SplitFeatured(artist string) (string, []string) {
	trimmed := strings.TrimSpace(artist)
	if trimmed == "" {
		return artist, nil
	}

	lower := strings.ToLower(trimmed)
	for _, duo := range knownDuos {
		if strings.Contains(lower, duo) || strings.Contains(duo, lower) {
			return artist, nil
		}
	}

	m := featSplit.FindStringSubmatch(trimmed)
	if m == nil {
		return artist, nil
	}

	primary := strings.TrimSpace(m[1])
	if primary == "" {
		return artist, nil
	}

	var featured []string
	for _, name := range featuredSep.Split(m[2], -1) {
		name = strings.TrimSpace(name)
		if name != "" {
			featured = append(featured, name)
		}
	}

	return primary, featured
}

// ArtistVariants returns the primary artist plus every featured artist,
// primary first. Used by the scorer to compare collaborator orderings.
func ArtistVariants(artist string) []string {
	primary, featured := SplitFeatured(artist)
	variants := make([]string, 0, len(featured)+1)
	variants = append(variants, primary)
	variants = append(variants, featured...)
	return variants
}
