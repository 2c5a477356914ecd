// Package normalize canonicalizes free-text track and artist strings so the
// similarity scorer compares like with like. Cleaning is pure and total:
// every input, including the empty string, produces a result.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	featBracket = regexp.MustCompile(`(?i)\s*[(\[](feat\.?|ft\.?|featuring|with|prod\.?|produced by)[^)\]]*[)\]]`)
	featInline  = regexp.MustCompile(`(?i)\s+(feat\.?|ft\.?|featuring|with)\s+.+$`)
	edition     = regexp.MustCompile(`(?i)\s*[(\[][^)\]]*?(remaster|remix|version|edit|mix|live|acoustic|radio|single|album|deluxe|bonus|extended|original|anniversary|\d{4})[^)\]]*[)\]]`)
	editionDash = regexp.MustCompile(`(?i)\s+-\s+[^-]*?(remaster|remix|version|edit|mix|live|acoustic|radio|single|deluxe|bonus|extended|anniversary|mono|stereo)[^-]*$`)
	anyBracket  = regexp.MustCompile(`\s*[(\[][^)\]]*[)\]]`)
	thePrefix   = regexp.MustCompile(`^the\s+`)
	nonAlnum    = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Clean canonicalizes a title or artist string for comparison. The stages run
// in a fixed order; later stages assume the earlier ones have already applied.
func Clean(s string) string {
	if s == "" {
		return ""
	}

	result := strings.ToLower(strings.TrimSpace(s))
	result = stripAccents(result)
	result = featBracket.ReplaceAllString(result, "")
	result = edition.ReplaceAllString(result, "")
	result = editionDash.ReplaceAllString(result, "")
	result = featInline.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " & ", " and ")
	result = thePrefix.ReplaceAllString(result, "")

	return strings.Join(strings.Fields(result), " ")
}

// CleanAggressive applies Clean and then removes all remaining bracketed
// content and every non-alphanumeric character. Used for last-resort fallback
// queries against catalogs that choke on punctuation.
func CleanAggressive(s string) string {
	if s == "" {
		return ""
	}

	result := Clean(s)
	result = anyBracket.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, "'", "")
	result = nonAlnum.ReplaceAllString(result, " ")

	return strings.Join(strings.Fields(result), " ")
}

// stripAccents decomposes to NFD and drops combining marks, folding accented
// characters to their ASCII base. The transformer chain is stateful, so a
// fresh one is built per call to stay safe under concurrent use.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
