package score

import "github.com/hbollon/go-edlib"

// JaroWinkler returns an optional metric that heavily weights matching
// prefixes. Useful for short titles where users and catalogs agree on how a
// name starts but diverge in suffixes.
func JaroWinkler() Metric {
	return func(a, b string) float64 {
		return float64(edlib.JaroWinklerSimilarity(a, b)) * 100
	}
}
