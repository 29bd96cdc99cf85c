package matching

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SimilarityCutoff is the minimum ratio accepted by the similarity tier.
const SimilarityCutoff = 0.4

// Ratio returns the character-level sequence similarity of a and b in [0, 1],
// computed as 2*M/T where M is the number of matched characters and T the
// total length of both strings.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "")
}

// closestName returns the candidate with the highest Ratio against query,
// provided it reaches cutoff. Equal ratios prefer the lexicographically
// greater candidate.
func closestName(query string, candidates []string, cutoff float64) (string, float64, bool) {
	var (
		best      string
		bestRatio float64
		found     bool
	)
	for _, c := range candidates {
		r := Ratio(c, query)
		if r < cutoff {
			continue
		}
		if !found || r > bestRatio || (r == bestRatio && c > best) {
			best, bestRatio, found = c, r, true
		}
	}
	return best, bestRatio, found
}
