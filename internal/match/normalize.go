package match

import (
	"strings"

	"golang.org/x/text/width"
)

// normalize lowercases and trims a string and folds full-width characters to
// their half-width forms. QA documents arrive translated from Japanese and
// part numbers are frequently typed in full-width ASCII.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(width.Narrow.String(s)))
}

// tokens splits a normalized string into its whitespace-delimited word set.
func tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalize(s)) {
		set[w] = struct{}{}
	}
	return set
}

// jaccard computes the Jaccard index of two word sets along with the size of
// their intersection.
func jaccard(a, b map[string]struct{}) (index float64, common int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0
	}
	for w := range a {
		if _, ok := b[w]; ok {
			common++
		}
	}
	union := len(a) + len(b) - common
	if union == 0 {
		return 0, 0
	}
	return float64(common) / float64(union), common
}
