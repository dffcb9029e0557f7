// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"strings"

	"github.com/pdiddy/accelerate-engine/pkg/types"
)

// stopwords are dropped before description tokens are compared. Keeping
// the list short is deliberate: over-filtering makes unrelated blurbs
// look alike.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "with": true, "your": true,
}

// nameSimilarity returns the normalized edit-distance similarity of two
// titles in [0,1]: 1 minus the Levenshtein distance over the longer length.
func nameSimilarity(a, b string) float64 {
	a = types.NormalizeName(a)
	b = types.NormalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	return 1 - float64(levenshtein(a, b))/float64(longer)
}

// levenshtein computes the edit distance between two strings using a
// single-row dynamic programming table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current := make([]int, len(rb)+1)
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			current[j] = min3(
				prev[j]+1,      // deletion
				current[j-1]+1, // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev = current
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// descSimilarity returns the Jaccard similarity of the stopword-filtered
// keyword sets of two descriptions in [0,1]. Used only as a
// high-confidence fallback signal.
func descSimilarity(a, b string) float64 {
	setA := keywords(a)
	setB := keywords(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// keywords tokenizes a description into its lowercase non-stopword set.
func keywords(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(types.NormalizeName(text)) {
		if len(w) < 2 || stopwords[w] {
			continue
		}
		set[w] = true
	}
	return set
}

// compositeScore combines name similarity, description similarity, and
// URL-domain equality into a 0-100 ranking score using the configured
// weights.
func compositeScore(item types.ContentItem, stored types.ContentItem, cfg types.DedupConfig) int {
	name := nameSimilarity(item.Title, stored.Title)
	desc := descSimilarity(item.Description, stored.Description)

	domain := 0.0
	if d := types.URLDomain(item.URL); d != "" && d == types.URLDomain(stored.URL) {
		domain = 1.0
	}

	score := cfg.NameWeight*name + cfg.DescWeight*desc + cfg.DomainWeight*domain
	return types.ClampScore(int(score*100 + 0.5))
}
