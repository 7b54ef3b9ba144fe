package mongodb

import (
	"math"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Similarity scores how well a candidate food name matches the query, in
// [0, 1]. Token overlap dominates; an exact normalized match scores 1 and
// shorter candidates win ties via a small length penalty, so "banana"
// outranks "banana bread, toasted" for the query "banana".
func Similarity(query, candidate string) float64 {
	queryTokens := tokenize(query)
	candidateTokens := tokenize(candidate)
	if len(queryTokens) == 0 || len(candidateTokens) == 0 {
		return 0
	}

	if strings.Join(queryTokens, " ") == strings.Join(candidateTokens, " ") {
		return 1
	}

	candidateSet := make(map[string]bool, len(candidateTokens))
	for _, t := range candidateTokens {
		candidateSet[t] = true
	}

	matched := 0
	for _, t := range queryTokens {
		if candidateSet[t] {
			matched++
		}
	}
	overlap := float64(matched) / math.Max(float64(len(queryTokens)), float64(len(candidateTokens)))

	// Penalize extra words beyond the query so the plainest match ranks
	// first among candidates with equal overlap.
	extra := len(candidateTokens) - len(queryTokens)
	if extra < 0 {
		extra = -extra
	}
	score := overlap - 0.01*float64(extra)

	if score < 0 {
		return 0
	}
	return score
}

func tokenize(s string) []string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
	parts := strings.Fields(s)
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
