package ui

import (
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxDistance is the largest edit distance still suggested; short
	// targets allow less, see MaxDistance.
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps the number of suggestions
	DefaultMaxSuggestions = 3
)

type suggestion struct {
	value    string
	distance int
}

// FindSimilar returns the candidates closest to target, closest first.
// Matching ignores case and compares logical type names both in full and
// without their namespace, so "itme" suggests "todo.Item".
//
//	FindSimilar("todo.Itme", []string{"todo.Item", "todo.ItemSummary"})
//	// ["todo.Item"]
func FindSimilar(target string, candidates []string) []string {
	target = strings.ToLower(target)
	limit := MaxDistance(target)

	var found []suggestion
	for _, c := range candidates {
		lc := strings.ToLower(c)
		d := LevenshteinDistance(target, lc)
		if i := strings.LastIndexByte(lc, '.'); i >= 0 {
			d = min(d, LevenshteinDistance(target, lc[i+1:]))
		}
		if d <= limit {
			found = append(found, suggestion{value: c, distance: d})
		}
	}
	slices.SortStableFunc(found, func(a, b suggestion) int {
		return a.distance - b.distance
	})

	out := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(found) && i < DefaultMaxSuggestions; i++ {
		out = append(out, found[i].value)
	}
	return out
}

// MaxDistance is the largest edit distance suggested for target: two
// thirds of its length, at least 1 and at most DefaultMaxDistance.
func MaxDistance(target string) int {
	return min(DefaultMaxDistance, max(1, utf8.RuneCountInString(target)*2/3))
}

// LevenshteinDistance is the number of single-rune insertions, deletions
// or substitutions turning a into b.
//
//	LevenshteinDistance("kitten", "sitting") // 3
func LevenshteinDistance(a, b string) int {
	s, t := []rune(a), []rune(b)
	if len(s) == 0 {
		return len(t)
	}
	if len(t) == 0 {
		return len(s)
	}

	prev := make([]int, len(t)+1)
	cur := make([]int, len(t)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s); i++ {
		cur[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(t)]
}
