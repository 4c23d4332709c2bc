// Package matcher finds candidate (ingredient, product) pairs per store using
// three strategies: exact concept equality, fuzzy string similarity, and
// semantic embedding similarity. All strategies score on a common 0-100 scale.
package matcher

import (
	"sort"
	"strings"
)

// Ratio returns twice the matched character count over the combined length,
// scaled to [0,100]. A short string embedded in a longer one still scores
// well, while strings sharing no characters score 0 regardless of length.
func Ratio(a, b string) float64 {
	if a == b {
		return 100
	}

	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}

	return 200 * float64(matchedRunes(ra, rb)) / float64(total)
}

// matchedRunes is the length of the longest common subsequence, the number
// of characters an optimal alignment keeps from both strings.
func matchedRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// TokenSetRatio compares two strings word-order-insensitively: tokens are
// deduplicated and sorted before scoring, and the shared-token core is scored
// separately so "volle yoghurt" still lines up with "yoghurt". The result is
// the best of the component ratios, scaled to [0,100].
func TokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var shared, onlyA, onlyB []string
	inB := make(map[string]bool, len(tb))
	for _, t := range tb {
		inB[t] = true
	}
	inShared := make(map[string]bool)
	for _, t := range ta {
		if inB[t] {
			shared = append(shared, t)
			inShared[t] = true
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range tb {
		if !inShared[t] {
			onlyB = append(onlyB, t)
		}
	}

	core := strings.Join(shared, " ")
	full1 := strings.Join(append(append([]string{}, shared...), onlyA...), " ")
	full2 := strings.Join(append(append([]string{}, shared...), onlyB...), " ")

	best := Ratio(full1, full2)
	if len(shared) > 0 {
		if r := Ratio(core, full1); r > best {
			best = r
		}
		if r := Ratio(core, full2); r > best {
			best = r
		}
	}
	return best
}

func tokenSet(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			tokens = append(tokens, f)
		}
	}
	sort.Strings(tokens)
	return tokens
}
