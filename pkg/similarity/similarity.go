// Package similarity scores how close a transcript is to a reference phrase.
//
// Two scorers live here on purpose. Edit is used by the intent matcher when
// comparing transcripts with the command corpus; WordOverlap is used by the
// training endpoint and the corpus lookup. Their thresholds were tuned
// separately, so they are not interchangeable.
package similarity

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, composes it to NFC and trims surrounding space.
func Normalize(s string) string {
	return strings.TrimSpace(fold(s))
}

// fold lower-cases s and composes it to NFC. Whitespace counts as text.
func fold(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

// Edit returns the normalized Levenshtein similarity of a and b in [0, 1].
func Edit(a, b string) float64 {
	ra := []rune(fold(a))
	rb := []rune(fold(b))

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}

	d := distance(ra, rb)
	return float64(maxLen-d) / float64(maxLen)
}

// Levenshtein returns the edit distance between a and b counted in runes.
func Levenshtein(a, b string) int {
	return distance([]rune(a), []rune(b))
}

func distance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// two rows are enough
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	return prev[len(b)]
}

// WordOverlap returns the share of words of a that also occur in b,
// divided by the word count of the longer side.
func WordOverlap(a, b string) float64 {
	wa := strings.Fields(Normalize(a))
	wb := strings.Fields(Normalize(b))

	if len(wa) == 0 && len(wb) == 0 {
		return 1.0
	}
	if len(wa) == 0 || len(wb) == 0 {
		return 0.0
	}

	inB := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		inB[w] = struct{}{}
	}

	common := 0
	for _, w := range wa {
		if _, ok := inB[w]; ok {
			common++
		}
	}

	return float64(common) / float64(max(len(wa), len(wb)))
}
