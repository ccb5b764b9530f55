package resolve

// Similarity computes a 0-1 name-similarity score between two names. Both
// names are normalized first; identical normalized forms short-circuit to
// 1.0 without a distance computation. Two empty names are trivially equal
// (1.0); one empty and one not scores 0.0. Otherwise the score is the
// normalized Levenshtein ratio (maxLen - distance) / maxLen over runes.
func Similarity(nameA, nameB string) float64 {
	a := Normalize(nameA)
	b := Normalize(nameB)

	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	ra := []rune(a)
	rb := []rune(b)

	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}

	dist := levenshteinDistance(ra, rb)
	return (float64(longer) - float64(dist)) / float64(longer)
}

// levenshteinDistance computes the edit distance between two rune slices.
func levenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two-row rolling matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = minInt(
				minInt(prev[j]+1, curr[j-1]+1), // deletion, insertion
				prev[j-1]+cost,                 // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
