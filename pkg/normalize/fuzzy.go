package normalize

import "strings"

// DefaultFuzzyThreshold is the minimum similarity for a categorical match.
const DefaultFuzzyThreshold = 0.6

// Similarity scores two strings in [0, 1]. A case-insensitive exact match
// is 1.0; otherwise the score is the count of characters of the shorter
// string present in the other, over the longer length. Cheap, but good
// enough to catch typos in short category labels.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	overlap := 0
	for _, r := range shorter {
		if strings.ContainsRune(longer, r) {
			overlap++
		}
	}
	return float64(overlap) / float64(len(longer))
}

// BestMatch finds the allowed value most similar to the input, if any
// clears the threshold.
func BestMatch(value string, allowed []string, threshold float64) (string, float64, bool) {
	best := ""
	bestScore := 0.0
	for _, candidate := range allowed {
		if score := Similarity(value, candidate); score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if bestScore >= threshold {
		return best, bestScore, true
	}
	return "", bestScore, false
}
