package ingest

import (
	"strings"

	"github.com/neg-0/overwatch/pkg/models"
)

const traceabilityOverlapThreshold = 0.15

// tokenize lowercases and splits on runs of characters other than ASCII
// letters and digits, keeping only words
// longer than 3 characters (per §4.6's traceability rule).
func tokenize(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) > 3 {
			set[w] = struct{}{}
		}
	}
	return set
}

func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(shared) / float64(smaller)
}

// BestMatchingPriority finds the strategy priority whose objective+
// description has the highest keyword-overlap ratio against extractedText,
// returning ok=false if no candidate clears the 0.15 threshold.
func BestMatchingPriority(extractedText string, candidates []models.StrategyPriority) (models.StrategyPriority, bool) {
	extracted := tokenize(extractedText)

	var best models.StrategyPriority
	bestRatio := 0.0
	found := false

	for _, c := range candidates {
		ratio := overlapRatio(extracted, tokenize(c.Objective+" "+c.Description))
		if ratio >= traceabilityOverlapThreshold && ratio > bestRatio {
			best = c
			bestRatio = ratio
			found = true
		}
	}
	return best, found
}
