package rank

import "math"

// MatchType classifies the top result's boosted similarity for the
// analytics sink.
type MatchType string

const (
	MatchFull    MatchType = "full"
	MatchPartial MatchType = "partial"
	MatchNone    MatchType = "none"
)

// Classification thresholds on boosted similarity.
const (
	fullThreshold    = 0.75
	partialThreshold = 0.40
)

// Classify maps a boosted similarity to a match quality.
func Classify(boosted float64) MatchType {
	switch {
	case boosted >= fullThreshold:
		return MatchFull
	case boosted >= partialThreshold:
		return MatchPartial
	default:
		return MatchNone
	}
}

// Score100 converts a similarity to the 0-100 integer scale the
// analytics events carry.
func Score100(boosted float64) int {
	s := math.Round(math.Max(0, math.Min(1, boosted)) * 100)
	return int(s)
}
