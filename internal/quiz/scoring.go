package quiz

import (
	"math"
	"slices"
)

// MaxPoints is what an instant correct answer earns under LinearScoring
const MaxPoints = 1000

// ScoringFunc computes the points of one answer. Implementations must be
// deterministic and non-increasing in responseTimeMs.
type ScoringFunc func(responseTimeMs int64, answerTimeSec int, wasCorrect bool) int

// LinearScoring awards MaxPoints for an instant correct answer, decaying
// linearly to half of it at the deadline. Wrong answers earn nothing.
func LinearScoring(responseTimeMs int64, answerTimeSec int, wasCorrect bool) int {
	if !wasCorrect {
		return 0
	}
	limitMs := int64(answerTimeSec) * 1000
	if limitMs <= 0 {
		return MaxPoints
	}
	elapsed := min(max(responseTimeMs, 0), limitMs)
	fraction := float64(elapsed) / float64(limitMs)
	return int(math.Round(MaxPoints * (1 - fraction/2)))
}

// isCorrect compares the chosen indices with the answer key as sets
func isCorrect(chosen, correct []int) bool {
	if len(chosen) != len(correct) {
		return false
	}
	a := slices.Clone(chosen)
	b := slices.Clone(correct)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

// clampResponse bounds an elapsed duration to [0, answerTime]
func clampResponse(elapsedMs int64, answerTimeSec int) int64 {
	return min(max(elapsedMs, 0), int64(answerTimeSec)*1000)
}
