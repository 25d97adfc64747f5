package grading

import (
	"math"
	"strconv"
)

// roundHalfUp rounds to the given number of decimal places, ties upward
// (0.125 @ 2 -> 0.13). Scores are never negative.
func roundHalfUp(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	pow := math.Pow(10, float64(precision))
	return math.Floor(v*pow+0.5) / pow
}

// FormatScore renders the "score/maxScore" display string consumed by the
// simpler manual-grading views. Display only; grading decisions never read
// it back.
func FormatScore(score, maxScore float64) string {
	return formatNumber(score) + "/" + formatNumber(maxScore)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
