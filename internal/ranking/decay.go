package ranking

import (
	"math"
	"time"
)

const (
	// DefaultGravity is the classic hotness exponent.
	DefaultGravity = 1.5
	// HotGravity is the exponent used for the hot index unless configured otherwise.
	HotGravity = 2.0
)

// DecayScore computes (votes-1)/(ageHours+2)^gravity. The -1 discounts the
// submitter's implicit vote, so votes=0 gives a negative score. A negative
// age (creation time ahead of the evaluation time) counts as zero.
func DecayScore(votes int64, ageHours, gravity float64) float64 {
	if ageHours < 0 || math.IsNaN(ageHours) {
		ageHours = 0
	}
	return float64(votes-1) / math.Pow(ageHours+2, gravity)
}

// AgeHours is the age of an item created at createdAt, evaluated at at.
func AgeHours(createdAt, at time.Time) float64 {
	return at.Sub(createdAt).Hours()
}
