// Package scoring turns a property's ratings and the user's criteria into a
// 0-100 suitability score. Everything here is pure and safe for concurrent use.
package scoring

import "math"

const (
	// MinScore is returned for any disqualified property.
	MinScore = 0
	// MaxScore is returned when nothing optional is left to weigh.
	MaxScore = 100
)

// ComputeScore evaluates, in order: deal-breakers (any true rating gives 0),
// must-haves (any unmet rating gives 0) and weighted nice-to-haves.
func ComputeScore(ratings Ratings, mustHaves, niceToHaves, dealBreakers []Criterion) int {
	for _, db := range dealBreakers {
		if isTrue(ratings[db.ID]) {
			return MinScore
		}
	}

	for _, mh := range mustHaves {
		if !isTruthy(ratings[mh.ID]) {
			return MinScore
		}
	}

	var earned, possible float64
	for _, n := range niceToHaves {
		e, p := niceToHavePoints(ratings, n)
		earned += e
		possible += p
	}
	return scoreFromPoints(earned, possible)
}

func niceToHavePoints(ratings Ratings, c Criterion) (earned, possible float64) {
	w := effectiveWeight(c)
	return NormalizeRating(ratings[c.ID], effectiveRatingType(c)) * w, MaxNormalized * w
}

// scoreFromPoints converts aggregated points into the final score. A zero
// maximum, with or without nice-to-haves, counts as fully satisfied.
func scoreFromPoints(earned, possible float64) int {
	if possible <= 0 {
		return MaxScore
	}
	score := int(math.Round((earned / possible) * 100))
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
