package scoring

// Outcome summarises which stage decided a score.
type Outcome string

const (
	OutcomeDealBreaker Outcome = "disqualified_deal_breaker"
	OutcomeMustHave    Outcome = "disqualified_must_have"
	OutcomeScored      Outcome = "scored"
	// OutcomeVacuous means both checks passed and nothing was left to weigh.
	OutcomeVacuous Outcome = "vacuous"
)

// CriterionRef identifies a criterion inside a breakdown.
type CriterionRef struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// DealBreakerCheck records whether any deal-breaker was present, and the first one found.
type DealBreakerCheck struct {
	Passed bool          `json:"passed"`
	Failed *CriterionRef `json:"failed,omitempty"`
}

// MustHaveCheck records the must-haves that were not met. Evaluated is false
// when a deal-breaker already decided the outcome.
type MustHaveCheck struct {
	Evaluated bool           `json:"evaluated"`
	Passed    bool           `json:"passed"`
	Failed    []CriterionRef `json:"failed,omitempty"`
}

// NiceToHaveLine is the contribution of one nice-to-have.
type NiceToHaveLine struct {
	CriterionID  string     `json:"criterion_id"`
	Text         string     `json:"text"`
	Category     string     `json:"category,omitempty"`
	RatingType   RatingType `json:"rating_type"`
	Display      string     `json:"display"`
	Weight       int        `json:"weight"`
	Normalized   float64    `json:"normalized"`
	PointsEarned float64    `json:"points_earned"`
	MaxPoints    float64    `json:"max_points"`
}

// Breakdown is a side-effect-free re-derivation of ComputeScore for display.
type Breakdown struct {
	DealBreakers      DealBreakerCheck `json:"deal_breakers"`
	MustHaves         MustHaveCheck    `json:"must_haves"`
	NiceToHaves       []NiceToHaveLine `json:"nice_to_haves"`
	PointsEarned      float64          `json:"points_earned"`
	MaxPossiblePoints float64          `json:"max_possible_points"`
	Score             int              `json:"score"`
	Outcome           Outcome          `json:"outcome"`
}

// Disqualified reports whether a deal-breaker or must-have forced the score to 0.
func (b Breakdown) Disqualified() bool {
	return b.Outcome == OutcomeDealBreaker || b.Outcome == OutcomeMustHave
}

// ComputeBreakdown explains a score. Nice-to-have lines and totals are only
// filled in when neither the deal-breaker nor the must-have check failed.
func ComputeBreakdown(ratings Ratings, mustHaves, niceToHaves, dealBreakers []Criterion) Breakdown {
	b := Breakdown{
		DealBreakers: DealBreakerCheck{Passed: true},
		NiceToHaves:  []NiceToHaveLine{},
	}

	for _, db := range dealBreakers {
		if isTrue(ratings[db.ID]) {
			b.DealBreakers = DealBreakerCheck{Passed: false, Failed: &CriterionRef{ID: db.ID, Text: db.Text}}
			b.Score = MinScore
			b.Outcome = OutcomeDealBreaker
			return b
		}
	}

	b.MustHaves = MustHaveCheck{Evaluated: true, Passed: true}
	for _, mh := range mustHaves {
		if !isTruthy(ratings[mh.ID]) {
			b.MustHaves.Passed = false
			b.MustHaves.Failed = append(b.MustHaves.Failed, CriterionRef{ID: mh.ID, Text: mh.Text})
		}
	}
	if !b.MustHaves.Passed {
		b.Score = MinScore
		b.Outcome = OutcomeMustHave
		return b
	}

	for _, n := range niceToHaves {
		rt := effectiveRatingType(n)
		raw := ratings[n.ID]
		earned, possible := niceToHavePoints(ratings, n)
		b.NiceToHaves = append(b.NiceToHaves, NiceToHaveLine{
			CriterionID:  n.ID,
			Text:         n.Text,
			Category:     n.Category,
			RatingType:   rt,
			Display:      DisplayRating(raw, rt),
			Weight:       int(effectiveWeight(n)),
			Normalized:   NormalizeRating(raw, rt),
			PointsEarned: earned,
			MaxPoints:    possible,
		})
		b.PointsEarned += earned
		b.MaxPossiblePoints += possible
	}

	b.Score = scoreFromPoints(b.PointsEarned, b.MaxPossiblePoints)
	b.Outcome = OutcomeScored
	if b.MaxPossiblePoints <= 0 {
		b.Outcome = OutcomeVacuous
	}
	return b
}

// ScoreFromTotals re-derives a score from a breakdown's aggregate points.
func (b Breakdown) ScoreFromTotals() int {
	if b.Disqualified() {
		return MinScore
	}
	return scoreFromPoints(b.PointsEarned, b.MaxPossiblePoints)
}
