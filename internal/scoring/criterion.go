package scoring

import "github.com/samber/lo"

// CriterionType is the category a criterion belongs to
type CriterionType string

const (
	MustHave    CriterionType = "MUST_HAVE"
	NiceToHave  CriterionType = "NICE_TO_HAVE"
	DealBreaker CriterionType = "DEAL_BREAKER"
)

// Valid reports whether t is one of the known criterion types
func (t CriterionType) Valid() bool {
	switch t {
	case MustHave, NiceToHave, DealBreaker:
		return true
	}
	return false
}

// RatingType describes how a nice-to-have is rated
type RatingType string

const (
	Stars   RatingType = "STARS"
	YesNo   RatingType = "YES_NO"
	Scale10 RatingType = "SCALE_10"
)

// Valid reports whether r is one of the known rating types
func (r RatingType) Valid() bool {
	switch r {
	case Stars, YesNo, Scale10:
		return true
	}
	return false
}

// Criterion is a user-defined evaluation rule.
// Weight and RatingType only carry meaning for NiceToHave criteria.
type Criterion struct {
	ID         string        `json:"id"`
	Text       string        `json:"text"`
	Type       CriterionType `json:"type"`
	Category   string        `json:"category,omitempty"`
	Weight     int           `json:"weight,omitempty"`
	RatingType RatingType    `json:"rating_type,omitempty"`
}

// Ratings maps a criterion id to the recorded value for one property.
// Values are booleans or numbers; anything else is coerced conservatively.
type Ratings map[string]any

// CriteriaSet holds criteria grouped by type.
type CriteriaSet struct {
	MustHaves    []Criterion `json:"must_haves"`
	NiceToHaves  []Criterion `json:"nice_to_haves"`
	DealBreakers []Criterion `json:"deal_breakers"`
}

// Split groups criteria by type. Criteria with an unknown type are dropped.
func Split(criteria []Criterion) CriteriaSet {
	byType := func(t CriterionType) []Criterion {
		return lo.Filter(criteria, func(c Criterion, _ int) bool { return c.Type == t })
	}
	return CriteriaSet{
		MustHaves:    byType(MustHave),
		NiceToHaves:  byType(NiceToHave),
		DealBreakers: byType(DealBreaker),
	}
}

// Score computes the suitability score of ratings against the set.
func (s CriteriaSet) Score(ratings Ratings) int {
	return ComputeScore(ratings, s.MustHaves, s.NiceToHaves, s.DealBreakers)
}

// Breakdown explains how Score arrives at its result.
func (s CriteriaSet) Breakdown(ratings Ratings) Breakdown {
	return ComputeBreakdown(ratings, s.MustHaves, s.NiceToHaves, s.DealBreakers)
}

// Len returns the total number of criteria in the set.
func (s CriteriaSet) Len() int {
	return len(s.MustHaves) + len(s.NiceToHaves) + len(s.DealBreakers)
}
