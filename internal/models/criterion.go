package models

import (
	"time"

	"househunt/internal/scoring"
)

// DefaultWeight is used when a nice-to-have carries no valid weight
const DefaultWeight = 5

// Criterion is the stored form of a scoring rule. Weight and RatingType are
// only set for nice-to-haves; Sanitize keeps it that way.
type Criterion struct {
	ID         string                `gorm:"primaryKey;type:text" json:"id"`
	Text       string                `gorm:"not null" json:"text"`
	Type       scoring.CriterionType `gorm:"type:text;not null;index" json:"type"`
	Category   string                `json:"category,omitempty"`
	Weight     *int                  `json:"weight,omitempty"`
	RatingType *scoring.RatingType   `gorm:"type:text" json:"rating_type,omitempty"`
	Position   int                   `gorm:"default:0" json:"position"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// Sanitize enforces the weight/rating type invariant. Nice-to-haves get
// DefaultWeight for a missing or out-of-range weight and STARS for a missing
// or unknown rating type; the other kinds lose both fields.
func (c *Criterion) Sanitize() {
	if c.Type != scoring.NiceToHave {
		c.Weight = nil
		c.RatingType = nil
		return
	}

	if c.Weight == nil || *c.Weight < 1 || *c.Weight > 10 {
		w := DefaultWeight
		c.Weight = &w
	}
	if c.RatingType == nil || !c.RatingType.Valid() {
		rt := scoring.Stars
		c.RatingType = &rt
	}
}

// ToScoring converts the stored criterion into the scorer's value type.
func (c Criterion) ToScoring() scoring.Criterion {
	sc := scoring.Criterion{
		ID:       c.ID,
		Text:     c.Text,
		Type:     c.Type,
		Category: c.Category,
	}
	if c.Weight != nil {
		sc.Weight = *c.Weight
	}
	if c.RatingType != nil {
		sc.RatingType = *c.RatingType
	}
	return sc
}

// CriteriaSet groups stored criteria for scoring
func CriteriaSet(criteria []Criterion) scoring.CriteriaSet {
	converted := make([]scoring.Criterion, len(criteria))
	for i, c := range criteria {
		converted[i] = c.ToScoring()
	}
	return scoring.Split(converted)
}
