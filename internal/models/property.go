package models

import (
	"time"

	"github.com/samber/lo"
	"gorm.io/datatypes"

	"househunt/internal/scoring"
)

// Property statuses along the buying process
const (
	StatusInterested       = "interested"
	StatusViewingScheduled = "viewing_scheduled"
	StatusViewed           = "viewed"
	StatusOfferMade        = "offer_made"
	StatusRejected         = "rejected"
	StatusPurchased        = "purchased"
)

// PropertyStatuses lists every valid status
var PropertyStatuses = []string{
	StatusInterested,
	StatusViewingScheduled,
	StatusViewed,
	StatusOfferMade,
	StatusRejected,
	StatusPurchased,
}

type Property struct {
	ID                 int64             `gorm:"primaryKey" json:"id"`
	URL                string            `json:"url"`
	Street             string            `json:"street"`
	Neighborhood       string            `json:"neighborhood"`
	City               string            `gorm:"index" json:"city"`
	PostalCode         string            `json:"postal_code"`
	PropertyType       string            `json:"property_type"`
	Price              int               `json:"price"`
	YearBuilt          *int              `json:"year_built"`
	LivingArea         *int              `json:"living_area"`
	NumRooms           *int              `json:"num_rooms"`
	Status             string            `gorm:"index" json:"status"`
	Notes              string            `json:"notes"`
	Latitude           *float64          `json:"latitude"`
	Longitude          *float64          `json:"longitude"`
	GeocodingAttempted bool              `gorm:"default:false" json:"-"`
	Ratings            datatypes.JSONMap `json:"ratings"`
	Score              *int              `gorm:"index" json:"score"`
	ScoredAt           *time.Time        `json:"scored_at"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// RatingsMap returns the property's ratings in the form the scorer expects.
func (p *Property) RatingsMap() scoring.Ratings {
	if p.Ratings == nil {
		return scoring.Ratings{}
	}
	return scoring.Ratings(p.Ratings)
}

// PropertyIDs returns the ids of properties in order
func PropertyIDs(properties []Property) []int64 {
	return lo.Map(properties, func(p Property, _ int) int64 { return p.ID })
}

// MergeRatings applies updates on top of current and returns a new map.
// A nil update value removes the rating.
func MergeRatings(current, updates map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(current)+len(updates))
	for id, value := range current {
		merged[id] = value
	}
	for id, value := range updates {
		if value == nil {
			delete(merged, id)
			continue
		}
		merged[id] = value
	}
	return merged
}

// HasCoordinates reports whether the property can be placed on the map
func (p *Property) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// PricePerSqm returns 0 when the living area is unknown
func (p *Property) PricePerSqm() float64 {
	if p.LivingArea == nil || *p.LivingArea <= 0 {
		return 0
	}
	return float64(p.Price) / float64(*p.LivingArea)
}

// PropertyFilter narrows property listings
type PropertyFilter struct {
	City     string
	Status   string
	MinScore *int
	IDs      []int64
	Sort     string
}

// Sort orders accepted by PropertyFilter
const (
	SortScoreDesc   = "score_desc"
	SortPriceAsc    = "price_asc"
	SortPriceDesc   = "price_desc"
	SortCreatedDesc = "created_desc"
)

type PropertyStats struct {
	TotalProperties int     `json:"total_properties"`
	ScoredCount     int     `json:"scored_count"`
	Disqualified    int     `json:"disqualified"`
	AverageScore    float64 `json:"average_score"`
	AveragePrice    float64 `json:"average_price"`
	PricePerSqm     float64 `json:"price_per_sqm"`
	CriteriaCount   int     `json:"criteria_count"`
	TopPropertyID   *int64  `json:"top_property_id"`
	TopScore        *int    `json:"top_score"`
}
