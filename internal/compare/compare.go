// Package compare ranks properties side by side for the comparison view.
package compare

import (
	"sort"

	"github.com/samber/lo"

	"househunt/internal/models"
	"househunt/internal/scoring"
)

type Row struct {
	Rank         int                `json:"rank"`
	PropertyID   int64              `json:"property_id"`
	Street       string             `json:"street"`
	City         string             `json:"city"`
	Price        int                `json:"price"`
	PricePerSqm  float64            `json:"price_per_sqm"`
	Status       string             `json:"status"`
	Score        *int               `json:"score"`
	CachedScore  *int               `json:"cached_score"`
	Stale        bool               `json:"stale"`
	Outcome      scoring.Outcome    `json:"outcome,omitempty"`
	Disqualified bool               `json:"disqualified"`
	Ratings      map[string]string  `json:"ratings"`
	Breakdown    *scoring.Breakdown `json:"-"`
}

// Options controls how rows are scored
type Options struct {
	// Live recomputes every score from current criteria instead of using the cache
	Live  bool
	Limit int
}

// Rank scores and orders properties: highest score first, then cheaper,
// then older. Unscored properties go last. Tied scores share a rank.
func Rank(properties []models.Property, criteria []models.Criterion, opts Options) []Row {
	set := models.CriteriaSet(criteria)

	rows := lo.Map(properties, func(p models.Property, _ int) Row {
		return buildRow(p, set, criteria, opts.Live)
	})

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if (a.Score == nil) != (b.Score == nil) {
			return a.Score != nil
		}
		if a.Score != nil && *a.Score != *b.Score {
			return *a.Score > *b.Score
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.PropertyID < b.PropertyID
	})

	for i := range rows {
		switch {
		case rows[i].Score == nil:
			rows[i].Rank = 0
		case i > 0 && rows[i-1].Score != nil && *rows[i-1].Score == *rows[i].Score:
			rows[i].Rank = rows[i-1].Rank
		default:
			rows[i].Rank = i + 1
		}
	}

	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	return rows
}

func buildRow(p models.Property, set scoring.CriteriaSet, criteria []models.Criterion, live bool) Row {
	ratings := p.RatingsMap()
	breakdown := set.Breakdown(ratings)

	row := Row{
		PropertyID:  p.ID,
		Street:      p.Street,
		City:        p.City,
		Price:       p.Price,
		PricePerSqm: p.PricePerSqm(),
		Status:      p.Status,
		CachedScore: p.Score,
		Stale:       p.Score == nil || *p.Score != breakdown.Score,
		Ratings:     Cells(ratings, criteria),
	}

	if live {
		score := breakdown.Score
		row.Score = &score
		row.Outcome = breakdown.Outcome
		row.Disqualified = breakdown.Disqualified()
		row.Breakdown = &breakdown
	} else if p.Score != nil {
		row.Score = p.Score
		row.Disqualified = *p.Score == scoring.MinScore
	}
	return row
}

// Cells renders each criterion's rating for display, keyed by criterion id
func Cells(ratings scoring.Ratings, criteria []models.Criterion) map[string]string {
	cells := make(map[string]string, len(criteria))
	for _, c := range criteria {
		rt := scoring.YesNo
		if c.Type == scoring.NiceToHave && c.RatingType != nil {
			rt = *c.RatingType
		}
		cells[c.ID] = scoring.DisplayRating(ratings[c.ID], rt)
	}
	return cells
}

// StaleCount counts properties whose cached score differs from a live one
func StaleCount(properties []models.Property, criteria []models.Criterion) int {
	set := models.CriteriaSet(criteria)
	return lo.CountBy(properties, func(p models.Property) bool {
		return p.Score == nil || *p.Score != set.Score(p.RatingsMap())
	})
}
