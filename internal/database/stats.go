package database

import (
	"fmt"

	"househunt/internal/models"
)

func (d *Database) GetPropertyStats() (models.PropertyStats, error) {
	var stats models.PropertyStats

	row := d.db.Raw(`
        SELECT
            COUNT(*) as total_properties,
            COUNT(score) as scored_count,
            COALESCE(SUM(CASE WHEN score = 0 THEN 1 ELSE 0 END), 0) as disqualified,
            COALESCE(AVG(score), 0) as average_score,
            COALESCE(ROUND(AVG(price)), 0) as average_price,
            COALESCE(ROUND(AVG(CAST(price AS FLOAT) / NULLIF(living_area, 0))), 0) as price_per_sqm
        FROM properties
    `).Row()
	if err := row.Scan(
		&stats.TotalProperties,
		&stats.ScoredCount,
		&stats.Disqualified,
		&stats.AverageScore,
		&stats.AveragePrice,
		&stats.PricePerSqm,
	); err != nil {
		return stats, fmt.Errorf("failed to query property stats: %w", err)
	}

	var criteriaCount int64
	if err := d.db.Model(&models.Criterion{}).Count(&criteriaCount).Error; err != nil {
		return stats, fmt.Errorf("failed to count criteria: %w", err)
	}
	stats.CriteriaCount = int(criteriaCount)

	var top []models.Property
	err := d.db.Where("score IS NOT NULL").Order("score DESC").Order("id ASC").Limit(1).Find(&top).Error
	if err != nil {
		return stats, fmt.Errorf("failed to query top property: %w", err)
	}
	if len(top) == 1 {
		stats.TopPropertyID = &top[0].ID
		stats.TopScore = top[0].Score
	}

	return stats, nil
}
