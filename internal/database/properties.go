package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"househunt/internal/models"
	"househunt/internal/scoring"
)

func (d *Database) GetAllProperties(filter models.PropertyFilter) ([]models.Property, error) {
	query := d.db.Model(&models.Property{})

	if filter.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", filter.City)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MinScore != nil {
		query = query.Where("score >= ?", *filter.MinScore)
	}
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}

	switch filter.Sort {
	case models.SortPriceAsc:
		query = query.Order("price ASC").Order("id ASC")
	case models.SortPriceDesc:
		query = query.Order("price DESC").Order("id ASC")
	case models.SortCreatedDesc:
		query = query.Order("created_at DESC").Order("id DESC")
	default:
		query = query.Order("score IS NULL").Order("score DESC").Order("id ASC")
	}

	var properties []models.Property
	if err := query.Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	return properties, nil
}

func (d *Database) GetProperty(id int64) (*models.Property, error) {
	var p models.Property
	if err := d.db.First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (d *Database) CreateProperty(p *models.Property) error {
	if p.Status == "" {
		p.Status = models.StatusInterested
	}
	if p.Ratings == nil {
		p.Ratings = map[string]interface{}{}
	}
	p.GeocodingAttempted = p.HasCoordinates()
	if err := d.db.Create(p).Error; err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}
	return nil
}

// UpdateProperty overwrites the editable fields. Ratings and the cached
// score are left alone; they change through MergeRatings only.
func (d *Database) UpdateProperty(p *models.Property) error {
	result := d.db.Model(&models.Property{ID: p.ID}).
		Select("url", "street", "neighborhood", "city", "postal_code", "property_type",
			"price", "year_built", "living_area", "num_rooms", "status", "notes",
			"latitude", "longitude").
		Updates(p)
	if result.Error != nil {
		return fmt.Errorf("failed to update property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteProperty(id int64) error {
	result := d.db.Delete(&models.Property{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete property: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MergeRatings applies updates to a property's stored ratings and caches the
// score set gives the merged ratings. Read, merge and write share one
// transaction, so concurrent updates of different criteria all survive.
// The score cached before the update is returned.
func (d *Database) MergeRatings(id int64, updates map[string]interface{}, set scoring.CriteriaSet) (*int, error) {
	var previous *int
	err := d.db.Transaction(func(tx *gorm.DB) error {
		var p models.Property
		if err := tx.Select("id", "ratings", "score").First(&p, id).Error; err != nil {
			return notFound(err)
		}
		previous = p.Score

		merged := models.MergeRatings(p.Ratings, updates)
		return tx.Model(&models.Property{ID: id}).Updates(map[string]interface{}{
			"ratings":   datatypes.JSONMap(merged),
			"score":     set.Score(merged),
			"scored_at": time.Now(),
		}).Error
	})
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update ratings: %w", err)
	}
	return previous, nil
}

// RescoreProperties recomputes the cached scores of ids inside tx, from the
// ratings stored when tx reads them. Ids that no longer exist are skipped.
func RescoreProperties(tx *gorm.DB, ids []int64, set scoring.CriteriaSet, scoredAt time.Time) (map[int64]int, error) {
	scores := make(map[int64]int, len(ids))
	if len(ids) == 0 {
		return scores, nil
	}

	var properties []models.Property
	if err := tx.Select("id", "ratings").Where("id IN ?", ids).Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	for i := range properties {
		scores[properties[i].ID] = set.Score(properties[i].RatingsMap())
	}

	if err := UpdateScores(tx, scores, scoredAt); err != nil {
		return nil, err
	}
	return scores, nil
}

// UpdateScores writes cached scores for a batch inside tx.
func UpdateScores(tx *gorm.DB, scores map[int64]int, scoredAt time.Time) error {
	for id, score := range scores {
		err := tx.Model(&models.Property{}).Where("id = ?", id).
			Updates(map[string]interface{}{"score": score, "scored_at": scoredAt}).Error
		if err != nil {
			return fmt.Errorf("failed to update score for property %d: %w", id, err)
		}
	}
	return nil
}

// UpdateCoordinates stores a geocoding result; nil coordinates only mark the attempt.
func (d *Database) UpdateCoordinates(id int64, lat, lon *float64) error {
	updates := map[string]interface{}{"geocoding_attempted": true}
	if lat != nil && lon != nil {
		updates["latitude"] = *lat
		updates["longitude"] = *lon
	}
	if err := d.db.Model(&models.Property{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update coordinates: %w", err)
	}
	return nil
}

// GetPropertiesNeedingGeocoding returns up to limit properties with an
// address but no coordinates that were never tried before.
func (d *Database) GetPropertiesNeedingGeocoding(limit int) ([]models.Property, error) {
	var properties []models.Property
	err := d.db.
		Where("(latitude IS NULL OR longitude IS NULL)").
		Where("geocoding_attempted = ?", false).
		Where("street <> '' AND city <> ''").
		Order("id ASC").
		Limit(limit).
		Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	return properties, nil
}

// GetPropertiesWithCoordinates returns the properties shown on the map
func (d *Database) GetPropertiesWithCoordinates() ([]models.Property, error) {
	var properties []models.Property
	err := d.db.
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("id ASC").
		Find(&properties).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	return properties, nil
}

// EachPropertyBatch walks every property in id order, batchSize at a time.
func (d *Database) EachPropertyBatch(batchSize int, fn func([]models.Property) error) error {
	var batch []models.Property
	result := d.db.FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		out := make([]models.Property, len(batch))
		copy(out, batch)
		return fn(out)
	})
	if result.Error != nil {
		return fmt.Errorf("failed to iterate properties: %w", result.Error)
	}
	return nil
}
