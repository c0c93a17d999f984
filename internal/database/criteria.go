package database

import (
	"fmt"

	"github.com/google/uuid"

	"househunt/internal/models"
)

// GetAllCriteria returns criteria ordered by type, then position
func (d *Database) GetAllCriteria() ([]models.Criterion, error) {
	var criteria []models.Criterion
	err := d.db.Order("type ASC").Order("position ASC").Order("created_at ASC").Find(&criteria).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query criteria: %w", err)
	}
	return criteria, nil
}

func (d *Database) GetCriterion(id string) (*models.Criterion, error) {
	var c models.Criterion
	if err := d.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (d *Database) CreateCriterion(c *models.Criterion) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Sanitize()
	if err := d.db.Create(c).Error; err != nil {
		return fmt.Errorf("failed to insert criterion: %w", err)
	}
	return nil
}

func (d *Database) UpdateCriterion(c *models.Criterion) error {
	c.Sanitize()
	result := d.db.Model(&models.Criterion{ID: c.ID}).
		Select("text", "type", "category", "weight", "rating_type", "position").
		Updates(c)
	if result.Error != nil {
		return fmt.Errorf("failed to update criterion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteCriterion(id string) error {
	result := d.db.Delete(&models.Criterion{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete criterion: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountCriteria is used by seeding to avoid duplicating presets
func (d *Database) CountCriteria() (int64, error) {
	var n int64
	if err := d.db.Model(&models.Criterion{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count criteria: %w", err)
	}
	return n, nil
}

// InsertCriteria inserts presets in one transaction
func (d *Database) InsertCriteria(criteria []models.Criterion) error {
	for i := range criteria {
		if criteria[i].ID == "" {
			criteria[i].ID = uuid.NewString()
		}
		criteria[i].Sanitize()
	}
	if err := d.db.CreateInBatches(criteria, 50).Error; err != nil {
		return fmt.Errorf("failed to insert criteria: %w", err)
	}
	return nil
}
