package database

import (
	"fmt"

	"househunt/internal/models"
)

func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&models.Property{}, &models.Criterion{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Create spatial index on coordinates
	if err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_coordinates
		ON properties(latitude, longitude);
	`).Error; err != nil {
		return fmt.Errorf("failed to create coordinates index: %w", err)
	}

	// Mark properties that already have coordinates as attempted
	if err := d.db.Exec(`
		UPDATE properties
		SET geocoding_attempted = 1
		WHERE latitude IS NOT NULL
		AND longitude IS NOT NULL
		AND geocoding_attempted = 0;
	`).Error; err != nil {
		return fmt.Errorf("failed to mark existing coordinates as attempted: %w", err)
	}

	return nil
}
