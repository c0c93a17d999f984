package geocoding

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"househunt/internal/models"
)

// Store is the persistence the coordinates backfill needs
type Store interface {
	GetPropertiesNeedingGeocoding(limit int) ([]models.Property, error)
	UpdateCoordinates(id int64, lat, lon *float64) error
}

// BackfillResult summarises one coordinates backfill run
type BackfillResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// UpdateMissingCoordinates geocodes every property lacking coordinates.
// Failed lookups are marked as attempted so they are not retried forever.
func UpdateMissingCoordinates(ctx context.Context, store Store, geocoder *Geocoder, logger *logrus.Logger, batchSize int) (BackfillResult, error) {
	var result BackfillResult
	if batchSize < 1 {
		batchSize = 10
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch, err := store.GetPropertiesNeedingGeocoding(batchSize)
		if err != nil {
			return result, err
		}
		if len(batch) == 0 {
			break
		}

		for _, p := range batch {
			lat, lon, err := geocoder.GeocodeAddress(ctx, p.Street, p.PostalCode, p.City)
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				logger.WithError(err).WithField("property_id", p.ID).Warn("Failed to geocode property")
				if err := store.UpdateCoordinates(p.ID, nil, nil); err != nil {
					return result, fmt.Errorf("failed to mark geocoding attempt: %w", err)
				}
				result.Failed++
				continue
			}

			if err := store.UpdateCoordinates(p.ID, &lat, &lon); err != nil {
				return result, err
			}
			result.Processed++
		}
	}

	logger.WithFields(logrus.Fields{
		"processed": result.Processed,
		"failed":    result.Failed,
	}).Info("Geocoding completed")
	return result, nil
}
