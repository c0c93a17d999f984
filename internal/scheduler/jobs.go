package scheduler

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"househunt/internal/compare"
	"househunt/internal/geocoding"
	"househunt/internal/models"
)

// PropertySource is what the stale report reads
type PropertySource interface {
	GetAllProperties(filter models.PropertyFilter) ([]models.Property, error)
	GetAllCriteria() ([]models.Criterion, error)
}

// Messenger delivers the stale report; *telegram.Service satisfies it
type Messenger interface {
	SendMessage(ctx context.Context, message string) error
}

// GeocodeJob backfills coordinates for properties that have none
func GeocodeJob(store geocoding.Store, geocoder *geocoding.Geocoder, logger *logrus.Logger) JobFunc {
	return func(ctx context.Context) error {
		_, err := geocoding.UpdateMissingCoordinates(ctx, store, geocoder, logger, 10)
		return err
	}
}

// StaleReportJob logs how many cached scores no longer match the current
// criteria. Nothing is rescored; a non-nil messenger also receives the count.
func StaleReportJob(source PropertySource, messenger Messenger, logger *logrus.Logger) JobFunc {
	return func(ctx context.Context) error {
		properties, err := source.GetAllProperties(models.PropertyFilter{})
		if err != nil {
			return err
		}
		criteria, err := source.GetAllCriteria()
		if err != nil {
			return err
		}

		stale := compare.StaleCount(properties, criteria)
		logger.WithFields(logrus.Fields{
			"stale":      stale,
			"properties": len(properties),
		}).Info("Stale score report")

		if stale == 0 || messenger == nil {
			return nil
		}
		return messenger.SendMessage(ctx, fmt.Sprintf(
			"%d of %d property scores are out of date. Run a rescore to refresh them.",
			stale, len(properties)))
	}
}
