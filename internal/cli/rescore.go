package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"househunt/internal/database"
	"househunt/internal/models"
	"househunt/internal/processor"
	"househunt/internal/queue"
)

// RescoreResult summarises a synchronous rescore
type RescoreResult struct {
	Batches    int
	Properties int
	Changed    int
}

func newRescoreCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rescore",
		Short: "Recompute every cached property score from the current criteria.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := a.rescore(db)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Rescored %d properties in %d batches, %d scores changed\n",
				result.Properties, result.Batches, result.Changed)
			return err
		},
	}
}

// rescore runs the batch processor inline, one batch at a time, without the
// queue or its workers.
func (a *app) rescore(db *database.Database) (RescoreResult, error) {
	var result RescoreResult
	p := processor.NewBatchProcessor(db.GetDB(), db, nil, a.cfg, nil, a.logger)

	err := db.EachPropertyBatch(a.cfg.BatchProcessing.MaxBatchSize, func(properties []models.Property) error {
		scores, err := p.Rescore(queue.NewBatch(models.PropertyIDs(properties)))
		if err != nil {
			return err
		}
		for _, prop := range properties {
			if prop.Score == nil || *prop.Score != scores[prop.ID] {
				result.Changed++
			}
		}
		result.Batches++
		result.Properties += len(properties)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to rescore properties: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"batches":    result.Batches,
		"properties": result.Properties,
		"changed":    result.Changed,
	}).Info("Rescore completed")
	return result, nil
}
