package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"househunt/config"
)

func newSeedCommand(a *app) *cobra.Command {
	var presetsPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the starter criteria when none exist yet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if presetsPath == "" {
				presetsPath = a.cfg.Presets.Path
			}

			store := config.NewPresetStore(presetsPath)
			if err := store.Load(); err != nil {
				return err
			}
			presets, err := store.Criteria()
			if err != nil {
				return err
			}

			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			existing, err := db.CountCriteria()
			if err != nil {
				return err
			}
			if existing > 0 && !force {
				a.logger.WithField("criteria", existing).Info("Criteria already present, skipping seed")
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Skipped: %d criteria already defined\n", existing)
				return err
			}

			if err := db.InsertCriteria(presets); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d criteria from %s\n", len(presets), presetsPath)
			return err
		},
	}

	cmd.Flags().StringVar(&presetsPath, "presets", "", "preset file to read (defaults to CRITERIA_PRESETS_PATH)")
	cmd.Flags().BoolVar(&force, "force", false, "insert presets even when criteria already exist")
	return cmd
}
