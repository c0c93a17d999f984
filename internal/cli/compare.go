package cli

import (
	"github.com/spf13/cobra"

	"househunt/internal/compare"
	"househunt/internal/models"
)

func newCompareCommand(a *app) *cobra.Command {
	var opts compare.Options
	var city string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Rank stored properties side by side.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			properties, err := db.GetAllProperties(models.PropertyFilter{City: city})
			if err != nil {
				return err
			}
			criteria, err := db.GetAllCriteria()
			if err != nil {
				return err
			}

			rows := compare.Rank(properties, criteria, opts)
			return writeComparison(cmd.OutOrStdout(), rows, criteria, opts.Live)
		},
	}

	cmd.Flags().BoolVar(&opts.Live, "live", true, "recompute scores from the current criteria instead of using cached ones")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many properties (0 shows all)")
	cmd.Flags().StringVar(&city, "city", "", "only compare properties in this city")
	return cmd
}
