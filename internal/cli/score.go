package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"househunt/internal/scoring"
)

// scoreInput is the file format accepted by `househunt score`
type scoreInput struct {
	Criteria []scoring.Criterion `json:"criteria"`
	Ratings  scoring.Ratings     `json:"ratings"`
}

func newScoreCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "score FILE",
		Short: "Score a set of ratings against criteria read from a JSON file.",
		Long: `Reads {"criteria": [...], "ratings": {...}} from FILE ("-" for stdin)
and prints how the score was reached. Nothing is written to the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readScoreInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			for _, c := range input.Criteria {
				if !c.Type.Valid() {
					return fmt.Errorf("criterion %q has unknown type %q", c.ID, c.Type)
				}
			}

			breakdown := scoring.Split(input.Criteria).Breakdown(input.Ratings)
			a.logger.WithField("score", breakdown.Score).Debug("Computed score")

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(breakdown)
			}
			return writeBreakdown(cmd.OutOrStdout(), breakdown)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	return cmd
}

func readScoreInput(stdin io.Reader, path string) (scoreInput, error) {
	var input scoreInput

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return input, fmt.Errorf("failed to read score input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return input, fmt.Errorf("failed to parse score input: %w", err)
	}
	return input, nil
}
