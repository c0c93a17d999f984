package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/samber/lo"

	"househunt/internal/compare"
	"househunt/internal/models"
	"househunt/internal/scoring"
)

// scoreColor picks green for strong scores, yellow for middling and red for
// weak or disqualified ones.
func scoreColor(score int) func(a ...interface{}) string {
	switch {
	case score >= 75:
		return color.New(color.FgGreen).SprintFunc()
	case score >= 50:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgRed).SprintFunc()
	}
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPrice(price int) string {
	if price <= 0 {
		return "-"
	}
	return fmt.Sprintf("€%d", price)
}

// writeBreakdown prints the gate checks followed by a table of nice-to-haves
func writeBreakdown(w io.Writer, b scoring.Breakdown) error {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	if b.DealBreakers.Passed {
		fmt.Fprintf(w, "Deal-breakers: %s\n", green("none present"))
	} else {
		fmt.Fprintf(w, "Deal-breakers: %s\n", red("present: "+b.DealBreakers.Failed.Text))
	}

	switch {
	case !b.MustHaves.Evaluated:
		fmt.Fprintln(w, "Must-haves:    not evaluated")
	case b.MustHaves.Passed:
		fmt.Fprintf(w, "Must-haves:    %s\n", green("all met"))
	default:
		for _, failed := range b.MustHaves.Failed {
			fmt.Fprintf(w, "Must-haves:    %s\n", red("not met: "+failed.Text))
		}
	}

	if len(b.NiceToHaves) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Nice-to-have", "Rating", "Weight", "Points", "Max"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})

		data := make([][]string, 0, len(b.NiceToHaves)+1)
		for _, line := range b.NiceToHaves {
			data = append(data, []string{
				line.Text,
				line.Display,
				strconv.Itoa(line.Weight),
				formatPoints(line.PointsEarned),
				formatPoints(line.MaxPoints),
			})
		}
		data = append(data, []string{"Total", "", "", formatPoints(b.PointsEarned), formatPoints(b.MaxPossiblePoints)})

		if err := table.Bulk(data); err != nil {
			return fmt.Errorf("failed to build breakdown table: %w", err)
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render breakdown table: %w", err)
		}
	}

	_, err := fmt.Fprintf(w, "Score: %s (%s)\n", scoreColor(b.Score)(strconv.Itoa(b.Score)), b.Outcome)
	return err
}

// writeComparison prints one row per property with a column per criterion.
// Cached scores that no longer match the criteria are flagged.
func writeComparison(w io.Writer, rows []compare.Row, criteria []models.Criterion, live bool) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Rank", "Property", "City", "Price", "Score"}
	for _, c := range criteria {
		headers = append(headers, c.Text)
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	yellow := color.New(color.FgYellow).SprintFunc()
	data := make([][]string, 0, len(rows))
	for _, row := range rows {
		rank, score := "-", "-"
		if row.Score != nil {
			rank = strconv.Itoa(row.Rank)
			score = scoreColor(*row.Score)(strconv.Itoa(*row.Score))
			if !live && row.Stale {
				score += yellow(" *")
			}
		}

		line := []string{rank, row.Street, row.City, formatPrice(row.Price), score}
		for _, c := range criteria {
			line = append(line, row.Ratings[c.ID])
		}
		data = append(data, line)
	}

	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("failed to build comparison table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render comparison table: %w", err)
	}

	stale := lo.CountBy(rows, func(r compare.Row) bool { return r.Stale && r.Score != nil })
	if !live && stale > 0 {
		fmt.Fprintln(w, yellow("* cached score is out of date, run `househunt rescore`"))
	}
	return nil
}
