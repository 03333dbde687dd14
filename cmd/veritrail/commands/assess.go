package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/assess"
	"github.com/veritrail/veritrail/internal/printer"
)

var (
	assessOutputFormat string
	assessListAreas    bool
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess process maturity from the current project state",
	Long: `Assess process maturity from the current project state.

Every process area of the built-in taxonomy is scored against the recorded
artifacts and links. The assessment is derived on the fly and never stored;
running it twice against unchanged state produces identical output.

Examples:
  veritrail assess
  veritrail assess --areas
  veritrail assess --output=json | jq '.maturity_level'`,
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().StringVarP(&assessOutputFormat, "output", "o", "default", "Output format: default or json")
	assessCmd.Flags().BoolVar(&assessListAreas, "areas", false, "List the process area taxonomy and exit")
	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, args []string) error {
	// The taxonomy is compiled in; listing it needs no project state.
	if assessListAreas {
		return printAreaTaxonomy()
	}

	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	snap, err := sess.client.Snapshot(ctx)
	if err != nil {
		return err
	}
	assessment := assess.Assess(snap)

	if assessOutputFormat == "json" {
		out, err := json.MarshalIndent(assessment, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	if assessOutputFormat != "default" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", assessOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	printer.Printf("Project %s: %s\n\n", sess.cfg.Project, printer.MaturityString(assessment.MaturityLevel, assessment.LevelProgress))

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Area", "Level", "Score", "Satisfied", "Gaps")
	for _, area := range assessment.Areas {
		satisfied := "no"
		if area.Satisfied {
			satisfied = "yes"
		}
		table.Append([]string{
			fmt.Sprintf("%s (%s)", area.Name, area.ProcessAreaID),
			strconv.Itoa(area.MaturityLevel),
			strconv.Itoa(area.Score),
			satisfied,
			strconv.Itoa(len(area.Gaps)),
		})
	}
	table.Render()

	// Spell out the gaps of unsatisfied areas below the table.
	for _, area := range assessment.Areas {
		if area.Satisfied || len(area.Gaps) == 0 {
			continue
		}
		printer.Printf("\n%s:\n", area.Name)
		for _, gap := range area.Gaps {
			printer.Printf("  - %s\n", gap)
		}
	}
	return nil
}

func printAreaTaxonomy() error {
	if assessOutputFormat == "json" {
		out, err := json.MarshalIndent(assess.Areas(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	if assessOutputFormat != "default" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", assessOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Area", "Level")
	for _, pa := range assess.Areas() {
		table.Append([]string{pa.ID, pa.Name, strconv.Itoa(pa.MaturityLevel)})
	}
	table.Render()
	return nil
}
