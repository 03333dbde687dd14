package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/printer"
	"github.com/veritrail/veritrail/internal/timespec"
)

var (
	reportExportPath   string
	reportSince        string
	reportUntil        string
	reportOutputFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a compliance report",
	Long: `Generate a compliance report from the ledger and the current state.

The report covers chain integrity, per-actor and per-classification entry
counts, and the built-in compliance framework checklists. With --export,
a self-contained audit package (including the raw ledger entries of the
requested window and the maturity assessment) is written as JSON.

Examples:
  veritrail report
  veritrail report --output=json
  veritrail report --export audit-2026Q1.json --since 2026-01-01 --until 2026-04-01`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportExportPath, "export", "", "Write a full audit package to this file")
	reportCmd.Flags().StringVar(&reportSince, "since", "", "Export window start (duration like '720h', a date, or RFC3339; export only)")
	reportCmd.Flags().StringVar(&reportUntil, "until", "", "Export window end (duration, date, or RFC3339; export only)")
	reportCmd.Flags().StringVarP(&reportOutputFormat, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if reportExportPath != "" {
		return exportReport(ctx, sess)
	}

	snap, err := sess.reporter.Snapshot(ctx)
	if err != nil {
		return err
	}

	if reportOutputFormat == "json" {
		out, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	if reportOutputFormat != "default" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", reportOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	printer.Printf("Project %s: %s\n", sess.cfg.Project, printer.StatusString(string(snap.OverallStatus)))
	printer.Printf("Ledger: %d entries, integrity score %d, %d nonconforming event type(s)\n",
		snap.Metrics.TotalEntries, snap.Metrics.IntegrityScore, snap.Metrics.NonconformingType)
	printer.Printf("Actors: %d user, %d ai, %d system\n\n",
		snap.Metrics.Actors.User, snap.Metrics.Actors.AI, snap.Metrics.Actors.System)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Framework", "Controls", "Status")
	for _, fw := range snap.Frameworks {
		status := "incomplete"
		if fw.Satisfied == fw.Total {
			status = "satisfied"
		}
		table.Append([]string{
			fw.Name,
			fmt.Sprintf("%d/%d", fw.Satisfied, fw.Total),
			status,
		})
	}
	table.Render()

	printer.Printf("\nClassification: %d public, %d internal, %d confidential, %d restricted\n",
		snap.Classifications.Public, snap.Classifications.Internal,
		snap.Classifications.Confidential, snap.Classifications.Restricted)
	printer.Printf("Sources: %d local, %d vcs, %d manual, %d third-party\n",
		snap.Sources.Local, snap.Sources.ExternalVCS, snap.Sources.Manual, snap.Sources.ThirdParty)
	return nil
}

func exportReport(ctx context.Context, sess *session) error {
	since, until, err := timespec.ParseRange(reportSince, reportUntil)
	if err != nil {
		return err
	}

	pkg, err := sess.reporter.ExportPackage(ctx, since, until)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render audit package: %w", err)
	}
	if err := os.WriteFile(reportExportPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write audit package: %w", err)
	}

	printer.Success("Audit package written to %s (%s entries)\n",
		reportExportPath, strconv.Itoa(len(pkg.LedgerEntries)))
	return nil
}
