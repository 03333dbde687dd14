package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/ledger"
	"github.com/veritrail/veritrail/internal/printer"
	"github.com/veritrail/veritrail/internal/timespec"
	"github.com/veritrail/veritrail/internal/watch"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

var (
	ledgerLimit        int
	ledgerTypePrefix   string
	ledgerActor        string
	ledgerSince        string
	ledgerUntil        string
	ledgerOutputFormat string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the append-only audit ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit ledger entries, newest first",
	Long: `List audit ledger entries, newest first.

Examples:
  veritrail ledger list
  veritrail ledger list --limit 20
  veritrail ledger list --type-prefix REQUIREMENT_
  veritrail ledger list --since 24h
  veritrail ledger list --filter-actor ai --output=json`,
	RunE: runLedgerList,
}

var ledgerWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream new ledger entries as they are appended",
	Long: `Stream new ledger entries as they are appended.

Prints one line per new entry until interrupted. Entries already in the
ledger when the watch starts are not replayed.`,
	RunE: runLedgerWatch,
}

var ledgerVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the hash chain of the audit ledger",
	Long: `Verify the hash chain of the audit ledger.

Recomputes every entry hash and checks each link to its predecessor.
Exits non-zero if any link is broken.`,
	RunE: runLedgerVerify,
}

func init() {
	ledgerListCmd.Flags().IntVar(&ledgerLimit, "limit", 0, "Maximum entries to show (0 = all)")
	ledgerListCmd.Flags().StringVar(&ledgerTypePrefix, "type-prefix", "", "Only entries whose event type starts with this prefix")
	ledgerListCmd.Flags().StringVar(&ledgerActor, "filter-actor", "", "Only entries by this actor: user, ai or system")
	ledgerListCmd.Flags().StringVar(&ledgerSince, "since", "", "Only entries after this time (duration like '24h', a date, or RFC3339)")
	ledgerListCmd.Flags().StringVar(&ledgerUntil, "until", "", "Only entries before this time (duration like '24h', a date, or RFC3339)")
	ledgerListCmd.Flags().StringVarP(&ledgerOutputFormat, "output", "o", "default", "Output format: default or json")

	ledgerCmd.AddCommand(ledgerListCmd, ledgerVerifyCmd, ledgerWatchCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	since, until, err := timespec.ParseRange(ledgerSince, ledgerUntil)
	if err != nil {
		return err
	}
	filter := &ledger.Filter{
		EventTypePrefix: ledgerTypePrefix,
		Since:           since,
		Until:           until,
		Limit:           ledgerLimit,
	}
	switch ledgerActor {
	case "":
	case "user":
		filter.Actor = projectboard.ActorUser
	case "ai":
		filter.Actor = projectboard.ActorAI
	case "system":
		filter.Actor = projectboard.ActorSystem
	default:
		return fmt.Errorf("unknown actor %q (valid: user, ai, system)", ledgerActor)
	}

	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	records, err := sess.ledger.Query(ctx, filter)
	if err != nil {
		return err
	}

	if ledgerOutputFormat == "json" {
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render JSON: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	if ledgerOutputFormat != "default" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", ledgerOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Timestamp", "Event Type", "Actor", "Source", "Summary")
	for _, rec := range records {
		table.Append([]string{
			rec.Timestamp.UTC().Format(time.RFC3339),
			rec.EventType,
			string(rec.Actor),
			string(rec.SourceSystem),
			rec.Summary,
		})
	}
	table.Render()
	return nil
}

func runLedgerVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	report, err := sess.ledger.IntegrityScore(ctx)
	if err != nil {
		return err
	}

	if report.Broken > 0 {
		return printer.ErrorWithContext(
			"audit ledger integrity check failed",
			"The hash chain does not verify. The ledger has been tampered with or storage is corrupted.",
			map[string]string{
				"Entries": fmt.Sprintf("%d", report.Total),
				"Broken":  fmt.Sprintf("%d", report.Broken),
				"Score":   fmt.Sprintf("%d", report.Score),
			},
			[]string{"The ledger never auto-repairs; investigate the storage before trusting any report"},
		)
	}

	printer.Success("Ledger verified: %d entries, integrity score %d\n", report.Total, report.Score)
	return nil
}

func runLedgerWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	printer.Info("Watching ledger for project %s (Ctrl-C to stop)...\n", sess.cfg.Project)

	err = watch.Follow(ctx, sess.client, watch.DefaultInterval, func(rec projectboard.LedgerRecord) error {
		printer.Printf("%s  %-24s %-8s %s\n",
			rec.Timestamp.UTC().Format(time.RFC3339), rec.EventType, string(rec.Actor), rec.Summary)
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
