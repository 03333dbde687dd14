package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/ledger"
	"github.com/veritrail/veritrail/internal/printer"
	"github.com/veritrail/veritrail/internal/timespec"
	"github.com/veritrail/veritrail/internal/vcs"
)

var (
	syncPrune   bool
	ingestSince string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize external tracker state",
}

var syncIssuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Mirror GitHub issues into the project",
	Long: `Mirror GitHub issues into the project.

Issues are upserted into the local read-only mirror so they can be linked
to requirements, risks and configuration items. With --prune, mirrored
issues that no longer exist upstream are removed together with their links.

Requires a github section in veritrail.yml. A GITHUB_TOKEN environment
variable is used when present.`,
	RunE: runSyncIssues,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest external events into the audit ledger",
}

var ingestCommitsCmd = &cobra.Command{
	Use:   "commits",
	Short: "Ingest GitHub commits into the audit ledger",
	Long: `Ingest GitHub commits into the audit ledger.

Each commit becomes one VCS_COMMIT entry. Ingestion is idempotent: commits
already in the ledger are skipped, so re-running over an overlapping range
is safe.

Examples:
  veritrail ingest commits
  veritrail ingest commits --since 2026-01-01`,
	RunE: runIngestCommits,
}

func init() {
	syncIssuesCmd.Flags().BoolVar(&syncPrune, "prune", false, "Remove mirrored issues that no longer exist upstream")
	ingestCommitsCmd.Flags().StringVar(&ingestSince, "since", "", "Only commits after this time (duration like '24h', a date, or RFC3339)")

	syncCmd.AddCommand(syncIssuesCmd)
	ingestCmd.AddCommand(ingestCommitsCmd)
	rootCmd.AddCommand(syncCmd, ingestCmd)
}

// githubFetcher builds the fetcher from the session config, failing with a
// clear message when the github section is missing.
func githubFetcher(ctx context.Context, sess *session) (*vcs.GitHubFetcher, string, string, error) {
	if sess.cfg.GitHub == nil {
		return nil, "", "", printer.Error(
			"no github section configured",
			"This command needs to know which repository to talk to.",
			[]string{"Add a github section with owner and repo to veritrail.yml"},
		)
	}
	fetcher := vcs.NewGitHubFetcher(ctx, os.Getenv("GITHUB_TOKEN"))
	return fetcher, sess.cfg.GitHub.Owner, sess.cfg.GitHub.Repo, nil
}

func runSyncIssues(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	fetcher, owner, repo, err := githubFetcher(ctx, sess)
	if err != nil {
		return err
	}

	printer.Step("Fetching issues from %s/%s...\n", owner, repo)
	issues, err := fetcher.FetchIssues(ctx, owner, repo)
	if err != nil {
		return err
	}

	res, err := sess.engine.SyncIssues(ctx, issues, syncPrune)
	if err != nil {
		return err
	}
	printer.Success("Synchronized %d issue(s), pruned %d\n", res.Synced, res.Pruned)
	return nil
}

func runIngestCommits(cmd *cobra.Command, args []string) error {
	var since time.Time
	if ingestSince != "" {
		var err error
		since, err = timespec.Parse(ingestSince)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}

	ctx := context.Background()
	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	fetcher, owner, repo, err := githubFetcher(ctx, sess)
	if err != nil {
		return err
	}

	printer.Step("Fetching commits from %s/%s...\n", owner, repo)
	events, err := fetcher.FetchCommits(ctx, owner, repo, since)
	if err != nil {
		return err
	}

	results, err := sess.engine.IngestCommits(ctx, events)
	if err != nil {
		return err
	}

	var appended, duplicate, rejected int
	for _, r := range results {
		switch r.Status {
		case ledger.IngestAppended:
			appended++
		case ledger.IngestDuplicate:
			duplicate++
		case ledger.IngestRejected:
			rejected++
			printer.Warning("rejected %s: %s\n", r.ExternalID, r.Reason)
		}
	}
	printer.Success("Ingested %d commit(s): %d new, %d already known, %d rejected\n",
		len(results), appended, duplicate, rejected)
	return nil
}
