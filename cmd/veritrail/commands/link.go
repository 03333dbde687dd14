package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/printer"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

var linkKindFlag string

var linkCmd = &cobra.Command{
	Use:   "link SOURCE TARGET",
	Short: "Link two artifacts in the traceability graph",
	Long: `Link two artifacts in the traceability graph.

Both endpoints must already exist. Issues are addressed by their tracker
number. Linking the same pair twice is a no-op.

Link kinds:
  requirement-issue          Requirement → Issue
  issue-configuration-item   Issue → Configuration item
  issue-risk                 Issue → Risk

Examples:
  veritrail link REQ-1 14 --kind requirement-issue
  veritrail link 14 CI-1 --kind issue-configuration-item
  veritrail link 14 RISK-2 --kind issue-risk`,
	Args: cobra.ExactArgs(2),
	RunE: runLink,
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink SOURCE TARGET",
	Short: "Remove a link from the traceability graph",
	Long: `Remove a link from the traceability graph.

Removing a link that does not exist is not an error and leaves no audit
trace.`,
	Args: cobra.ExactArgs(2),
	RunE: runUnlink,
}

func init() {
	for _, c := range []*cobra.Command{linkCmd, unlinkCmd} {
		c.Flags().StringVar(&linkKindFlag, "kind", "", "Link kind: requirement-issue, issue-configuration-item or issue-risk")
		c.MarkFlagRequired("kind")
	}
	rootCmd.AddCommand(linkCmd, unlinkCmd)
}

// resolveLink builds the link from CLI arguments, turning bare issue numbers
// into issue references on the side the kind expects them.
func resolveLink(source, target, kind string) (projectboard.Link, error) {
	k := projectboard.LinkKind(kind)
	if err := k.Validate(); err != nil {
		return projectboard.Link{}, fmt.Errorf("%w (valid: %s, %s, %s)", err,
			projectboard.LinkKindRequirementIssue,
			projectboard.LinkKindIssueConfigurationItem,
			projectboard.LinkKindIssueRisk)
	}

	switch k {
	case projectboard.LinkKindRequirementIssue:
		target = issueRefIfNumber(target)
	case projectboard.LinkKindIssueConfigurationItem, projectboard.LinkKindIssueRisk:
		source = issueRefIfNumber(source)
	}
	return projectboard.Link{SourceID: source, TargetID: target, Kind: k}, nil
}

// issueRefIfNumber converts a bare tracker number into its graph identifier.
func issueRefIfNumber(s string) string {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return projectboard.IssueRef(n)
	}
	return s
}

func runLink(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	actor, err := parseActor(actorFlag)
	if err != nil {
		return err
	}
	link, err := resolveLink(args[0], args[1], linkKindFlag)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if _, err := sess.engine.Link(ctx, actor, link); err != nil {
		if errors.Is(err, projectboard.ErrUnknownEndpoint) {
			return printer.Error(
				"link endpoint not found",
				err.Error(),
				[]string{"Both artifacts must be recorded before they can be linked"},
			)
		}
		return err
	}
	printer.Success("Linked %s to %s (%s)\n", link.SourceID, link.TargetID, link.Kind)
	return nil
}

func runUnlink(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	actor, err := parseActor(actorFlag)
	if err != nil {
		return err
	}
	link, err := resolveLink(args[0], args[1], linkKindFlag)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	_, removed, err := sess.engine.Unlink(ctx, actor, link)
	if err != nil {
		return err
	}
	if !removed {
		printer.Info("No link between %s and %s (%s); nothing removed\n", link.SourceID, link.TargetID, link.Kind)
		return nil
	}
	printer.Success("Unlinked %s from %s (%s)\n", link.SourceID, link.TargetID, link.Kind)
	return nil
}
