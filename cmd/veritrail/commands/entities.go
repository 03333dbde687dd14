package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/printer"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

// Flag storage for entity commands. Cobra writes into these; runners read
// them together with Flags().Changed to distinguish "unset" from "empty".
var (
	entityDescription string
	entityStatus      string
	entityGherkin     string
	entityOrigin      string
	entityName        string
	entityTitle       string
	entitySections    []string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a new project artifact",
	Long: `Record a new project artifact in the store.

Every addition is validated first and written to the audit ledger.

Examples:
  veritrail add requirement REQ-1 --description "Payments must be idempotent"
  veritrail add testcase TC-1 --description "Duplicate POST is a no-op" --status Passed
  veritrail add risk RISK-1 --description "Double-charge on retry"
  veritrail add configitem CI-1 --name "payments-api"
  veritrail add document DOC-1 --title "Architecture" --section Overview --section Security`,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update an existing project artifact",
	Long: `Update fields of an existing project artifact.

Only the flags you pass change; everything else keeps its stored value.

Examples:
  veritrail update requirement REQ-1 --status approved
  veritrail update testcase TC-1 --status Failed`,
}

var rmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Delete a project artifact",
	Long: `Delete a project artifact.

Deleting an artifact also removes every link touching it, so the
traceability graph never holds dangling edges. The deletion and its link
count are written to the audit ledger.`,
}

func init() {
	for _, c := range []*cobra.Command{addCmd, updateCmd} {
		c.PersistentFlags().StringVar(&entityDescription, "description", "", "Artifact description")
		c.PersistentFlags().StringVar(&entityStatus, "status", "", "Lifecycle or execution status")
		c.PersistentFlags().StringVar(&entityGherkin, "gherkin", "", "Gherkin scenario body (test cases)")
		c.PersistentFlags().StringVar(&entityOrigin, "origin", "", "Author kind override: user, ai or automation (test cases)")
		c.PersistentFlags().StringVar(&entityName, "name", "", "Configuration item name")
		c.PersistentFlags().StringVar(&entityTitle, "title", "", "Document title")
		c.PersistentFlags().StringArrayVar(&entitySections, "section", nil, "Document section title (repeatable)")
	}

	addCmd.AddCommand(
		newRequirementCmd(false), newTestCaseCmd(false), newRiskCmd(false),
		newConfigItemCmd(false), newDocumentCmd(false),
	)
	updateCmd.AddCommand(
		newRequirementCmd(true), newTestCaseCmd(true), newRiskCmd(true),
		newConfigItemCmd(true), newDocumentCmd(true),
	)
	rmCmd.AddCommand(rmSubcommands()...)

	rootCmd.AddCommand(addCmd, updateCmd, rmCmd)
}

func parseRequirementStatus(s string) (projectboard.RequirementStatus, error) {
	status := projectboard.RequirementStatus(strings.ToLower(s))
	if err := status.Validate(); err != nil {
		return "", fmt.Errorf("%w (valid: draft, approved, implemented, verified)", err)
	}
	return status, nil
}

func parseTestStatus(s string) (projectboard.TestStatus, error) {
	for _, status := range []projectboard.TestStatus{
		projectboard.TestStatusNotRun, projectboard.TestStatusPassed, projectboard.TestStatusFailed,
	} {
		if strings.EqualFold(s, string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown test status %q (valid: NotRun, Passed, Failed)", s)
}

func parseOrigin(s string) (projectboard.Origin, error) {
	switch strings.ToLower(s) {
	case "user":
		return projectboard.OriginUser, nil
	case "ai":
		return projectboard.OriginAI, nil
	case "automation":
		return projectboard.OriginAutomation, nil
	default:
		return "", fmt.Errorf("unknown origin %q (valid: user, ai, automation)", s)
	}
}

// originForActor is the default author kind when --origin is not given.
func originForActor(actor projectboard.Actor) projectboard.Origin {
	if actor == projectboard.ActorAI {
		return projectboard.OriginAI
	}
	return projectboard.OriginUser
}

func newRequirementCmd(update bool) *cobra.Command {
	use, short := "requirement ID", "a requirement"
	cmd := &cobra.Command{
		Use:   use,
		Short: verbShort(update, short),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := parseActor(actorFlag)
			if err != nil {
				return err
			}
			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			req := &projectboard.Requirement{
				ID:     args[0],
				Status: projectboard.RequirementStatusDraft,
			}
			if update {
				existing, err := sess.client.GetRequirement(ctx, args[0])
				if err != nil {
					return notFoundError("requirement", args[0], err)
				}
				req = existing
			}
			if cmd.Flags().Changed("description") {
				req.Description = entityDescription
			}
			if cmd.Flags().Changed("status") {
				status, err := parseRequirementStatus(entityStatus)
				if err != nil {
					return err
				}
				req.Status = status
			}

			if _, err := sess.engine.PutRequirement(ctx, actor, req); err != nil {
				return err
			}
			printer.Success("Requirement %s recorded (status: %s)\n", req.ID, req.Status)
			return nil
		},
	}
	return cmd
}

func newTestCaseCmd(update bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testcase ID",
		Short: verbShort(update, "a test case"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := parseActor(actorFlag)
			if err != nil {
				return err
			}
			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			origin := originForActor(actor)
			if cmd.Flags().Changed("origin") {
				origin, err = parseOrigin(entityOrigin)
				if err != nil {
					return err
				}
			}

			tc := &projectboard.TestCase{
				ID:        args[0],
				Status:    projectboard.TestStatusNotRun,
				CreatedBy: origin,
				UpdatedBy: origin,
			}
			if update {
				existing, err := sess.client.GetTestCase(ctx, args[0])
				if err != nil {
					return notFoundError("test case", args[0], err)
				}
				tc = existing
				tc.UpdatedBy = origin
			}
			if cmd.Flags().Changed("description") {
				tc.Description = entityDescription
			}
			if cmd.Flags().Changed("gherkin") {
				tc.Gherkin = entityGherkin
			}
			if cmd.Flags().Changed("status") {
				status, err := parseTestStatus(entityStatus)
				if err != nil {
					return err
				}
				tc.Status = status
			}

			if _, err := sess.engine.PutTestCase(ctx, actor, tc); err != nil {
				return err
			}
			printer.Success("Test case %s recorded (status: %s)\n", tc.ID, tc.Status)
			return nil
		},
	}
	return cmd
}

func newRiskCmd(update bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk ID",
		Short: verbShort(update, "a risk"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := parseActor(actorFlag)
			if err != nil {
				return err
			}
			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			risk := &projectboard.Risk{ID: args[0]}
			if update {
				existing, err := sess.client.GetRisk(ctx, args[0])
				if err != nil {
					return notFoundError("risk", args[0], err)
				}
				risk = existing
			}
			if cmd.Flags().Changed("description") {
				risk.Description = entityDescription
			}

			if _, err := sess.engine.PutRisk(ctx, actor, risk); err != nil {
				return err
			}
			printer.Success("Risk %s recorded\n", risk.ID)
			return nil
		},
	}
	return cmd
}

func newConfigItemCmd(update bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configitem ID",
		Short: verbShort(update, "a configuration item"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := parseActor(actorFlag)
			if err != nil {
				return err
			}
			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			ci := &projectboard.ConfigurationItem{ID: args[0]}
			if update {
				existing, err := sess.client.GetConfigurationItem(ctx, args[0])
				if err != nil {
					return notFoundError("configuration item", args[0], err)
				}
				ci = existing
			}
			if cmd.Flags().Changed("name") {
				ci.Name = entityName
			}

			if _, err := sess.engine.PutConfigurationItem(ctx, actor, ci); err != nil {
				return err
			}
			printer.Success("Configuration item %s recorded\n", ci.ID)
			return nil
		},
	}
	return cmd
}

func newDocumentCmd(update bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "document ID",
		Short: verbShort(update, "a document"),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			actor, err := parseActor(actorFlag)
			if err != nil {
				return err
			}
			sess, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			doc := &projectboard.Document{ID: args[0]}
			if update {
				existing, err := sess.client.GetDocument(ctx, args[0])
				if err != nil {
					return notFoundError("document", args[0], err)
				}
				doc = existing
			}
			if cmd.Flags().Changed("title") {
				doc.Title = entityTitle
			}
			if cmd.Flags().Changed("section") {
				doc.Sections = entitySections
			}

			if _, err := sess.engine.PutDocument(ctx, actor, doc); err != nil {
				return err
			}
			printer.Success("Document %s recorded (%d section(s))\n", doc.ID, len(doc.Sections))
			return nil
		},
	}
	return cmd
}

// rmSubcommands builds one delete command per collection.
func rmSubcommands() []*cobra.Command {
	type target struct {
		use  string
		noun string
		del  func(ctx context.Context, s *session, actor projectboard.Actor, id string) error
	}
	targets := []target{
		{"requirement", "requirement", func(ctx context.Context, s *session, a projectboard.Actor, id string) error {
			_, err := s.engine.DeleteRequirement(ctx, a, id)
			return err
		}},
		{"testcase", "test case", func(ctx context.Context, s *session, a projectboard.Actor, id string) error {
			_, err := s.engine.DeleteTestCase(ctx, a, id)
			return err
		}},
		{"risk", "risk", func(ctx context.Context, s *session, a projectboard.Actor, id string) error {
			_, err := s.engine.DeleteRisk(ctx, a, id)
			return err
		}},
		{"configitem", "configuration item", func(ctx context.Context, s *session, a projectboard.Actor, id string) error {
			_, err := s.engine.DeleteConfigurationItem(ctx, a, id)
			return err
		}},
		{"document", "document", func(ctx context.Context, s *session, a projectboard.Actor, id string) error {
			_, err := s.engine.DeleteDocument(ctx, a, id)
			return err
		}},
	}

	cmds := make([]*cobra.Command, 0, len(targets))
	for _, tgt := range targets {
		tgt := tgt
		cmds = append(cmds, &cobra.Command{
			Use:   tgt.use + " ID",
			Short: "Delete " + tgt.noun + " and its links",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				actor, err := parseActor(actorFlag)
				if err != nil {
					return err
				}
				sess, err := openSession(ctx)
				if err != nil {
					return err
				}
				defer sess.Close()

				if err := tgt.del(ctx, sess, actor, args[0]); err != nil {
					return notFoundError(tgt.noun, args[0], err)
				}
				printer.Success("Deleted %s %s\n", tgt.noun, args[0])
				return nil
			},
		})
	}
	return cmds
}

func verbShort(update bool, noun string) string {
	if update {
		return "Update " + noun
	}
	return "Record " + noun
}

// notFoundError wraps store lookups with a user-facing message when the
// entity does not exist; other errors pass through unchanged.
func notFoundError(noun, id string, err error) error {
	if projectboard.IsNotFound(err) {
		return printer.Error(
			fmt.Sprintf("%s %s not found", noun, id),
			fmt.Sprintf("No %s with ID %s exists in this project.", noun, id),
			[]string{"Check recorded IDs with: veritrail list"},
		)
	}
	return err
}
