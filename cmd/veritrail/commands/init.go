package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/veritrail/veritrail/internal/printer"
	"github.com/veritrail/veritrail/internal/scaffold"
	"github.com/veritrail/veritrail/pkg/projectboard"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init [PROJECT]",
	Short: "Initialize a new veritrail project",
	Long: `Initialize a new veritrail project in the current directory.

Creates:
  • veritrail.yml - Project configuration file

PROJECT defaults to the name of the current directory. If Redis is
reachable, the audit ledger is anchored immediately with a project
initialization record; otherwise the anchor is written on the first
recorded change.

Use --force to reinitialize an existing project (WARNING: overwrites existing configuration).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Force reinitialization (removes existing veritrail.yml)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	project := ""
	if len(args) == 1 {
		project = args[0]
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("cannot determine working directory: %w", err)
		}
		project = filepath.Base(wd)
	}

	// Check for existing files (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(project, forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess(project)

	// Anchor the ledger now if the store is already up. Failing to reach
	// Redis is not an init failure; the config is in place either way.
	ctx := context.Background()
	sess, err := openSessionQuiet(ctx)
	if err != nil {
		printer.Warning("Redis not reachable yet; the ledger will be anchored on the first recorded change\n")
		return nil
	}
	defer sess.Close()

	if _, err := sess.engine.Init(ctx, projectboard.ActorUser); err != nil {
		printer.Warning("could not anchor the ledger: %v\n", err)
		return nil
	}
	printer.Success("Audit ledger anchored for project %s\n", project)
	return nil
}
