package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// configPath is the global --config flag.
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "veritrail",
	Short: "Veritrail - Process maturity and traceability assessment",
	Long: `Veritrail records project artifacts (requirements, test cases, risks,
configuration items and documents), links them into a traceability graph,
and keeps every change in a hash-chained, append-only audit ledger.

From that state it derives a process maturity assessment and compliance
reports suitable for external audits.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to veritrail.yml (defaults to ./veritrail.yml)")
}
