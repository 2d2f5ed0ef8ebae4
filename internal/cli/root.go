// Package cli implements the superclaude CLI commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "superclaude",
	Short: "Run and watch quality-scored Claude agent executions",
	Long: `superclaude talks to the superclauded daemon: it starts agent executions
against a project, follows their live events and inspects their evidence
and quality scores.`,
	SilenceUsage: true,
}

var globalFlags struct {
	socket string
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.socket, "socket", "", "daemon socket (default from ~/.superclaude/daemon.yaml)")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(detailCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(watchCmd)
}
