// Package cmd implements the superclauded command line.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "superclauded",
	Short: "Supervise Claude agent executions and stream their events",
	Long: `superclauded runs coding-agent executions, scores their evidence and
serves status and live events over gRPC on a unix socket and TCP.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the daemon CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	addServeFlags(rootCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(daemonVersionCmd)
}
