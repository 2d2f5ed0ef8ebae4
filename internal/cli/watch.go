package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/rpc"
	"github.com/superclaude/superclaude/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch [execution-id]",
	Short: "Open the live execution dashboard",
	Long: `Open an interactive dashboard listing executions with the selected
execution's events streaming alongside. Executions can be paused, resumed
and stopped from the list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !isTerminal(os.Stdout) {
			return fmt.Errorf("watch needs a terminal; use 'superclaude events' instead")
		}
		conn, err := connectDaemon()
		if err != nil {
			return err
		}
		defer conn.Close()

		opts := tui.Options{FormatEvent: formatEvent}
		if len(args) == 1 {
			opts.ExecutionID = args[0]
		}
		return tui.Run(rpc.NewClient(conn), opts)
	},
}
