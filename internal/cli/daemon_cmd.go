package cli

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/config"
	"github.com/superclaude/superclaude/internal/rpc"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the superclauded daemon",
	Long:  `Manage the superclauded daemon process.`,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running && info != nil {
		fmt.Printf("Daemon is already running (PID %d, socket %s).\n", info.PID, info.SocketPath)
		return nil
	}

	fmt.Print("Starting daemon...")
	if err := EnsureDaemon(); err != nil {
		fmt.Println()
		return err
	}

	_, fresh, err := config.IsDaemonRunning()
	if err != nil || fresh == nil {
		fmt.Println(" started.")
		return nil
	}
	fmt.Printf(" started (PID %d, socket %s).\n", fresh.PID, fresh.SocketPath)
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return err
	}
	if !running || info == nil {
		fmt.Println("Daemon is not running.")
		return nil
	}

	uptime := time.Since(info.StartedAt).Truncate(time.Second)
	tcp := info.TCPAddr
	if tcp == "" {
		tcp = "disabled"
	}

	fmt.Println(styleSuccess.Render("Daemon is running."))
	fmt.Printf("  %s %s\n", styleLabel.Render("Socket:    "), info.SocketPath)
	fmt.Printf("  %s %s\n", styleLabel.Render("TCP:       "), tcp)
	fmt.Printf("  %s %d\n", styleLabel.Render("PID:       "), info.PID)
	fmt.Printf("  %s %s\n", styleLabel.Render("Uptime:    "), uptime)

	// The RPC details are best-effort.
	_ = withClient(func(ctx context.Context, c *rpc.Client) error {
		ping, err := c.Ping(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("  %s %s\n", styleLabel.Render("Version:   "), ping.Version)

		active, err := c.ListExecutions(ctx, &rpc.ListExecutionsRequest{})
		if err != nil {
			return err
		}
		if len(active.Executions) == 0 {
			fmt.Println("\nNo active executions.")
			return nil
		}
		fmt.Printf("\nActive executions (%d):\n", len(active.Executions))
		printSummaries(os.Stdout, active.Executions)
		return nil
	})
	return nil
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running || info == nil {
		fmt.Println("Daemon is not running.")
		return nil
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send stop signal: %w", err)
	}

	stopped := waitUntil(stopTimeout, func() bool {
		running, _, err := config.IsDaemonRunning()
		return err == nil && !running
	})
	if !stopped {
		return fmt.Errorf("daemon did not stop within %s", stopTimeout)
	}
	fmt.Println("Daemon stopped.")
	return nil
}
