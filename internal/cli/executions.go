package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/rpc"
)

var stopForce bool

var stopCmd = &cobra.Command{
	Use:   "stop <execution-id>",
	Short: "Cancel a running execution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(func(ctx context.Context, c *rpc.Client) (*rpc.ActionResponse, error) {
			return c.StopExecution(ctx, &rpc.StopExecutionRequest{ExecutionID: args[0], Force: stopForce})
		})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause <execution-id>",
	Short: "Pause a running execution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(func(ctx context.Context, c *rpc.Client) (*rpc.ActionResponse, error) {
			return c.PauseExecution(ctx, &rpc.ExecutionIDRequest{ExecutionID: args[0]})
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <execution-id>",
	Short: "Resume a paused execution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(func(ctx context.Context, c *rpc.Client) (*rpc.ActionResponse, error) {
			return c.ResumeExecution(ctx, &rpc.ExecutionIDRequest{ExecutionID: args[0]})
		})
	},
}

var listFlags struct {
	all   bool
	limit int
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List executions",
	RunE:    runList,
}

var statusCmd = &cobra.Command{
	Use:   "status <execution-id>",
	Short: "Show an execution's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *rpc.Client) error {
			st, err := c.GetStatus(ctx, &rpc.ExecutionIDRequest{ExecutionID: args[0]})
			if err != nil {
				return err
			}
			printStatus(os.Stdout, st)
			return nil
		})
	},
}

var detailCmd = &cobra.Command{
	Use:   "detail <execution-id>",
	Short: "Show status, score breakdown and run instructions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *rpc.Client) error {
			d, err := c.GetExecutionDetail(ctx, &rpc.ExecutionIDRequest{ExecutionID: args[0]})
			if err != nil {
				return err
			}
			printDetail(os.Stdout, d)
			return nil
		})
	},
}

func init() {
	stopCmd.Flags().BoolVar(&stopForce, "force", false, "record the stop as forced")
	listCmd.Flags().BoolVarP(&listFlags.all, "all", "a", false, "include finished executions")
	listCmd.Flags().IntVarP(&listFlags.limit, "limit", "n", 0, "maximum number of executions (0 = all)")
}

func runAction(call func(ctx context.Context, c *rpc.Client) (*rpc.ActionResponse, error)) error {
	return withClient(func(ctx context.Context, c *rpc.Client) error {
		resp, err := call(ctx, c)
		if err != nil {
			return err
		}
		if !resp.Success {
			return fmt.Errorf("%s", resp.Message)
		}
		fmt.Println(styleSuccess.Render(resp.Message))
		return nil
	})
}

func runList(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *rpc.Client) error {
		resp, err := c.ListExecutions(ctx, &rpc.ListExecutionsRequest{
			IncludeCompleted: listFlags.all,
			Limit:            listFlags.limit,
		})
		if err != nil {
			return err
		}
		if len(resp.Executions) == 0 {
			if listFlags.all {
				fmt.Println("No executions.")
			} else {
				fmt.Println("No active executions. Use --all to include finished ones.")
			}
			return nil
		}
		printSummaries(os.Stdout, resp.Executions)
		return nil
	})
}
