package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/rpc"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the daemon is responding",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *rpc.Client) error {
			start := time.Now()
			resp, err := c.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s superclauded %s, %d active, up %s %s\n",
				styleSuccess.Render("pong"),
				resp.Version,
				resp.ActiveExecutions,
				time.Since(resp.UptimeSince).Truncate(time.Second),
				styleHint.Render(fmt.Sprintf("(%s)", time.Since(start).Truncate(time.Microsecond))),
			)
			return nil
		})
	},
}
