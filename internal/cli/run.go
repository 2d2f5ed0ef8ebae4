package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/superclaude/superclaude/internal/models"
	"github.com/superclaude/superclaude/internal/rpc"
)

var runFlags struct {
	project       string
	model         string
	maxIterations int
	threshold     float64
	follow        bool
}

var runCmd = &cobra.Command{
	Use:   "run <task>",
	Short: "Start an agent execution",
	Long: `Start an agent execution for a task in a project directory.
Options left unset fall back to the daemon's defaults.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var eventsFlags struct {
	history bool
	json    bool
}

var eventsCmd = &cobra.Command{
	Use:   "events <execution-id>",
	Short: "Stream an execution's events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return followEvents(args[0], eventsFlags.history, eventsFlags.json || !isTerminal(os.Stdout))
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.project, "project", "p", "", "project directory (default: current directory)")
	runCmd.Flags().StringVarP(&runFlags.model, "model", "m", "", "model alias: "+strings.Join(models.AvailableModels, ", "))
	runCmd.Flags().IntVar(&runFlags.maxIterations, "max-iterations", 0, "maximum iterations")
	runCmd.Flags().Float64Var(&runFlags.threshold, "threshold", 0, "quality threshold (0-100)")
	runCmd.Flags().BoolVarP(&runFlags.follow, "follow", "f", false, "stream events until the execution ends")

	eventsCmd.Flags().BoolVar(&eventsFlags.history, "history", false, "replay earlier events first")
	eventsCmd.Flags().BoolVar(&eventsFlags.json, "json", false, "print raw JSON lines (default when not a terminal)")
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// runConfig carries only the flags the user set; the daemon fills the rest.
func runConfig(cmd *cobra.Command) *models.ExecutionConfig {
	var cfg models.ExecutionConfig
	set := false
	if cmd.Flags().Changed("model") {
		cfg.Model, set = runFlags.model, true
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.MaxIterations, set = runFlags.maxIterations, true
	}
	if cmd.Flags().Changed("threshold") {
		cfg.QualityThreshold, set = runFlags.threshold, true
	}
	if !set {
		return nil
	}
	return &cfg
}

func runRun(cmd *cobra.Command, args []string) error {
	project := runFlags.project
	if project == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		project = cwd
	}
	project, err := filepath.Abs(project)
	if err != nil {
		return err
	}

	if err := EnsureDaemon(); err != nil {
		return err
	}

	var started *rpc.StartExecutionResponse
	err = withClient(func(ctx context.Context, c *rpc.Client) error {
		var err error
		started, err = c.StartExecution(ctx, &rpc.StartExecutionRequest{
			Task:        strings.Join(args, " "),
			ProjectRoot: project,
			Config:      runConfig(cmd),
		})
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s %s %s\n", styleSuccess.Render("Started"), styleCommand.Render(started.ExecutionID), stateBadge(started.State))
	if !runFlags.follow {
		fmt.Println(styleHint.Render("Follow with: superclaude events --history " + started.ExecutionID))
		return nil
	}

	if err := followEvents(started.ExecutionID, true, false); err != nil {
		return err
	}
	return withClient(func(ctx context.Context, c *rpc.Client) error {
		st, err := c.GetStatus(ctx, &rpc.ExecutionIDRequest{ExecutionID: started.ExecutionID})
		if err != nil {
			return err
		}
		fmt.Println()
		printStatus(os.Stdout, st)
		return nil
	})
}

// followEvents streams until the execution's stream ends or the user
// interrupts.
func followEvents(id string, history, asJSON bool) error {
	conn, err := connectDaemon()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := signalContext()
	defer cancel()

	stream, err := rpc.NewClient(conn).StreamEvents(ctx, &rpc.StreamEventsRequest{ExecutionID: id, IncludeHistory: history})
	if err != nil {
		return rpcError(err)
	}

	w := newEventWriter(os.Stdout, asJSON)
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return rpcError(err)
		}
		if err := w.write(ev); err != nil {
			return err
		}
	}
}
