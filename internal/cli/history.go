package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/config"
	"github.com/superclaude/superclaude/internal/daemon/archive"
	"github.com/superclaude/superclaude/internal/models"
)

var historyFlags struct {
	limit   int
	project string
	prune   time.Duration
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived executions",
	Long: `List executions recorded in the local archive, newest first.
The archive is read directly and works without a running daemon.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "maximum number of executions (0 = all)")
	historyCmd.Flags().StringVarP(&historyFlags.project, "project", "p", "", "only executions for this project directory")
	historyCmd.Flags().DurationVar(&historyFlags.prune, "prune", 0, "delete archived executions older than this (e.g. 720h) before listing")
}

func runHistory(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	path, err := config.ArchivePath(settings)
	if err != nil {
		return err
	}
	if path == "" || !config.FileExists(path) {
		fmt.Println("No archived executions.")
		return nil
	}

	project := historyFlags.project
	if project != "" {
		if project, err = filepath.Abs(project); err != nil {
			return err
		}
	}

	store, err := archive.NewStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if historyFlags.prune > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-historyFlags.prune))
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d archived execution(s).\n", n)
	}

	list, err := store.List(ctx, project, historyFlags.limit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No archived executions.")
		return nil
	}
	printSummaries(os.Stdout, archivedSummaries(list))
	return nil
}

func archivedSummaries(list []models.ExecutionStatus) []models.ExecutionSummary {
	out := make([]models.ExecutionSummary, 0, len(list))
	for _, st := range list {
		var dur time.Duration
		if st.EndedAt != nil {
			dur = st.EndedAt.Sub(st.StartedAt)
		}
		out = append(out, models.ExecutionSummary{
			ExecutionID:      st.ExecutionID,
			Task:             st.Task,
			ProjectRoot:      st.ProjectRoot,
			State:            st.State,
			CurrentIteration: st.CurrentIteration,
			CurrentScore:     st.CurrentScore,
			StartedAt:        st.StartedAt,
			EndedAt:          st.EndedAt,
			DurationSeconds:  dur.Seconds(),
			TotalCostUSD:     st.TotalCostUSD,
		})
	}
	return out
}
