package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superclaude/superclaude/internal/models"
	"github.com/superclaude/superclaude/internal/rpc"
)

func TestDescribeEvent(t *testing.T) {
	cases := []struct {
		payload models.Payload
		want    []string
	}{
		{&models.IterationStarted{Iteration: 2}, []string{"iteration 2 started"}},
		{&models.ToolInvoked{ToolName: "Bash", Summary: "Bash: rm -rf /", Blocked: true, BlockReason: "dangerous command"}, []string{"BLOCKED", "rm -rf /", "dangerous command"}},
		{&models.FileChanged{Path: "main.go", Action: models.FileEdit, LinesAdded: 3, LinesRemoved: 1}, []string{"edit main.go (+3 -1)"}},
		{&models.TestResult{Framework: "pytest", Passed: 4, Failed: 1}, []string{"pytest: 4 passed, 1 failed"}},
		{&models.StateChanged{OldState: models.StateRunning, NewState: models.StateCompleted, Reason: "done"}, []string{"running ->", "completed", "done"}},
		{&models.SubagentCompleted{SubagentID: "toolu_1", Success: false}, []string{"subagent toolu_1 failed"}},
		{&models.LogMessage{Level: models.LogDebug, Message: "Processing..."}, []string{"[debug] Processing..."}},
	}
	for _, tc := range cases {
		ev := models.NewEvent("exec-1", tc.payload)
		got := describeEvent(&ev)
		for _, want := range tc.want {
			assert.Contains(t, got, want, "event %s", ev.Type)
		}
	}
}

func TestEventWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	w := newEventWriter(&buf, true)

	ev := models.NewEvent("exec-1", &models.ScoreUpdated{OldScore: 10, NewScore: 45, Reason: "tests pass"})
	require.NoError(t, w.write(&ev))
	ev2 := models.NewEvent("exec-1", &models.IterationStarted{Iteration: 1})
	require.NoError(t, w.write(&ev2))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded models.AgentEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, models.EventScoreUpdated, decoded.Type)
	require.NotNil(t, decoded.ScoreUpdated)
	assert.Equal(t, 45.0, decoded.ScoreUpdated.NewScore)
}

func TestEventWriterText(t *testing.T) {
	var buf bytes.Buffer
	ev := models.NewEvent("exec-1", &models.IterationStarted{Iteration: 1})
	require.NoError(t, newEventWriter(&buf, false).write(&ev))
	assert.Contains(t, buf.String(), "iteration started")
	assert.Contains(t, buf.String(), "iteration 1 started")
}

func TestPrintDetail(t *testing.T) {
	started := time.Now().Add(-90 * time.Second)
	ended := started.Add(75 * time.Second)
	d := &rpc.ExecutionDetailResponse{
		Status: models.ExecutionStatus{
			ExecutionID:       "exec-1",
			Task:              "add a health endpoint",
			ProjectRoot:       "/work/api",
			State:             models.StateCompleted,
			Config:            models.DefaultExecutionConfig(),
			CurrentIteration:  1,
			MaxIterations:     3,
			CurrentScore:      82,
			QualityThreshold:  70,
			TerminationReason: "Execution completed successfully",
			StartedAt:         started,
			EndedAt:           &ended,
			Evidence: models.EvidenceSummary{
				FilesWritten:  []string{"health.go"},
				TestsRun:      true,
				TestFramework: "go",
				TestsPassed:   5,
			},
		},
		ScoreBreakdown: []models.ScoreDimension{{Name: "tests_pass", Score: 30, MaxScore: 30}},
		RunInstructions: &models.RunInstructions{
			BuildCommand: "go build ./...",
			RunCommand:   "./api",
		},
		Events: make([]models.AgentEvent, 4),
	}

	var buf bytes.Buffer
	printDetail(&buf, d)
	out := buf.String()

	for _, want := range []string{
		"exec-1", "add a health endpoint", "1/3", "82.0", "threshold 70",
		"1m15s", "go 5 passed, 0 failed", "tests_pass", "go build ./...", "./api",
		"health.go", "4 events recorded",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrintSummariesShortensID(t *testing.T) {
	var buf bytes.Buffer
	printSummaries(&buf, []models.ExecutionSummary{
		{ExecutionID: "0123456789abcdef", Task: "fix flaky test", State: models.StateRunning, CurrentScore: 12.5, DurationSeconds: 3},
		{ExecutionID: "abc", Task: "short id", State: models.StatePaused},
	})
	out := buf.String()
	assert.Contains(t, out, "01234567 ")
	assert.NotContains(t, out, "0123456789")
	assert.Contains(t, out, "fix flaky test")
	assert.Contains(t, out, "12.5")
	assert.Contains(t, out, "abc ")
}

func TestArchivedSummaries(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ended := started.Add(2 * time.Minute)
	got := archivedSummaries([]models.ExecutionStatus{
		{ExecutionID: "a", State: models.StateFailed, StartedAt: started, EndedAt: &ended, CurrentScore: 20},
		{ExecutionID: "b", State: models.StateCancelled, StartedAt: started},
	})
	require.Len(t, got, 2)
	assert.Equal(t, 120.0, got[0].DurationSeconds)
	assert.Equal(t, 20.0, got[0].CurrentScore)
	assert.Zero(t, got[1].DurationSeconds)
}

func TestRunConfigOnlyCarriesChangedFlags(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "run"}
		cmd.Flags().StringVarP(&runFlags.model, "model", "m", "", "")
		cmd.Flags().IntVar(&runFlags.maxIterations, "max-iterations", 0, "")
		cmd.Flags().Float64Var(&runFlags.threshold, "threshold", 0, "")
		return cmd
	}

	cmd := newCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	assert.Nil(t, runConfig(cmd))

	cmd = newCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--model", "opus", "--threshold", "85"}))
	cfg := runConfig(cmd)
	require.NotNil(t, cfg)
	assert.Equal(t, "opus", cfg.Model)
	assert.Equal(t, 85.0, cfg.QualityThreshold)
	assert.Zero(t, cfg.MaxIterations)
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "events", "list", "status", "detail", "stop", "pause", "resume", "config", "notes", "history", "ping", "daemon", "version", "watch"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
