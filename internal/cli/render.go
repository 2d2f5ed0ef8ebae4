package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/superclaude/superclaude/internal/models"
	"github.com/superclaude/superclaude/internal/rpc"
)

// describeEvent is the one-line human summary of an event.
func describeEvent(ev *models.AgentEvent) string {
	switch p := ev.Payload().(type) {
	case *models.IterationStarted:
		return fmt.Sprintf("iteration %d started", p.Iteration)
	case *models.IterationCompleted:
		return fmt.Sprintf("iteration %d completed, score %.1f (%d turns, $%.4f)", p.Iteration, p.Score, p.NumTurns, p.TotalCostUSD)
	case *models.ToolInvoked:
		if p.Blocked {
			return styleBlocked.Render("BLOCKED ") + p.Summary + styleHint.Render(" ("+p.BlockReason+")")
		}
		return p.Summary
	case *models.FileChanged:
		return fmt.Sprintf("%s %s (+%d -%d)", p.Action, p.Path, p.LinesAdded, p.LinesRemoved)
	case *models.TestResult:
		return fmt.Sprintf("%s: %d passed, %d failed, %d skipped", p.Framework, p.Passed, p.Failed, p.Skipped)
	case *models.ScoreUpdated:
		return fmt.Sprintf("score %.1f -> %.1f  %s", p.OldScore, p.NewScore, styleHint.Render(p.Reason))
	case *models.StateChanged:
		return fmt.Sprintf("%s -> %s  %s", p.OldState, stateBadge(p.NewState), styleHint.Render(p.Reason))
	case *models.SubagentSpawned:
		return fmt.Sprintf("subagent %s: %s", p.SubagentType, p.TaskSummary)
	case *models.SubagentCompleted:
		outcome := "ok"
		if !p.Success {
			outcome = "failed"
		}
		return fmt.Sprintf("subagent %s %s", p.SubagentID, outcome)
	case *models.LogMessage:
		return fmt.Sprintf("[%s] %s", p.Level, p.Message)
	case *models.ErrorOccurred:
		return styleError.Render(p.ErrorType) + " " + p.Message
	case *models.ArtifactWritten:
		return fmt.Sprintf("%s %q at %s", p.ArtifactType, p.Title, p.Path)
	default:
		return ""
	}
}

func formatEvent(ev *models.AgentEvent) string {
	ts := ev.Timestamp.Local().Format("15:04:05")
	kind := strings.ReplaceAll(string(ev.Type), "_", " ")
	return fmt.Sprintf("%s %s %s", styleHint.Render(ts), styleLabel.Render(fmt.Sprintf("%-18s", kind)), describeEvent(ev))
}

// eventWriter prints events either as JSON lines or rendered text.
type eventWriter struct {
	out  io.Writer
	json bool
	enc  *json.Encoder
}

func newEventWriter(out io.Writer, asJSON bool) *eventWriter {
	return &eventWriter{out: out, json: asJSON, enc: json.NewEncoder(out)}
}

func (w *eventWriter) write(ev *models.AgentEvent) error {
	if w.json {
		return w.enc.Encode(ev)
	}
	_, err := fmt.Fprintln(w.out, formatEvent(ev))
	return err
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Truncate(100 * time.Millisecond).String()
	}
	return d.Truncate(time.Second).String()
}

func printStatus(out io.Writer, st *models.ExecutionStatus) {
	end := time.Now()
	if st.EndedAt != nil {
		end = *st.EndedAt
	}
	row := func(label, value string) {
		fmt.Fprintf(out, "  %s %s\n", styleLabel.Render(fmt.Sprintf("%-12s", label+":")), value)
	}

	fmt.Fprintf(out, "%s %s\n", styleCommand.Render(st.ExecutionID), stateBadge(st.State))
	row("Task", st.Task)
	row("Project", st.ProjectRoot)
	row("Model", st.Config.Model)
	row("Iteration", fmt.Sprintf("%d/%d", st.CurrentIteration, st.MaxIterations))
	row("Score", scoreStyle(st.CurrentScore, st.QualityThreshold).Render(fmt.Sprintf("%.1f", st.CurrentScore))+
		styleHint.Render(fmt.Sprintf(" (threshold %.0f)", st.QualityThreshold)))
	row("Duration", formatDuration(end.Sub(st.StartedAt)))
	row("Cost", fmt.Sprintf("$%.4f  %s", st.TotalCostUSD, styleHint.Render(fmt.Sprintf("%d in / %d out tokens", st.InputTokens, st.OutputTokens))))
	if st.TerminationReason != "" {
		row("Reason", st.TerminationReason)
	}

	ev := st.Evidence
	row("Files", fmt.Sprintf("%d written, %d edited, %d read", len(ev.FilesWritten), len(ev.FilesEdited), len(ev.FilesRead)))
	row("Commands", fmt.Sprintf("%d", ev.CommandsRun))
	if ev.TestsRun {
		row("Tests", fmt.Sprintf("%s %d passed, %d failed", ev.TestFramework, ev.TestsPassed, ev.TestsFailed))
	} else {
		row("Tests", styleHint.Render("none run"))
	}
	if ev.SubagentsSpawned > 0 {
		row("Subagents", fmt.Sprintf("%d", ev.SubagentsSpawned))
	}
}

func printSummaries(out io.Writer, list []models.ExecutionSummary) {
	for _, s := range list {
		fmt.Fprintf(out, "%s  %-10s %s  %s  %s\n",
			styleCommand.Render(s.ExecutionID[:min(8, len(s.ExecutionID))]),
			stateBadge(s.State),
			styleValue.Render(fmt.Sprintf("%5.1f", s.CurrentScore)),
			styleHint.Render(formatDuration(time.Duration(s.DurationSeconds*float64(time.Second)))),
			s.Task,
		)
	}
}

func printDetail(out io.Writer, d *rpc.ExecutionDetailResponse) {
	printStatus(out, &d.Status)

	if len(d.ScoreBreakdown) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styleBrand.Render("Score breakdown"))
		for _, dim := range d.ScoreBreakdown {
			line := fmt.Sprintf("  %-14s %5.1f / %-5.1f", dim.Name, dim.Score, dim.MaxScore)
			if dim.Detail != "" {
				line += "  " + styleHint.Render(dim.Detail)
			}
			fmt.Fprintln(out, line)
		}
	}

	if ri := d.RunInstructions; ri != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styleBrand.Render("Run instructions"))
		if ri.BuildCommand != "" {
			fmt.Fprintf(out, "  %s %s\n", styleLabel.Render("Build:"), styleCommand.Render(ri.BuildCommand))
		}
		if ri.RunCommand != "" {
			fmt.Fprintf(out, "  %s %s\n", styleLabel.Render("Run:  "), styleCommand.Render(ri.RunCommand))
		}
		for _, a := range ri.Artifacts {
			fmt.Fprintf(out, "  %s %s\n", styleLabel.Render("-"), a)
		}
		if ri.Notes != "" {
			fmt.Fprintf(out, "  %s\n", ri.Notes)
		}
	}

	if files := d.Status.Evidence.FilesWritten; len(files) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styleBrand.Render("Files written"))
		for _, f := range files {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
	fmt.Fprintf(out, "\n%s\n", styleHint.Render(fmt.Sprintf("%d events recorded", len(d.Events))))
}
