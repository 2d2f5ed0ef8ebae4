package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/superclaude/superclaude/internal/models"
)

func renderHeader(m *Model, width int) string {
	left := " " + lipgloss.NewStyle().Foreground(colorCyan).Render("●") + " superclaude"

	right := ""
	if st := m.status; st != nil {
		right = fmt.Sprintf("%s  %s  iter %d/%d  %s ",
			shortID(st.ExecutionID),
			stateStyle(st.State).Render(string(st.State)),
			st.CurrentIteration, st.MaxIterations,
			scoreStyle(st.CurrentScore, st.QualityThreshold).Render(fmt.Sprintf("%.1f/%.0f", st.CurrentScore, st.QualityThreshold)),
		)
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return headerStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func renderStatusBar(m *Model, width int) string {
	if m.confirmStop {
		return renderConfirmBar(fmt.Sprintf("Stop execution %s? (y/n)", shortID(m.following)), width)
	}
	if m.err != nil {
		return renderErrorBar(m.err.Error(), width)
	}

	left := " " + getKeyHints(m)

	right := ""
	switch {
	case m.disconnected:
		right = lipgloss.NewStyle().Foreground(colorYellow).Bold(true).Render("⚠ Disconnected") + " "
	case m.notice != "":
		right = lipgloss.NewStyle().Foreground(colorGreen).Render(m.notice) + " "
	case m.status != nil && m.status.State.IsTerminal() && m.status.TerminationReason != "":
		right = hintStyle.Render(m.status.TerminationReason) + " "
	}

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return statusBarStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func getKeyHints(m *Model) string {
	base := keyHint("q", "quit") + "  " + keyHint("Tab", "switch")

	if m.focusedPanel == 1 {
		hints := base + "  " + keyHint("j/k", "scroll")
		if !m.log.Following() {
			hints += "  " + keyHint("f", "follow")
		}
		return hints
	}

	hints := base + "  " + keyHint("j/k", "select")
	if sel := m.execs.Selected(); sel != nil {
		switch sel.State {
		case models.StateRunning:
			hints += "  " + keyHint("p", "pause") + "  " + keyHint("s", "stop")
		case models.StatePaused:
			hints += "  " + keyHint("r", "resume") + "  " + keyHint("s", "stop")
		case models.StatePending:
			hints += "  " + keyHint("s", "stop")
		}
	}
	return hints
}

func keyHint(k, desc string) string {
	return keyStyle.Render(k) + " " + hintStyle.Render(desc)
}

func renderConfirmBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorYellow).
		Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "0"}).
		Width(width).
		Render(" " + msg)
}

func renderErrorBar(msg string, width int) string {
	return statusBarStyle.
		Background(colorRed).
		Width(width).
		Render(" " + msg)
}
