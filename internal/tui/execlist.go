package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/superclaude/superclaude/internal/models"
)

// ExecList is the selectable list of executions.
type ExecList struct {
	items    []models.ExecutionSummary
	selected int
	offset   int
	spinner  spinner.Model
}

// NewExecList creates an empty list.
func NewExecList() *ExecList {
	return &ExecList{
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(stateStyle(models.StateRunning))),
	}
}

// SetItems replaces the list, keeping the selected execution selected.
func (l *ExecList) SetItems(items []models.ExecutionSummary) {
	prev := ""
	if sel := l.Selected(); sel != nil {
		prev = sel.ExecutionID
	}
	l.items = items
	if !l.Select(prev) && l.selected >= len(items) {
		l.selected = max(len(items)-1, 0)
	}
}

// Select moves the cursor to id and reports whether it was found.
func (l *ExecList) Select(id string) bool {
	if id == "" {
		return false
	}
	for i, it := range l.items {
		if it.ExecutionID == id {
			l.selected = i
			return true
		}
	}
	return false
}

// Selected returns the selected execution, or nil.
func (l *ExecList) Selected() *models.ExecutionSummary {
	if l.selected < 0 || l.selected >= len(l.items) {
		return nil
	}
	return &l.items[l.selected]
}

// MoveUp moves the cursor up.
func (l *ExecList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the cursor down.
func (l *ExecList) MoveDown() {
	if l.selected < len(l.items)-1 {
		l.selected++
	}
}

// Tick advances the running-execution spinner.
func (l *ExecList) Tick(msg spinner.TickMsg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// View renders at most height rows, each cut to width.
func (l *ExecList) View(width, height int) string {
	if len(l.items) == 0 {
		return dimStyle.Render("No executions yet.\nStart one with: superclaude run <task>")
	}

	if l.selected < l.offset {
		l.offset = l.selected
	}
	if height > 0 && l.selected >= l.offset+height {
		l.offset = l.selected - height + 1
	}

	var lines []string
	for i := l.offset; i < len(l.items) && (height <= 0 || i < l.offset+height); i++ {
		it := l.items[i]
		marker := "○"
		if it.State == models.StateRunning {
			marker = l.spinner.View()
		} else {
			marker = stateStyle(it.State).Render(marker)
		}
		line := fmt.Sprintf("%s %s %s %s",
			marker,
			dimStyle.Render(shortID(it.ExecutionID)),
			scoreStyle(it.CurrentScore, models.DefaultQualityThreshold).Render(fmt.Sprintf("%5.1f", it.CurrentScore)),
			it.Task,
		)
		line = ansi.Truncate(line, width, "…")
		if i == l.selected {
			line = selectedItemStyle.Width(width).Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
