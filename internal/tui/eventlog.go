package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/x/ansi"

	"github.com/superclaude/superclaude/internal/models"
)

// maxLogLines bounds the lines kept for one execution.
const maxLogLines = 5000

// EventLog is a scrollable view of one execution's events.
type EventLog struct {
	viewport viewport.Model
	format   func(*models.AgentEvent) string
	lines    []string
	follow   bool
	width    int
}

// NewEventLog creates an empty log that renders events with format.
func NewEventLog(format func(*models.AgentEvent) string) *EventLog {
	return &EventLog{
		viewport: viewport.New(80, 20),
		format:   format,
		follow:   true,
	}
}

// SetSize updates dimensions.
func (l *EventLog) SetSize(width, height int) {
	l.width = width
	l.viewport.Width = width
	l.viewport.Height = height
	l.refresh()
}

// Reset clears the log for a newly followed execution.
func (l *EventLog) Reset() {
	l.lines = nil
	l.follow = true
	l.refresh()
}

// Append adds one event line.
func (l *EventLog) Append(ev *models.AgentEvent) {
	l.lines = append(l.lines, l.format(ev))
	if len(l.lines) > maxLogLines {
		l.lines = l.lines[len(l.lines)-maxLogLines:]
	}
	l.refresh()
}

// Len returns the number of lines held.
func (l *EventLog) Len() int { return len(l.lines) }

// Following reports whether new lines scroll into view.
func (l *EventLog) Following() bool { return l.follow }

// ScrollUp scrolls up n lines and stops following.
func (l *EventLog) ScrollUp(n int) {
	l.viewport.LineUp(n)
	l.follow = l.viewport.AtBottom()
}

// ScrollDown scrolls down n lines; reaching the bottom resumes following.
func (l *EventLog) ScrollDown(n int) {
	l.viewport.LineDown(n)
	l.follow = l.viewport.AtBottom()
}

// PageUp scrolls up half a page.
func (l *EventLog) PageUp() {
	l.ScrollUp(max(l.viewport.Height/2, 1))
}

// PageDown scrolls down half a page.
func (l *EventLog) PageDown() {
	l.ScrollDown(max(l.viewport.Height/2, 1))
}

// Follow jumps to the newest line and keeps it in view.
func (l *EventLog) Follow() {
	l.follow = true
	l.viewport.GotoBottom()
}

func (l *EventLog) refresh() {
	lines := l.lines
	if l.width > 0 {
		lines = make([]string, len(l.lines))
		for i, line := range l.lines {
			lines[i] = ansi.Truncate(line, l.width, "…")
		}
	}
	l.viewport.SetContent(strings.Join(lines, "\n"))
	if l.follow {
		l.viewport.GotoBottom()
	}
}

// View renders the viewport.
func (l *EventLog) View() string {
	if len(l.lines) == 0 {
		return dimStyle.Render("Waiting for events...")
	}
	return l.viewport.View()
}
