// Package evidence accumulates the deterministic signals an execution
// produces: files touched, commands run and test outcomes.
package evidence

import (
	"encoding/json"
	"time"

	"github.com/superclaude/superclaude/internal/models"
)

const maxToolOutput = 1000

// FileChange is one recorded file operation.
type FileChange struct {
	Path         string            `json:"path"`
	Action       models.FileAction `json:"action"`
	LinesChanged int               `json:"lines_changed"`
	Timestamp    time.Time         `json:"timestamp"`
}

// CommandResult is one recorded shell command.
type CommandResult struct {
	Command    string    `json:"command"`
	Output     string    `json:"output"`
	ExitCode   int       `json:"exit_code"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// TestResult is one parsed test-framework summary.
type TestResult struct {
	Framework       string  `json:"framework"`
	Passed          int     `json:"passed"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	Errors          int     `json:"errors"`
	Coverage        float64 `json:"coverage"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ToolInvocation is a raw tool call kept for debugging.
type ToolInvocation struct {
	ToolName   string          `json:"tool_name"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`
	ToolOutput string          `json:"tool_output"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Evidence is a point-in-time copy of everything a Collector has seen.
type Evidence struct {
	SessionID string     `json:"session_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	FilesWritten []string     `json:"files_written"`
	FilesEdited  []string     `json:"files_edited"`
	FilesRead    []string     `json:"files_read"`
	FileChanges  []FileChange `json:"file_changes"`

	Commands []CommandResult `json:"commands"`

	TestsRun    bool         `json:"tests_run"`
	TestResults []TestResult `json:"test_results"`

	SubagentsSpawned int              `json:"subagents_spawned"`
	ToolInvocations  []ToolInvocation `json:"tool_invocations"`
}

// CommandsRun is the number of recorded commands.
func (e *Evidence) CommandsRun() int { return len(e.Commands) }

// TotalFilesModified counts distinct paths written or edited. Reads are excluded.
func (e *Evidence) TotalFilesModified() int {
	seen := make(map[string]struct{}, len(e.FilesWritten)+len(e.FilesEdited))
	for _, p := range e.FilesWritten {
		seen[p] = struct{}{}
	}
	for _, p := range e.FilesEdited {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// TotalTestsPassed sums passed counts across all test results.
func (e *Evidence) TotalTestsPassed() int {
	n := 0
	for _, r := range e.TestResults {
		n += r.Passed
	}
	return n
}

// TotalTestsFailed sums failed counts across all test results.
func (e *Evidence) TotalTestsFailed() int {
	n := 0
	for _, r := range e.TestResults {
		n += r.Failed
	}
	return n
}

// TotalTestErrors sums error counts across all test results.
func (e *Evidence) TotalTestErrors() int {
	n := 0
	for _, r := range e.TestResults {
		n += r.Errors
	}
	return n
}

// AllTestsPassing is true when tests ran, none failed and at least one passed.
func (e *Evidence) AllTestsPassing() bool {
	return e.TestsRun && e.TotalTestsFailed() == 0 && e.TotalTestsPassed() > 0
}

// AverageCoverage averages the non-zero coverage figures, or 0 if none.
func (e *Evidence) AverageCoverage() float64 {
	var sum float64
	var n int
	for _, r := range e.TestResults {
		if r.Coverage > 0 {
			sum += r.Coverage
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Summary converts the evidence into its wire form.
func (e *Evidence) Summary() models.EvidenceSummary {
	s := models.EvidenceSummary{
		FilesWritten:       append([]string{}, e.FilesWritten...),
		FilesEdited:        append([]string{}, e.FilesEdited...),
		FilesRead:          append([]string{}, e.FilesRead...),
		CommandsRun:        e.CommandsRun(),
		TestsPassed:        e.TotalTestsPassed(),
		TestsFailed:        e.TotalTestsFailed(),
		TestsRun:           e.TestsRun,
		SubagentsSpawned:   e.SubagentsSpawned,
		TotalFilesModified: e.TotalFilesModified(),
	}
	if n := len(e.TestResults); n > 0 {
		s.TestFramework = e.TestResults[n-1].Framework
	}
	return s
}

// ToMap is a flat dictionary view used for structured logging.
func (e *Evidence) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"files_written":        e.FilesWritten,
		"files_edited":         e.FilesEdited,
		"files_read":           e.FilesRead,
		"total_files_modified": e.TotalFilesModified(),
		"commands_run":         e.CommandsRun(),
		"tests_run":            e.TestsRun,
		"tests_passed":         e.TotalTestsPassed(),
		"tests_failed":         e.TotalTestsFailed(),
		"all_tests_passing":    e.AllTestsPassing(),
		"subagents_spawned":    e.SubagentsSpawned,
		"session_id":           e.SessionID,
		"start_time":           e.StartTime.Format(time.RFC3339),
		"end_time":             nil,
	}
	if e.EndTime != nil {
		m["end_time"] = e.EndTime.Format(time.RFC3339)
	}
	return m
}

func (e *Evidence) clone() Evidence {
	c := *e
	c.FilesWritten = append([]string(nil), e.FilesWritten...)
	c.FilesEdited = append([]string(nil), e.FilesEdited...)
	c.FilesRead = append([]string(nil), e.FilesRead...)
	c.FileChanges = append([]FileChange(nil), e.FileChanges...)
	c.Commands = append([]CommandResult(nil), e.Commands...)
	c.TestResults = append([]TestResult(nil), e.TestResults...)
	c.ToolInvocations = append([]ToolInvocation(nil), e.ToolInvocations...)
	if e.EndTime != nil {
		t := *e.EndTime
		c.EndTime = &t
	}
	return c
}
