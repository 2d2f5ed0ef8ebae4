package evidence

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/superclaude/superclaude/internal/models"
)

// Collector is the mutable, concurrency-safe accumulator behind an execution.
type Collector struct {
	mu sync.Mutex
	ev Evidence
}

// NewCollector starts a collector for one session.
func NewCollector(sessionID string) *Collector {
	return &Collector{ev: Evidence{
		SessionID: sessionID,
		StartTime: time.Now().UTC(),
	}}
}

// RecordFileWrite appends path to the written set. Reports whether the path
// was new to the set.
func (c *Collector) RecordFileWrite(path string, linesChanged int) bool {
	return c.recordFile(&c.ev.FilesWritten, path, models.FileWrite, linesChanged)
}

// RecordFileEdit appends path to the edited set.
func (c *Collector) RecordFileEdit(path string, linesChanged int) bool {
	return c.recordFile(&c.ev.FilesEdited, path, models.FileEdit, linesChanged)
}

// RecordFileRead appends path to the read set.
func (c *Collector) RecordFileRead(path string) bool {
	return c.recordFile(&c.ev.FilesRead, path, models.FileRead, 0)
}

func (c *Collector) recordFile(set *[]string, path string, action models.FileAction, lines int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ev.FileChanges = append(c.ev.FileChanges, FileChange{
		Path:         path,
		Action:       action,
		LinesChanged: lines,
		Timestamp:    time.Now().UTC(),
	})
	for _, p := range *set {
		if p == path {
			return false
		}
	}
	*set = append(*set, path)
	return true
}

// RecordCommand logs a finished command and, if its text matches a known
// test framework, merges the parsed summary. The parsed result is returned.
func (c *Collector) RecordCommand(command, output string, exitCode int, duration time.Duration) (TestResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ev.Commands = append(c.ev.Commands, CommandResult{
		Command:    command,
		Output:     output,
		ExitCode:   exitCode,
		DurationMS: duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})

	tr, ok := ParseTestOutput(command, output)
	if ok {
		c.ev.TestsRun = true
		c.ev.TestResults = append(c.ev.TestResults, tr)
	}
	return tr, ok
}

// RecordCommandStarted logs a command whose output is not yet known and
// returns a handle for AttachCommandOutput.
func (c *Collector) RecordCommandStarted(command string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ev.Commands = append(c.ev.Commands, CommandResult{
		Command:   command,
		ExitCode:  -1,
		Timestamp: time.Now().UTC(),
	})
	return len(c.ev.Commands) - 1
}

// AttachCommandOutput fills in the output of a command recorded with
// RecordCommandStarted. Test summaries are not parsed here; callers that
// detect them report through RecordTestResult so nothing is counted twice.
func (c *Collector) AttachCommandOutput(handle int, command, output string, exitCode int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if handle < 0 || handle >= len(c.ev.Commands) || c.ev.Commands[handle].Command != command {
		return false
	}
	cmd := &c.ev.Commands[handle]
	cmd.Output = output
	cmd.ExitCode = exitCode
	cmd.DurationMS = time.Since(cmd.Timestamp).Milliseconds()
	return true
}

// RecordTestResult merges a test summary detected outside RecordCommand.
func (c *Collector) RecordTestResult(tr TestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ev.TestsRun = true
	c.ev.TestResults = append(c.ev.TestResults, tr)
}

// RecordSubagentSpawned counts one spawned subagent.
func (c *Collector) RecordSubagentSpawned() {
	c.mu.Lock()
	c.ev.SubagentsSpawned++
	c.mu.Unlock()
}

// RecordToolInvocation keeps the raw call for debugging; output is truncated.
func (c *Collector) RecordToolInvocation(name string, input json.RawMessage, output string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r := []rune(output); len(r) > maxToolOutput {
		output = string(r[:maxToolOutput]) + "..."
	}
	c.ev.ToolInvocations = append(c.ev.ToolInvocations, ToolInvocation{
		ToolName:   name,
		ToolInput:  input,
		ToolOutput: output,
		Timestamp:  time.Now().UTC(),
	})
}

// Reset clears all signal for the next iteration. Session id and start time
// are kept.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ev = Evidence{
		SessionID: c.ev.SessionID,
		StartTime: c.ev.StartTime,
	}
}

// Finish stamps the end time.
func (c *Collector) Finish() {
	c.mu.Lock()
	now := time.Now().UTC()
	c.ev.EndTime = &now
	c.mu.Unlock()
}

// Snapshot returns a deep copy safe to read without the lock.
func (c *Collector) Snapshot() *Evidence {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev := c.ev.clone()
	return &ev
}

// Summary is shorthand for Snapshot().Summary().
func (c *Collector) Summary() models.EvidenceSummary {
	return c.Snapshot().Summary()
}
