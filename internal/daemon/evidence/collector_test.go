package evidence

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyEvidence(t *testing.T) {
	ev := NewCollector("s1").Snapshot()

	assert.Equal(t, 0, ev.TotalFilesModified())
	assert.Equal(t, 0, ev.CommandsRun())
	assert.False(t, ev.TestsRun)
	assert.False(t, ev.AllTestsPassing())
}

func TestTotalFilesModified(t *testing.T) {
	c := NewCollector("s1")
	c.RecordFileWrite("a", 10)
	c.RecordFileEdit("b", 2)
	c.RecordFileRead("c")

	assert.Equal(t, 2, c.Snapshot().TotalFilesModified())
}

func TestFileSetsAreOrderedAndUnique(t *testing.T) {
	c := NewCollector("s1")
	assert.True(t, c.RecordFileWrite("a", 1))
	assert.True(t, c.RecordFileWrite("b", 1))
	assert.False(t, c.RecordFileWrite("a", 1))
	c.RecordFileEdit("a", 1)

	ev := c.Snapshot()
	assert.Equal(t, []string{"a", "b"}, ev.FilesWritten)
	assert.Equal(t, []string{"a"}, ev.FilesEdited)
	assert.Equal(t, 2, ev.TotalFilesModified())
	assert.Len(t, ev.FileChanges, 4)
}

func TestRecordCommandWithoutTests(t *testing.T) {
	c := NewCollector("s1")
	_, ok := c.RecordCommand("ls -la", "total 0", 0, 0)

	assert.False(t, ok)
	ev := c.Snapshot()
	assert.Equal(t, 1, ev.CommandsRun())
	assert.False(t, ev.TestsRun)
}

func TestParseTestFrameworks(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		output    string
		framework string
		passed    int
		failed    int
		skipped   int
		errors    int
		coverage  float64
	}{
		{"pytest passed", "pytest tests/", "===== 10 passed in 2.5s =====", "pytest", 10, 0, 0, 0, 0},
		{"pytest mixed", "pytest tests/", "===== 8 passed, 2 failed, 1 skipped in 3.0s =====", "pytest", 8, 2, 1, 0, 0},
		{"pytest errors", "pytest tests/", "===== 3 passed, 1 error in 1.0s =====", "pytest", 3, 0, 0, 1, 0},
		{"pytest coverage", "pytest --cov=src", "===== 5 passed in 1.0s =====\nTotal coverage: 85.5%", "pytest", 5, 0, 0, 0, 85.5},
		{"jest passed", "npm test", "Tests: 15 passed, 15 total", "jest", 15, 0, 0, 0, 0},
		{"jest mixed", "jest", "Tests: 10 passed, 5 failed, 15 total", "jest", 10, 5, 0, 0, 0},
		{"go ok", "go test ./...", "ok\tgithub.com/user/pkg\t0.5s\nok\tgithub.com/user/pkg2\t0.3s", "go", 2, 0, 0, 0, 0},
		{"go fail", "go test ./...", "FAIL\tgithub.com/user/pkg\t0.5s\nok\tgithub.com/user/pkg2\t0.3s", "go", 1, 1, 0, 0, 0},
		{"cargo", "cargo test", "running 12 tests\ntest result: ok. 12 passed; 0 failed; 0 ignored", "cargo", 12, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector("s1")
			tr, ok := c.RecordCommand(tt.command, tt.output, 0, 0)
			require.True(t, ok)

			assert.Equal(t, tt.framework, tr.Framework)
			assert.Equal(t, tt.passed, tr.Passed)
			assert.Equal(t, tt.failed, tr.Failed)
			assert.Equal(t, tt.skipped, tr.Skipped)
			assert.Equal(t, tt.errors, tr.Errors)
			assert.InDelta(t, tt.coverage, tr.Coverage, 0.001)
			assert.True(t, c.Snapshot().TestsRun)
		})
	}
}

func TestCargoCheckedBeforeGo(t *testing.T) {
	tr, ok := ParseTestOutput("cargo test --all", "test result: ok. 3 passed; 1 failed; 0 ignored")
	require.True(t, ok)
	assert.Equal(t, "cargo", tr.Framework)
	assert.Equal(t, 3, tr.Passed)
	assert.Equal(t, 1, tr.Failed)
}

func TestTotalsAcrossResults(t *testing.T) {
	c := NewCollector("s1")
	c.RecordCommand("pytest", "5 passed, 1 failed", 1, 0)
	c.RecordCommand("pytest", "6 passed", 0, 0)

	ev := c.Snapshot()
	assert.Equal(t, 11, ev.TotalTestsPassed())
	assert.Equal(t, 1, ev.TotalTestsFailed())
	assert.False(t, ev.AllTestsPassing())
}

func TestAllTestsPassing(t *testing.T) {
	c := NewCollector("s1")
	c.RecordCommand("pytest", "4 passed", 0, 0)
	assert.True(t, c.Snapshot().AllTestsPassing())

	zero := NewCollector("s2")
	zero.RecordTestResult(TestResult{Framework: "go"})
	assert.False(t, zero.Snapshot().AllTestsPassing())
}

func TestAttachCommandOutputDoesNotParseTests(t *testing.T) {
	c := NewCollector("s1")
	h := c.RecordCommandStarted("pytest -q")
	require.True(t, c.AttachCommandOutput(h, "pytest -q", "3 passed", 0))
	assert.False(t, c.AttachCommandOutput(h+1, "pytest -q", "x", 0))

	ev := c.Snapshot()
	assert.Equal(t, 1, ev.CommandsRun())
	assert.Equal(t, "3 passed", ev.Commands[0].Output)
	assert.False(t, ev.TestsRun)
}

func TestResetPreservesSession(t *testing.T) {
	c := NewCollector("session-42")
	start := c.Snapshot().StartTime
	c.RecordFileWrite("a", 1)
	c.RecordCommand("pytest", "1 passed", 0, 0)
	c.RecordSubagentSpawned()

	c.Reset()

	ev := c.Snapshot()
	assert.Equal(t, "session-42", ev.SessionID)
	assert.Equal(t, start, ev.StartTime)
	assert.Empty(t, ev.FilesWritten)
	assert.Equal(t, 0, ev.CommandsRun())
	assert.False(t, ev.TestsRun)
	assert.Equal(t, 0, ev.SubagentsSpawned)
}

func TestRecordToolInvocationTruncates(t *testing.T) {
	c := NewCollector("s1")
	c.RecordToolInvocation("Bash", nil, strings.Repeat("x", 1500))

	inv := c.Snapshot().ToolInvocations
	require.Len(t, inv, 1)
	assert.Len(t, inv[0].ToolOutput, 1003)
}

func TestSnapshotIsIndependent(t *testing.T) {
	c := NewCollector("s1")
	c.RecordFileWrite("a", 1)
	snap := c.Snapshot()
	c.RecordFileWrite("b", 1)

	assert.Equal(t, []string{"a"}, snap.FilesWritten)
}

func TestSummaryAndMap(t *testing.T) {
	c := NewCollector("s1")
	c.RecordFileWrite("a", 1)
	c.RecordFileEdit("b", 1)
	c.RecordCommand("go test ./...", "ok\tpkg\t0.1s", 0, 0)
	c.Finish()

	ev := c.Snapshot()
	s := ev.Summary()
	assert.Equal(t, 2, s.TotalFilesModified)
	assert.Equal(t, 1, s.TestsPassed)
	assert.Equal(t, "go", s.TestFramework)

	m := ev.ToMap()
	assert.Equal(t, true, m["all_tests_passing"])
	assert.NotNil(t, m["end_time"])
}

func TestCollectorConcurrentWrites(t *testing.T) {
	c := NewCollector("s1")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordFileWrite("same.go", 1)
			c.RecordCommand("ls", "", 0, 0)
		}()
	}
	wg.Wait()

	ev := c.Snapshot()
	assert.Equal(t, []string{"same.go"}, ev.FilesWritten)
	assert.Equal(t, 50, ev.CommandsRun())
}
