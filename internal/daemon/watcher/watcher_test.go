package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superclaude/superclaude/internal/models"
)

type collector struct {
	mu     sync.Mutex
	events []models.AgentEvent
}

func (c *collector) add(ev models.AgentEvent) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *collector) get(i int) models.AgentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events[i]
}

func appendFile(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestWatcherDrainsExistingContent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "events.jsonl")
	appendFile(t, file,
		`{"event_type":"iteration_start","iteration":1}`+"\n"+
			`not json`+"\n"+
			`{"event_type":"log","level":"warning","message":"hello"}`+"\n")

	var got collector
	w := New(dir, "exec-1", got.add)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.Equal(t, 2, got.len())
	assert.Equal(t, models.EventIterationStarted, got.get(0).Type)
	assert.Equal(t, models.LogWarn, got.get(1).LogMessage.Level)
	assert.Equal(t, "exec-1", got.get(1).ExecutionID)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), w.Offset())
}

func TestWatcherTailsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "events.jsonl")

	var got collector
	w := New(dir, "exec-1", got.add)
	require.NoError(t, w.Start())
	defer w.Stop()

	appendFile(t, file, `{"event_type":"tool_use","tool":"Bash","summary":"Bash: ls"}`+"\n")
	assert.Eventually(t, func() bool { return got.len() == 1 }, 3*time.Second, 20*time.Millisecond)

	// A partial line is held back until its newline arrives.
	appendFile(t, file, `{"event_type":"file_change","path":"a.go",`)
	time.Sleep(4 * DebounceWindow)
	assert.Equal(t, 1, got.len())

	appendFile(t, file, `"action":"created"}`+"\n")
	require.Eventually(t, func() bool { return got.len() == 2 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, models.FileWrite, got.get(1).FileChanged.Action)
	assert.Equal(t, "a.go", got.get(1).FileChanged.Path)
}

func TestWatcherRereadsAfterTruncation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "events.jsonl")
	appendFile(t, file, `{"event_type":"log","message":"first line that is fairly long"}`+"\n")

	var got collector
	w := New(dir, "exec-1", got.add)
	require.NoError(t, w.Start())
	defer w.Stop()
	require.Equal(t, 1, got.len())

	require.NoError(t, os.WriteFile(file, []byte(`{"event_type":"log","message":"x"}`+"\n"), 0o644))
	require.Eventually(t, func() bool { return got.len() == 2 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, "x", got.get(1).LogMessage.Message)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	var got collector
	w := New(dir, "exec-1", got.add)
	require.NoError(t, w.Start())
	defer w.Stop()

	appendFile(t, filepath.Join(dir, "daemon-exec-1.jsonl"), `{"event_type":"log","message":"journal"}`+"\n")
	time.Sleep(4 * DebounceWindow)
	assert.Zero(t, got.len())
}

func TestDecodeLineSynonyms(t *testing.T) {
	tests := []struct {
		line string
		want models.EventType
	}{
		{`{"event_type":"iteration_complete","iteration":2,"score":71.5,"dimensions":{"code_changes":20}}`, models.EventIterationCompleted},
		{`{"event_type":"tool_invoked","tool":"Read"}`, models.EventToolInvoked},
		{`{"event_type":"file_changed","path":"x"}`, models.EventFileChanged},
		{`{"event_type":"tests","passed":3}`, models.EventTestResult},
		{`{"event_type":"score","score":55}`, models.EventScoreUpdated},
		{`{"event_type":"subagent_spawn","subagent_id":"s1"}`, models.EventSubagentSpawned},
		{`{"event_type":"subagent_complete","subagent_id":"s1"}`, models.EventSubagentCompleted},
		{`{"event_type":"obsidian_artifact","path":"n.md","type":"document"}`, models.EventArtifactWritten},
		{`{"event_type":"message","message":"m"}`, models.EventLogMessage},
		{`{"event_type":"error","message":"boom"}`, models.EventErrorOccurred},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			ev, ok := DecodeLine([]byte(tt.line), "exec-1")
			require.True(t, ok)
			assert.Equal(t, tt.want, ev.Type)
		})
	}

	ev, ok := DecodeLine([]byte(`{"event_type":"score","score":55}`), "e")
	require.True(t, ok)
	assert.Equal(t, 55.0, ev.ScoreUpdated.NewScore)

	ev, ok = DecodeLine([]byte(`{"event_type":"iteration_complete","iteration":2,"score":71.5,"dimensions":{"code_changes":20}}`), "e")
	require.True(t, ok)
	assert.Equal(t, "iter-2", ev.IterationCompleted.NodeID)
	assert.Equal(t, 20.0, ev.IterationCompleted.Dimensions.CodeChanges)

	ev, ok = DecodeLine([]byte(`{"event_type":"error","message":"boom"}`), "e")
	require.True(t, ok)
	assert.True(t, ev.ErrorOccurred.Recoverable)

	for _, bad := range []string{
		`{"event_type":"unknown"}`,
		`{"type":"log"}`,
		`{"event_type":"tool_use"}`,
		`{"event_type":"iteration_start"}`,
		`[1,2]`,
	} {
		_, ok := DecodeLine([]byte(bad), "e")
		assert.False(t, ok, bad)
	}
}
