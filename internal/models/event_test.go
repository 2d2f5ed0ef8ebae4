package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventSetsMatchingPayload(t *testing.T) {
	ev := NewEvent("exec-1", &StateChanged{OldState: StatePending, NewState: StateRunning})

	assert.Equal(t, "exec-1", ev.ExecutionID)
	assert.Equal(t, EventStateChanged, ev.Type)
	require.NotNil(t, ev.StateChanged)
	assert.Nil(t, ev.LogMessage)
	assert.False(t, ev.Timestamp.IsZero())

	p, ok := ev.Payload().(*StateChanged)
	require.True(t, ok)
	assert.Equal(t, StateRunning, p.NewState)
}

func TestPayloadNilWhenMissing(t *testing.T) {
	ev := AgentEvent{Type: EventLogMessage}
	assert.Nil(t, ev.Payload())
}

func TestEventJSONUsesEventTypeTag(t *testing.T) {
	ev := NewEvent("exec-1", &LogMessage{Level: LogInfo, Message: "hi", Source: "assistant"})

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "log_message", raw["event_type"])
	assert.Contains(t, raw, "log_message")
	assert.NotContains(t, raw, "tool_invoked")
}

func TestExecutionStateClassification(t *testing.T) {
	for _, s := range []ExecutionState{StatePending, StateRunning, StatePaused} {
		assert.True(t, s.IsActive(), s)
	}
	for _, s := range []ExecutionState{StateCompleted, StateFailed, StateCancelled} {
		assert.True(t, s.IsTerminal(), s)
	}
}

func TestExecutionConfigWithDefaults(t *testing.T) {
	cfg := ExecutionConfig{Model: "opus"}.WithDefaults(DefaultExecutionConfig())

	assert.Equal(t, "opus", cfg.Model)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 70.0, cfg.QualityThreshold)
	assert.Equal(t, 300.0, cfg.TimeoutSeconds)
}
