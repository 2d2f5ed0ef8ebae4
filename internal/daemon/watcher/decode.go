package watcher

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/superclaude/superclaude/internal/models"
)

type record map[string]interface{}

func (r record) str(key, def string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return def
}

func (r record) num(key string, def float64) float64 {
	if f, ok := r[key].(float64); ok {
		return f
	}
	return def
}

func (r record) integer(key string, def int) int {
	return int(r.num(key, float64(def)))
}

func (r record) boolean(key string, def bool) bool {
	if b, ok := r[key].(bool); ok {
		return b
	}
	return def
}

func (r record) strings(key string) []string {
	arr, ok := r[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r record) dimensions() *models.QualityDimensions {
	m, ok := r["dimensions"].(map[string]interface{})
	if !ok {
		return nil
	}
	d := record(m)
	return &models.QualityDimensions{
		CodeChanges: d.num("code_changes", 0),
		TestsRun:    d.num("tests_run", 0),
		TestsPass:   d.num("tests_pass", 0),
		Coverage:    d.num("coverage", 0),
		NoErrors:    d.num("no_errors", 0),
	}
}

func (r record) nodeID() string {
	return r.str("id", uuid.NewString())
}

// DecodeLine converts one events.jsonl line into an event. The envelope is
// keyed by "event_type" and accepts the legacy aliases the runtime writes.
func DecodeLine(line []byte, executionID string) (models.AgentEvent, bool) {
	var r record
	if err := json.Unmarshal(line, &r); err != nil {
		return models.AgentEvent{}, false
	}
	eventType, ok := r["event_type"].(string)
	if !ok {
		return models.AgentEvent{}, false
	}

	var payload models.Payload
	switch eventType {
	case "iteration_start", "iteration_started":
		iteration, ok := r["iteration"].(float64)
		if !ok {
			return models.AgentEvent{}, false
		}
		payload = &models.IterationStarted{
			Iteration: int(iteration),
			Depth:     r.integer("depth", 0),
			NodeID:    fmt.Sprintf("iter-%d", int(iteration)),
		}

	case "iteration_complete", "iteration_completed":
		iteration, ok1 := r["iteration"].(float64)
		score, ok2 := r["score"].(float64)
		if !ok1 || !ok2 {
			return models.AgentEvent{}, false
		}
		payload = &models.IterationCompleted{
			Iteration:       int(iteration),
			Score:           score,
			Improvements:    r.strings("improvements"),
			Dimensions:      r.dimensions(),
			DurationSeconds: r.num("duration", 0),
			NodeID:          fmt.Sprintf("iter-%d", int(iteration)),
			TotalCostUSD:    r.num("total_cost_usd", 0),
			InputTokens:     int64(r.num("input_tokens", 0)),
			OutputTokens:    int64(r.num("output_tokens", 0)),
			NumTurns:        r.integer("num_turns", 0),
		}

	case "tool_use", "tool_invoked":
		tool, ok := r["tool"].(string)
		if !ok {
			return models.AgentEvent{}, false
		}
		payload = &models.ToolInvoked{
			ToolName:     tool,
			Summary:      r.str("summary", ""),
			Blocked:      r.boolean("blocked", false),
			BlockReason:  r.str("block_reason", ""),
			Depth:        r.integer("depth", 1),
			NodeID:       r.nodeID(),
			ParentNodeID: r.str("parent_id", ""),
			ToolInput:    r.str("tool_input", ""),
			ToolOutput:   r.str("tool_output", ""),
			ToolUseID:    r.str("tool_use_id", ""),
		}

	case "file_change", "file_changed":
		path, ok := r["path"].(string)
		if !ok {
			return models.AgentEvent{}, false
		}
		payload = &models.FileChanged{
			Path:         path,
			Action:       fileAction(r.str("action", "read")),
			LinesAdded:   r.integer("lines_added", 0),
			LinesRemoved: r.integer("lines_removed", 0),
			NodeID:       r.nodeID(),
		}

	case "test_result", "tests":
		payload = &models.TestResult{
			Framework:   r.str("framework", "unknown"),
			Passed:      r.integer("passed", 0),
			Failed:      r.integer("failed", 0),
			Skipped:     r.integer("skipped", 0),
			Coverage:    r.num("coverage", 0),
			FailedTests: r.strings("failed_tests"),
			NodeID:      r.nodeID(),
		}

	case "score_update", "score", "score_updated":
		newScore := r.num("new_score", r.num("score", 0))
		payload = &models.ScoreUpdated{
			OldScore:   r.num("old_score", 0),
			NewScore:   newScore,
			Reason:     r.str("reason", ""),
			Dimensions: r.dimensions(),
		}

	case "subagent_spawn", "subagent_spawned":
		payload = &models.SubagentSpawned{
			SubagentID:   r.str("subagent_id", ""),
			SubagentType: r.str("subagent_type", ""),
			TaskSummary:  r.str("task", ""),
			Depth:        r.integer("depth", 1),
			NodeID:       r.nodeID(),
			ParentNodeID: r.str("parent_id", ""),
		}

	case "subagent_complete", "subagent_completed":
		payload = &models.SubagentCompleted{
			SubagentID:    r.str("subagent_id", ""),
			Success:       r.boolean("success", true),
			ResultSummary: r.str("result", ""),
			NodeID:        r.str("id", ""),
		}

	case "artifact", "obsidian_artifact", "artifact_written":
		payload = &models.ArtifactWritten{
			Path:         r.str("path", ""),
			ArtifactType: r.str("type", ""),
			Title:        r.str("title", ""),
		}

	case "log", "message", "log_message":
		payload = &models.LogMessage{
			Level:   logLevel(r.str("level", "info")),
			Message: r.str("message", ""),
			Source:  r.str("source", ""),
		}

	case "error", "error_occurred":
		payload = &models.ErrorOccurred{
			ErrorType:   r.str("error_type", ""),
			Message:     r.str("message", ""),
			Traceback:   r.str("traceback", ""),
			Recoverable: r.boolean("recoverable", true),
		}

	default:
		return models.AgentEvent{}, false
	}

	return models.NewEvent(executionID, payload), true
}

func fileAction(s string) models.FileAction {
	switch s {
	case "write", "created":
		return models.FileWrite
	case "edit", "modified":
		return models.FileEdit
	case "delete", "removed":
		return models.FileDelete
	}
	return models.FileRead
}

func logLevel(s string) models.LogLevel {
	switch s {
	case "debug":
		return models.LogDebug
	case "warn", "warning":
		return models.LogWarn
	case "error":
		return models.LogError
	}
	return models.LogInfo
}
