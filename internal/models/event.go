package models

import "time"

// EventType discriminates the AgentEvent union.
type EventType string

const (
	EventIterationStarted   EventType = "iteration_started"
	EventIterationCompleted EventType = "iteration_completed"
	EventToolInvoked        EventType = "tool_invoked"
	EventFileChanged        EventType = "file_changed"
	EventTestResult         EventType = "test_result"
	EventScoreUpdated       EventType = "score_updated"
	EventStateChanged       EventType = "state_changed"
	EventSubagentSpawned    EventType = "subagent_spawned"
	EventSubagentCompleted  EventType = "subagent_completed"
	EventLogMessage         EventType = "log_message"
	EventErrorOccurred      EventType = "error_occurred"
	EventArtifactWritten    EventType = "artifact_written"
)

// FileAction is the kind of file operation a FileChanged event reports.
type FileAction string

const (
	FileRead   FileAction = "read"
	FileWrite  FileAction = "write"
	FileEdit   FileAction = "edit"
	FileDelete FileAction = "delete"
)

// LogLevel is the severity of a LogMessage event.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// QualityDimensions are the five weighted sub-scores, each 0-100.
type QualityDimensions struct {
	CodeChanges float64 `json:"code_changes"`
	TestsRun    float64 `json:"tests_run"`
	TestsPass   float64 `json:"tests_pass"`
	Coverage    float64 `json:"coverage"`
	NoErrors    float64 `json:"no_errors"`
}

// AgentEvent is one entry of an execution's event stream. Exactly one
// payload field is set, matching Type.
type AgentEvent struct {
	ExecutionID string    `json:"execution_id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        EventType `json:"event_type"`

	IterationStarted   *IterationStarted   `json:"iteration_started,omitempty"`
	IterationCompleted *IterationCompleted `json:"iteration_completed,omitempty"`
	ToolInvoked        *ToolInvoked        `json:"tool_invoked,omitempty"`
	FileChanged        *FileChanged        `json:"file_changed,omitempty"`
	TestResult         *TestResult         `json:"test_result,omitempty"`
	ScoreUpdated       *ScoreUpdated       `json:"score_updated,omitempty"`
	StateChanged       *StateChanged       `json:"state_changed,omitempty"`
	SubagentSpawned    *SubagentSpawned    `json:"subagent_spawned,omitempty"`
	SubagentCompleted  *SubagentCompleted  `json:"subagent_completed,omitempty"`
	LogMessage         *LogMessage         `json:"log_message,omitempty"`
	ErrorOccurred      *ErrorOccurred      `json:"error_occurred,omitempty"`
	ArtifactWritten    *ArtifactWritten    `json:"artifact_written,omitempty"`
}

// Payload is implemented by every event payload type.
type Payload interface {
	EventType() EventType
}

type IterationStarted struct {
	Iteration    int    `json:"iteration"`
	Depth        int    `json:"depth"`
	NodeID       string `json:"node_id,omitempty"`
	ParentNodeID string `json:"parent_node_id,omitempty"`
}

type IterationCompleted struct {
	Iteration       int                `json:"iteration"`
	Score           float64            `json:"score"`
	Improvements    []string           `json:"improvements,omitempty"`
	Dimensions      *QualityDimensions `json:"dimensions,omitempty"`
	DurationSeconds float64            `json:"duration_seconds"`
	NodeID          string             `json:"node_id,omitempty"`
	TotalCostUSD    float64            `json:"total_cost_usd"`
	InputTokens     int64              `json:"input_tokens"`
	OutputTokens    int64              `json:"output_tokens"`
	NumTurns        int                `json:"num_turns"`
}

type ToolInvoked struct {
	ToolName     string `json:"tool_name"`
	Summary      string `json:"summary"`
	Blocked      bool   `json:"blocked"`
	BlockReason  string `json:"block_reason,omitempty"`
	Depth        int    `json:"depth"`
	NodeID       string `json:"node_id,omitempty"`
	ParentNodeID string `json:"parent_node_id,omitempty"`
	ToolInput    string `json:"tool_input,omitempty"`
	ToolOutput   string `json:"tool_output,omitempty"`
	ToolUseID    string `json:"tool_use_id,omitempty"`
}

type FileChanged struct {
	Path         string     `json:"path"`
	Action       FileAction `json:"action"`
	LinesAdded   int        `json:"lines_added"`
	LinesRemoved int        `json:"lines_removed"`
	NodeID       string     `json:"node_id,omitempty"`
}

type TestResult struct {
	Framework   string   `json:"framework"`
	Passed      int      `json:"passed"`
	Failed      int      `json:"failed"`
	Skipped     int      `json:"skipped"`
	Errors      int      `json:"errors"`
	Coverage    float64  `json:"coverage"`
	FailedTests []string `json:"failed_tests,omitempty"`
	NodeID      string   `json:"node_id,omitempty"`
}

type ScoreUpdated struct {
	OldScore   float64            `json:"old_score"`
	NewScore   float64            `json:"new_score"`
	Reason     string             `json:"reason"`
	Dimensions *QualityDimensions `json:"dimensions,omitempty"`
}

type StateChanged struct {
	OldState ExecutionState `json:"old_state"`
	NewState ExecutionState `json:"new_state"`
	Reason   string         `json:"reason"`
}

type SubagentSpawned struct {
	SubagentID   string `json:"subagent_id"`
	SubagentType string `json:"subagent_type"`
	TaskSummary  string `json:"task_summary"`
	Depth        int    `json:"depth"`
	NodeID       string `json:"node_id,omitempty"`
	ParentNodeID string `json:"parent_node_id,omitempty"`
}

type SubagentCompleted struct {
	SubagentID    string `json:"subagent_id"`
	Success       bool   `json:"success"`
	ResultSummary string `json:"result_summary"`
	NodeID        string `json:"node_id,omitempty"`
}

type LogMessage struct {
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
	Source  string   `json:"source,omitempty"`
}

type ErrorOccurred struct {
	ErrorType   string `json:"error_type"`
	Message     string `json:"message"`
	Traceback   string `json:"traceback,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

type ArtifactWritten struct {
	Path         string `json:"path"`
	ArtifactType string `json:"artifact_type"`
	Title        string `json:"title"`
}

func (*IterationStarted) EventType() EventType   { return EventIterationStarted }
func (*IterationCompleted) EventType() EventType { return EventIterationCompleted }
func (*ToolInvoked) EventType() EventType        { return EventToolInvoked }
func (*FileChanged) EventType() EventType        { return EventFileChanged }
func (*TestResult) EventType() EventType         { return EventTestResult }
func (*ScoreUpdated) EventType() EventType       { return EventScoreUpdated }
func (*StateChanged) EventType() EventType       { return EventStateChanged }
func (*SubagentSpawned) EventType() EventType    { return EventSubagentSpawned }
func (*SubagentCompleted) EventType() EventType  { return EventSubagentCompleted }
func (*LogMessage) EventType() EventType         { return EventLogMessage }
func (*ErrorOccurred) EventType() EventType      { return EventErrorOccurred }
func (*ArtifactWritten) EventType() EventType    { return EventArtifactWritten }

// NewEvent wraps a payload into an AgentEvent stamped with the current time.
func NewEvent(executionID string, p Payload) AgentEvent {
	ev := AgentEvent{
		ExecutionID: executionID,
		Timestamp:   time.Now().UTC(),
		Type:        p.EventType(),
	}
	switch v := p.(type) {
	case *IterationStarted:
		ev.IterationStarted = v
	case *IterationCompleted:
		ev.IterationCompleted = v
	case *ToolInvoked:
		ev.ToolInvoked = v
	case *FileChanged:
		ev.FileChanged = v
	case *TestResult:
		ev.TestResult = v
	case *ScoreUpdated:
		ev.ScoreUpdated = v
	case *StateChanged:
		ev.StateChanged = v
	case *SubagentSpawned:
		ev.SubagentSpawned = v
	case *SubagentCompleted:
		ev.SubagentCompleted = v
	case *LogMessage:
		ev.LogMessage = v
	case *ErrorOccurred:
		ev.ErrorOccurred = v
	case *ArtifactWritten:
		ev.ArtifactWritten = v
	}
	return ev
}

// Payload returns the populated payload, or nil if none matches Type.
func (e AgentEvent) Payload() Payload {
	switch e.Type {
	case EventIterationStarted:
		return nilIfEmpty(e.IterationStarted)
	case EventIterationCompleted:
		return nilIfEmpty(e.IterationCompleted)
	case EventToolInvoked:
		return nilIfEmpty(e.ToolInvoked)
	case EventFileChanged:
		return nilIfEmpty(e.FileChanged)
	case EventTestResult:
		return nilIfEmpty(e.TestResult)
	case EventScoreUpdated:
		return nilIfEmpty(e.ScoreUpdated)
	case EventStateChanged:
		return nilIfEmpty(e.StateChanged)
	case EventSubagentSpawned:
		return nilIfEmpty(e.SubagentSpawned)
	case EventSubagentCompleted:
		return nilIfEmpty(e.SubagentCompleted)
	case EventLogMessage:
		return nilIfEmpty(e.LogMessage)
	case EventErrorOccurred:
		return nilIfEmpty(e.ErrorOccurred)
	case EventArtifactWritten:
		return nilIfEmpty(e.ArtifactWritten)
	}
	return nil
}

// nilIfEmpty avoids returning a typed nil inside a non-nil interface.
func nilIfEmpty[T any, P interface {
	*T
	Payload
}](p P) Payload {
	if p == nil {
		return nil
	}
	return p
}
