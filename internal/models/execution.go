package models

import "time"

// ExecutionState is the lifecycle state of an execution.
type ExecutionState string

const (
	StatePending   ExecutionState = "pending"
	StateRunning   ExecutionState = "running"
	StatePaused    ExecutionState = "paused"
	StateCompleted ExecutionState = "completed"
	StateFailed    ExecutionState = "failed"
	StateCancelled ExecutionState = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s ExecutionState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// IsActive reports whether the execution is still in flight.
func (s ExecutionState) IsActive() bool {
	return !s.IsTerminal()
}

// Execution config defaults.
const (
	DefaultMaxIterations    = 3
	DefaultQualityThreshold = 70.0
	DefaultModel            = "sonnet"
	DefaultTimeoutSeconds   = 300.0
	DefaultMinImprovement   = 5.0
)

// AvailableModels lists the model aliases accepted by the agent CLI.
var AvailableModels = []string{"sonnet", "opus", "haiku"}

// ExecutionConfig holds per-execution tuning.
type ExecutionConfig struct {
	MaxIterations    int     `json:"max_iterations" yaml:"max_iterations"`
	QualityThreshold float64 `json:"quality_threshold" yaml:"quality_threshold"`
	Model            string  `json:"model" yaml:"model"`
	// TimeoutSeconds is recorded but not enforced against the subprocess.
	TimeoutSeconds   float64 `json:"timeout_seconds" yaml:"timeout_seconds"`
	PalReviewEnabled bool    `json:"pal_review_enabled" yaml:"pal_review_enabled"`
	MinImprovement   float64 `json:"min_improvement" yaml:"min_improvement"`
}

// DefaultExecutionConfig returns the built-in execution defaults.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		MaxIterations:    DefaultMaxIterations,
		QualityThreshold: DefaultQualityThreshold,
		Model:            DefaultModel,
		TimeoutSeconds:   DefaultTimeoutSeconds,
		PalReviewEnabled: true,
		MinImprovement:   DefaultMinImprovement,
	}
}

// WithDefaults returns c with zero-valued fields taken from def.
func (c ExecutionConfig) WithDefaults(def ExecutionConfig) ExecutionConfig {
	if c.MaxIterations <= 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.QualityThreshold <= 0 {
		c.QualityThreshold = def.QualityThreshold
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.MinImprovement <= 0 {
		c.MinImprovement = def.MinImprovement
	}
	return c
}

// EvidenceSummary is the wire view of an execution's collected evidence.
type EvidenceSummary struct {
	FilesWritten       []string `json:"files_written"`
	FilesEdited        []string `json:"files_edited"`
	FilesRead          []string `json:"files_read"`
	CommandsRun        int      `json:"commands_run"`
	TestsPassed        int      `json:"tests_passed"`
	TestsFailed        int      `json:"tests_failed"`
	TestsRun           bool     `json:"tests_run"`
	TestFramework      string   `json:"test_framework,omitempty"`
	SubagentsSpawned   int      `json:"subagents_spawned"`
	TotalFilesModified int      `json:"total_files_modified"`
}

// RunInstructions describes how to build and run what the agent produced.
type RunInstructions struct {
	BuildCommand string   `json:"build_command"`
	RunCommand   string   `json:"run_command"`
	Artifacts    []string `json:"artifacts"`
	Notes        string   `json:"notes"`
}

// ScoreDimension is one row of a score breakdown.
type ScoreDimension struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
	Weight   float64 `json:"weight,omitempty"`
	Detail   string  `json:"detail,omitempty"`
}

// ExecutionStatus is the full status of one execution.
type ExecutionStatus struct {
	ExecutionID       string          `json:"execution_id"`
	Task              string          `json:"task"`
	ProjectRoot       string          `json:"project_root"`
	State             ExecutionState  `json:"state"`
	Config            ExecutionConfig `json:"config"`
	CurrentIteration  int             `json:"current_iteration"`
	MaxIterations     int             `json:"max_iterations"`
	CurrentScore      float64         `json:"current_score"`
	QualityThreshold  float64         `json:"quality_threshold"`
	TerminationReason string          `json:"termination_reason,omitempty"`
	Evidence          EvidenceSummary `json:"evidence"`
	StartedAt         time.Time       `json:"started_at"`
	EndedAt           *time.Time      `json:"ended_at,omitempty"`
	TotalCostUSD      float64         `json:"total_cost_usd"`
	InputTokens       int64           `json:"input_tokens"`
	OutputTokens      int64           `json:"output_tokens"`
}

// ExecutionSummary is the condensed list view of one execution.
type ExecutionSummary struct {
	ExecutionID      string         `json:"execution_id"`
	Task             string         `json:"task"`
	ProjectRoot      string         `json:"project_root"`
	State            ExecutionState `json:"state"`
	CurrentIteration int            `json:"current_iteration"`
	CurrentScore     float64        `json:"current_score"`
	StartedAt        time.Time      `json:"started_at"`
	EndedAt          *time.Time     `json:"ended_at,omitempty"`
	DurationSeconds  float64        `json:"duration_seconds"`
	TotalCostUSD     float64        `json:"total_cost_usd"`
}
