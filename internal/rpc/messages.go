// Package rpc is the wire contract between superclauded and its clients:
// message types, the JSON codec, the service descriptor and a typed client.
package rpc

import (
	"time"

	"github.com/superclaude/superclaude/internal/models"
)

type StartExecutionRequest struct {
	Task        string                  `json:"task"`
	ProjectRoot string                  `json:"project_root"`
	Config      *models.ExecutionConfig `json:"config,omitempty"`
}

type StartExecutionResponse struct {
	ExecutionID string                `json:"execution_id"`
	State       models.ExecutionState `json:"state"`
	StartedAt   time.Time             `json:"started_at"`
}

type StopExecutionRequest struct {
	ExecutionID string `json:"execution_id"`
	Force       bool   `json:"force"`
}

// ExecutionIDRequest addresses one execution.
type ExecutionIDRequest struct {
	ExecutionID string `json:"execution_id"`
}

// ActionResponse answers stop, pause and resume.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ListExecutionsRequest struct {
	IncludeCompleted bool `json:"include_completed"`
	Limit            int  `json:"limit"`
}

type ListExecutionsResponse struct {
	Executions []models.ExecutionSummary `json:"executions"`
}

type ExecutionDetailResponse struct {
	Status          models.ExecutionStatus  `json:"status"`
	Events          []models.AgentEvent     `json:"events"`
	RunInstructions *models.RunInstructions `json:"run_instructions,omitempty"`
	ScoreBreakdown  []models.ScoreDimension `json:"score_breakdown"`
}

type StreamEventsRequest struct {
	ExecutionID    string `json:"execution_id"`
	IncludeHistory bool   `json:"include_history"`
}

type Configuration struct {
	Defaults        models.ExecutionConfig `json:"defaults"`
	AvailableModels []string               `json:"available_models"`
	Obsidian        models.ObsidianConfig  `json:"obsidian"`
	ScoringMode     string                 `json:"scoring_mode"`
}

// UpdateConfigurationRequest replaces whichever sections are set.
type UpdateConfigurationRequest struct {
	Defaults *models.ExecutionConfig `json:"defaults,omitempty"`
	Obsidian *models.ObsidianConfig  `json:"obsidian,omitempty"`
}

type ListObsidianNotesRequest struct {
	Folder string `json:"folder"`
}

type ListObsidianNotesResponse struct {
	Notes []models.ObsidianNote `json:"notes"`
}

type GetObsidianNoteRequest struct {
	RelativePath string `json:"relative_path"`
}

type PingResponse struct {
	Version          string    `json:"version"`
	ActiveExecutions int       `json:"active_executions"`
	UptimeSince      time.Time `json:"uptime_since"`
}
