package tui

import "github.com/superclaude/superclaude/internal/models"

// ExecutionsLoadedMsg carries the execution list from ListExecutions.
type ExecutionsLoadedMsg struct {
	Executions []models.ExecutionSummary
}

// StatusLoadedMsg carries the followed execution's status.
type StatusLoadedMsg struct {
	Status *models.ExecutionStatus
}

// EventMsg carries one streamed event.
type EventMsg struct {
	ExecutionID string
	Event       *models.AgentEvent
}

// StreamEndedMsg signals the event stream for an execution closed.
type StreamEndedMsg struct {
	ExecutionID string
}

// ActionDoneMsg reports a successful stop, pause or resume.
type ActionDoneMsg struct {
	Message string
}

// DaemonDisconnectedMsg signals the daemon connection was lost.
type DaemonDisconnectedMsg struct{}

// ErrorMsg carries an error to display.
type ErrorMsg struct {
	Err error
}

// TickMsg is a periodic tick for polling.
type TickMsg struct{}

// ClearErrorMsg clears the error display.
type ClearErrorMsg struct{}
