// Package execution supervises agent runs: one Execution per run, owned by
// a Manager registry.
package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/superclaude/superclaude/internal/daemon/eventbus"
	"github.com/superclaude/superclaude/internal/daemon/evidence"
	"github.com/superclaude/superclaude/internal/daemon/quality"
	"github.com/superclaude/superclaude/internal/daemon/stream"
	"github.com/superclaude/superclaude/internal/daemon/telemetry"
	"github.com/superclaude/superclaude/internal/daemon/watcher"
	"github.com/superclaude/superclaude/internal/models"
)

var (
	// ErrNotFound is returned for an unknown execution id.
	ErrNotFound = errors.New("execution not found")
	// ErrInvalidState is returned when a transition is not allowed from the
	// current state.
	ErrInvalidState = errors.New("invalid execution state")
	// ErrInvalidRequest is returned for a malformed start request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAgentNotFound is returned when no agent binary can be resolved.
	ErrAgentNotFound = errors.New("claude binary not found")
)

const (
	reasonCompleted = "Execution completed successfully"
	reasonStarted   = "Execution started"
	reasonPaused    = "Paused by user"
	reasonResumed   = "Resumed by user"
	reasonStopped   = "Stopped by user"
	reasonForced    = "Force stopped by user"
)

// Detail is the full record of an execution for inspection.
type Detail struct {
	Status          models.ExecutionStatus
	Events          []models.AgentEvent
	RunInstructions *models.RunInstructions
	ScoreBreakdown  []models.ScoreDimension
}

// Execution is one supervised run of the agent against a task.
type Execution struct {
	ID          string
	Task        string
	ProjectRoot string
	Config      models.ExecutionConfig
	StartedAt   time.Time

	log     zerolog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	scorer  quality.Scorer

	bus       *eventbus.Bus
	collector *evidence.Collector
	parser    *stream.Parser
	stderr    *stderrMonitor
	journal   *journal
	watcher   *watcher.MetricsWatcher
	proc      *Process

	// emitMu keeps history and journal in the same order.
	emitMu sync.Mutex

	mu      sync.Mutex
	state   models.ExecutionState
	reason  string
	endedAt *time.Time
}

// State returns the current state.
func (e *Execution) State() models.ExecutionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Bus returns the execution's event bus.
func (e *Execution) Bus() *eventbus.Bus { return e.bus }

// Status returns the full status snapshot.
func (e *Execution) Status() models.ExecutionStatus {
	ps := e.parser.State()

	e.mu.Lock()
	state, reason, endedAt := e.state, e.reason, e.endedAt
	e.mu.Unlock()

	return models.ExecutionStatus{
		ExecutionID:       e.ID,
		Task:              e.Task,
		ProjectRoot:       e.ProjectRoot,
		State:             state,
		Config:            e.Config,
		CurrentIteration:  ps.Iteration,
		MaxIterations:     e.Config.MaxIterations,
		CurrentScore:      ps.Score,
		QualityThreshold:  e.Config.QualityThreshold,
		TerminationReason: reason,
		Evidence:          e.collector.Summary(),
		StartedAt:         e.StartedAt,
		EndedAt:           endedAt,
		TotalCostUSD:      ps.TotalCostUSD,
		InputTokens:       ps.InputTokens,
		OutputTokens:      ps.OutputTokens,
	}
}

// Summary returns the condensed list view.
func (e *Execution) Summary() models.ExecutionSummary {
	st := e.Status()
	end := time.Now().UTC()
	if st.EndedAt != nil {
		end = *st.EndedAt
	}
	return models.ExecutionSummary{
		ExecutionID:      st.ExecutionID,
		Task:             st.Task,
		ProjectRoot:      st.ProjectRoot,
		State:            st.State,
		CurrentIteration: st.CurrentIteration,
		CurrentScore:     st.CurrentScore,
		StartedAt:        st.StartedAt,
		EndedAt:          st.EndedAt,
		DurationSeconds:  end.Sub(st.StartedAt).Seconds(),
		TotalCostUSD:     st.TotalCostUSD,
	}
}

// Detail returns status, history, run instructions and the score breakdown.
func (e *Execution) Detail() Detail {
	ps := e.parser.State()
	breakdown := ps.Assessment.Breakdown
	if len(breakdown) == 0 {
		breakdown = e.scorer.Assess(e.collector.Snapshot()).Breakdown
	}
	return Detail{
		Status:          e.Status(),
		Events:          e.bus.History(),
		RunInstructions: ps.RunInstructions,
		ScoreBreakdown:  breakdown,
	}
}

// emit stamps a payload and publishes it.
func (e *Execution) emit(p models.Payload) {
	e.publish(models.NewEvent(e.ID, p))
}

// publish appends ev to history, fans it out and journals it.
func (e *Execution) publish(ev models.AgentEvent) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	ev, ok := e.bus.Emit(ev)
	if !ok {
		return
	}
	e.metrics.EventEmitted(ev.Type)
	if err := e.journal.write(ev); err != nil {
		e.log.Warn().Err(err).Msg("Failed to append to journal")
	}
}

// transition moves to next when allowed(from) holds and emits StateChanged.
func (e *Execution) transition(next models.ExecutionState, reason string, allowed func(models.ExecutionState) bool) error {
	e.mu.Lock()
	prev := e.state
	if !allowed(prev) {
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidState, prev, next)
	}
	e.state = next
	e.reason = reason
	if next.IsTerminal() {
		now := time.Now().UTC()
		e.endedAt = &now
	}
	e.mu.Unlock()

	e.log.Info().Str("from", string(prev)).Str("to", string(next)).Str("reason", reason).Msg("State changed")
	e.emit(&models.StateChanged{OldState: prev, NewState: next, Reason: reason})
	return nil
}

func (e *Execution) pause() error {
	return e.transition(models.StatePaused, reasonPaused, func(s models.ExecutionState) bool {
		return s == models.StateRunning
	})
}

func (e *Execution) resume() error {
	return e.transition(models.StateRunning, reasonResumed, func(s models.ExecutionState) bool {
		return s == models.StatePaused
	})
}

// cancel marks the execution Cancelled. The agent process and its readers
// keep running; only daemon shutdown terminates them.
func (e *Execution) cancel(force bool) error {
	reason := reasonStopped
	if force {
		reason = reasonForced
	}
	return e.transition(models.StateCancelled, reason, func(s models.ExecutionState) bool {
		return s.IsActive()
	})
}

func (e *Execution) onStdout(line string, eof bool) {
	if eof {
		return
	}
	for _, ev := range e.parser.ParseLine(line) {
		e.publish(ev)
	}
}

// heartbeat emits a debug LogMessage at interval while Running.
func (e *Execution) heartbeat(interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-e.proc.Done():
			return
		case <-ticker.C:
			if e.State() == models.StateRunning {
				e.emit(&models.LogMessage{Level: models.LogDebug, Message: "Processing...", Source: "heartbeat"})
			}
		}
	}
}

// finish records the process exit. A Cancelled execution keeps its state;
// otherwise exit code 0 completes it and anything else fails it.
func (e *Execution) finish(archive func(models.ExecutionStatus)) {
	<-e.proc.Done()
	if e.watcher != nil {
		e.watcher.Stop()
	}
	e.collector.Finish()

	code := e.proc.ExitCode()
	ps := e.parser.State()

	if e.State() == models.StateCancelled {
		e.log.Info().Int("exit_code", code).Msg("Agent exited after cancellation")
	} else {
		next, reason := models.StateCompleted, reasonCompleted
		if code != 0 {
			next = models.StateFailed
			reason = ps.TerminationReason
			if reason == "" {
				reason = fmt.Sprintf("Process exited with code: %d", code)
				if tail := e.stderr.tailText(); strings.TrimSpace(tail) != "" {
					reason += ". stderr: " + tail
				}
			}
		}
		if err := e.transition(next, reason, func(s models.ExecutionState) bool { return s.IsActive() }); err != nil {
			e.log.Warn().Err(err).Msg("Could not record process exit")
		}
	}

	final := e.Status()
	_, span := e.tracer.StartSpan(context.Background(), "execution.finish",
		telemetry.AttrExecutionID.String(e.ID),
		telemetry.AttrState.String(string(final.State)),
		telemetry.AttrExitCode.Int(code),
	)
	span.End()
	e.metrics.ExecutionFinished(final.State, final.CurrentScore)
	if archive != nil {
		archive(final)
	}

	e.bus.Close()
	e.journal.close()
	e.log.Info().Int("exit_code", code).Str("state", string(final.State)).Float64("score", final.CurrentScore).Msg("Execution finished")
}
