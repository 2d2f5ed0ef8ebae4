package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/superclaude/superclaude/internal/config"
	"github.com/superclaude/superclaude/internal/daemon/eventbus"
	"github.com/superclaude/superclaude/internal/daemon/evidence"
	"github.com/superclaude/superclaude/internal/daemon/quality"
	"github.com/superclaude/superclaude/internal/daemon/safety"
	"github.com/superclaude/superclaude/internal/daemon/stream"
	"github.com/superclaude/superclaude/internal/daemon/telemetry"
	"github.com/superclaude/superclaude/internal/daemon/watcher"
	"github.com/superclaude/superclaude/internal/models"
)

// Archiver persists finished executions.
type Archiver interface {
	Archive(ctx context.Context, status models.ExecutionStatus) error
}

// Options configures a Manager.
type Options struct {
	// ResolveAgent returns the agent binary path. Defaults to ResolveAgentPath
	// with no settings.
	ResolveAgent func() (string, error)
	// ExtraArgs are inserted before the task argument.
	ExtraArgs []string

	Defaults          models.ExecutionConfig
	Scoring           models.ScoringConfig
	HeartbeatInterval time.Duration
	HistoryLimit      int
	SubscriberBuffer  int

	Validator *safety.Validator
	Metrics   *telemetry.Metrics
	Tracer    *telemetry.Tracer
	Archive   Archiver
}

// StartRequest describes a new execution.
type StartRequest struct {
	Task        string
	ProjectRoot string
	Config      *models.ExecutionConfig
}

// Manager is the execution registry. The registry lock is never held while
// spawning, signalling or waiting on a process.
type Manager struct {
	opts Options
	log  zerolog.Logger

	mu         sync.RWMutex
	executions map[string]*Execution // visible to RPCs; explicit stop removes
	live       map[string]*Execution // agent process still running
	defaults   models.ExecutionConfig
	finished   sync.WaitGroup
}

// NewManager creates an empty registry.
func NewManager(opts Options) *Manager {
	if opts.ResolveAgent == nil {
		opts.ResolveAgent = func() (string, error) { return ResolveAgentPath(nil) }
	}
	if opts.Validator == nil {
		opts.Validator = safety.NewValidator()
	}
	if opts.Defaults == (models.ExecutionConfig{}) {
		opts.Defaults = models.DefaultExecutionConfig()
	}
	return &Manager{
		opts:       opts,
		log:        log.With().Str("component", "execution").Logger(),
		executions: make(map[string]*Execution),
		live:       make(map[string]*Execution),
		defaults:   opts.Defaults,
	}
}

// Defaults returns the execution config applied to fields a request leaves
// unset.
func (m *Manager) Defaults() models.ExecutionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaults
}

// SetDefaults replaces the defaults for future executions.
func (m *Manager) SetDefaults(cfg models.ExecutionConfig) {
	m.mu.Lock()
	m.defaults = cfg.WithDefaults(models.DefaultExecutionConfig())
	m.mu.Unlock()
}

func (m *Manager) newScorer(threshold float64) quality.Scorer {
	qc := quality.DefaultConfig()
	qc.QualityThreshold = threshold
	if m.opts.Scoring.MinCoverage > 0 {
		qc.MinCoverage = m.opts.Scoring.MinCoverage
	}
	return quality.New(m.opts.Scoring.Mode, qc)
}

// Start spawns the agent for req. The execution is registered only once the
// process is running; a spawn failure leaves nothing behind.
func (m *Manager) Start(ctx context.Context, req StartRequest) (*Execution, error) {
	if strings.TrimSpace(req.Task) == "" {
		return nil, fmt.Errorf("%w: task is required", ErrInvalidRequest)
	}
	info, err := os.Stat(req.ProjectRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: project root %q is not a directory", ErrInvalidRequest, req.ProjectRoot)
	}

	cfg := m.Defaults()
	if req.Config != nil {
		cfg = req.Config.WithDefaults(cfg)
	}

	id := uuid.NewString()
	_, span := m.opts.Tracer.StartSpan(ctx, "execution.start",
		telemetry.AttrExecutionID.String(id),
		telemetry.AttrModel.String(cfg.Model),
	)
	defer span.End()

	agentPath, err := m.opts.ResolveAgent()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	e := m.newExecution(id, req, cfg)

	cmd := exec.Command(agentPath, m.agentArgs(cfg, req.Task)...)
	cmd.Dir = req.ProjectRoot
	cmd.Env = append(os.Environ(),
		"SUPERCLAUDE_EXECUTION_ID="+id,
		"SUPERCLAUDE_MAX_ITERATIONS="+strconv.Itoa(cfg.MaxIterations),
		"SUPERCLAUDE_QUALITY_THRESHOLD="+strconv.FormatFloat(cfg.QualityThreshold, 'f', -1, 64),
		"SUPERCLAUDE_MODEL="+cfg.Model,
	)

	// Readers start immediately, so the journal and state must be ready
	// before the spawn. Output waits in the pipe until the lines are read.
	if j, err := openJournal(req.ProjectRoot, id); err != nil {
		e.log.Warn().Err(err).Msg("Event journal disabled")
	} else {
		e.journal = j
	}

	var ready sync.WaitGroup
	ready.Add(1)
	proc, err := StartProcess(cmd,
		func(line string, eof bool) { ready.Wait(); e.onStdout(line, eof) },
		func(line string, eof bool) { ready.Wait(); e.stderr.line(line, eof) },
	)
	if err != nil {
		ready.Done()
		e.journal.close()
		span.RecordError(err)
		return nil, err
	}
	e.proc = proc

	if err := e.transition(models.StateRunning, reasonStarted, func(s models.ExecutionState) bool {
		return s == models.StatePending
	}); err != nil {
		e.log.Warn().Err(err).Msg("Unexpected state at start")
	}
	e.emit(&models.LogMessage{
		Level:   models.LogDebug,
		Message: fmt.Sprintf("Timeout of %.0fs is recorded but not enforced", cfg.TimeoutSeconds),
		Source:  "daemon",
	})

	w := watcher.New(config.MetricsDir(req.ProjectRoot), id, e.publish)
	if err := w.Start(); err != nil {
		e.log.Warn().Err(err).Msg("Metrics watcher unavailable")
	} else {
		e.watcher = w
	}

	m.mu.Lock()
	m.executions[id] = e
	m.live[id] = e
	m.mu.Unlock()

	m.opts.Metrics.ExecutionStarted()
	e.log.Info().Int("pid", proc.Pid()).Str("agent", agentPath).Str("model", cfg.Model).Msg("Execution started")

	m.finished.Add(1)
	go func() {
		defer m.finished.Done()
		e.finish(m.archive)
		m.mu.Lock()
		delete(m.live, id)
		m.mu.Unlock()
	}()
	go e.heartbeat(m.opts.HeartbeatInterval)

	ready.Done()
	return e, nil
}

func (m *Manager) agentArgs(cfg models.ExecutionConfig, task string) []string {
	args := []string{
		"--print",
		"--verbose",
		"--output-format", "stream-json",
		"--permission-mode", "bypassPermissions",
		"--no-session-persistence",
		"--model", cfg.Model,
	}
	args = append(args, m.opts.ExtraArgs...)
	return append(args, task)
}

func (m *Manager) newExecution(id string, req StartRequest, cfg models.ExecutionConfig) *Execution {
	e := &Execution{
		ID:          id,
		Task:        req.Task,
		ProjectRoot: req.ProjectRoot,
		Config:      cfg,
		StartedAt:   time.Now().UTC(),
		log:         m.log.With().Str("execution_id", id).Logger(),
		metrics:     m.opts.Metrics,
		tracer:      m.opts.Tracer,
		scorer:      m.newScorer(cfg.QualityThreshold),
		state:       models.StatePending,
		bus: eventbus.New(eventbus.Options{
			Buffer:       m.opts.SubscriberBuffer,
			HistoryLimit: m.opts.HistoryLimit,
			OnDrop:       m.opts.Metrics.EventDropped,
		}),
		collector: evidence.NewCollector(id),
	}
	e.parser = stream.NewParser(stream.Config{
		ExecutionID: id,
		ProjectRoot: req.ProjectRoot,
		Evidence:    e.collector,
		Validator:   m.opts.Validator,
		Scorer:      e.scorer,
		OnDenial:    func(d *safety.Denial) { m.opts.Metrics.SafetyDenial(string(d.Category)) },
		OnSkip:      m.opts.Metrics.LineSkipped,
	})
	e.stderr = newStderrMonitor(e.emit)
	return e
}

func (m *Manager) archive(st models.ExecutionStatus) {
	if m.opts.Archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.opts.Archive.Archive(ctx, st); err != nil {
		m.log.Warn().Err(err).Str("execution_id", st.ExecutionID).Msg("Failed to archive execution")
	}
}

// Get returns a registered execution.
func (m *Manager) Get(id string) (*Execution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.executions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

// Stop cancels an execution and drops it from the registry. The agent
// process is not signalled and keeps emitting to existing subscribers until
// it exits. An execution that already finished is only dropped; the
// returned flag reports whether a cancellation happened.
func (m *Manager) Stop(id string, force bool) (bool, error) {
	e, err := m.Get(id)
	if err != nil {
		return false, err
	}
	cancelled := true
	if err := e.cancel(force); err != nil {
		if !errors.Is(err, ErrInvalidState) {
			return false, err
		}
		cancelled = false
	}
	m.mu.Lock()
	delete(m.executions, id)
	m.mu.Unlock()
	return cancelled, nil
}

// Pause flips a Running execution to Paused. The process is not suspended.
func (m *Manager) Pause(id string) error {
	e, err := m.Get(id)
	if err != nil {
		return err
	}
	return e.pause()
}

// Resume flips a Paused execution back to Running.
func (m *Manager) Resume(id string) error {
	e, err := m.Get(id)
	if err != nil {
		return err
	}
	return e.resume()
}

// List returns registered executions, newest first. Without
// includeCompleted only Pending, Running and Paused executions are listed.
// A limit of zero or less means no limit.
func (m *Manager) List(includeCompleted bool, limit int) []models.ExecutionSummary {
	m.mu.RLock()
	execs := make([]*Execution, 0, len(m.executions))
	for _, e := range m.executions {
		execs = append(execs, e)
	}
	m.mu.RUnlock()

	sort.Slice(execs, func(i, j int) bool {
		return execs[i].StartedAt.After(execs[j].StartedAt)
	})

	out := make([]models.ExecutionSummary, 0, len(execs))
	for _, e := range execs {
		if !includeCompleted && !e.State().IsActive() {
			continue
		}
		out = append(out, e.Summary())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// ActiveCount is the number of registered executions not yet terminal.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.executions {
		if e.State().IsActive() {
			n++
		}
	}
	return n
}

// Shutdown terminates every agent process still running, including ones
// already cancelled, and waits for their exits to be recorded or ctx to end.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.RLock()
	live := make([]*Execution, 0, len(m.live))
	for _, e := range m.live {
		live = append(live, e)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, e := range live {
		wg.Add(1)
		go func(e *Execution) {
			defer wg.Done()
			e.log.Info().Msg("Stopping agent for shutdown")
			e.proc.Stop()
		}(e)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		m.finished.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.log.Warn().Msg("Shutdown deadline reached with agents still exiting")
	}
}
