package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/superclaude/superclaude/internal/models"
	"github.com/superclaude/superclaude/internal/rpc"
)

// Model is the root Bubbletea model for the dashboard.
type Model struct {
	client  *rpc.Client
	program *programRef

	// initialID is selected once it shows up in the list.
	initialID string

	// Child components
	execs *ExecList
	log   *EventLog

	// Followed execution
	following    string
	status       *models.ExecutionStatus
	streamCtx    context.Context
	streamCancel context.CancelFunc

	// UI state
	focusedPanel int // 0=list, 1=events
	splitRatio   float64
	width        int
	height       int
	confirmStop  bool

	// Status display
	err          error
	notice       string
	disconnected bool
}

// NewModel creates the initial dashboard model.
func NewModel(client *rpc.Client, opts Options, program *programRef) Model {
	format := opts.FormatEvent
	if format == nil {
		format = func(ev *models.AgentEvent) string { return string(ev.Type) }
	}
	return Model{
		client:       client,
		program:      program,
		initialID:    opts.ExecutionID,
		execs:        NewExecList(),
		log:          NewEventLog(format),
		splitRatio:   0.4,
		streamCancel: func() {},
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadExecutionsCmd(m.client),
		pollTick(),
		m.execs.spinner.Tick,
	)
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	// ── Window resize ──────────────────────────────────────────────
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateDimensions()
		return m, nil

	// ── Key events ─────────────────────────────────────────────────
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	// ── Daemon data ────────────────────────────────────────────────
	case ExecutionsLoadedMsg:
		m.disconnected = false
		m.execs.SetItems(msg.Executions)
		if m.initialID != "" && m.execs.Select(m.initialID) {
			m.initialID = ""
		}
		return m, m.followSelected()

	case StatusLoadedMsg:
		if msg.Status != nil && msg.Status.ExecutionID == m.following {
			m.status = msg.Status
		}
		return m, nil

	case EventMsg:
		if msg.ExecutionID == m.following && msg.Event != nil {
			m.log.Append(msg.Event)
		}
		return m, nil

	case StreamEndedMsg:
		if msg.ExecutionID == m.following {
			cmds = append(cmds, loadStatusCmd(m.client, m.following))
		}
		return m, tea.Batch(cmds...)

	case ActionDoneMsg:
		m.notice = msg.Message
		cmds = append(cmds, loadExecutionsCmd(m.client))
		if m.following != "" {
			cmds = append(cmds, loadStatusCmd(m.client, m.following))
		}
		return m, tea.Batch(cmds...)

	case DaemonDisconnectedMsg:
		m.disconnected = true
		return m, nil

	// ── Polling tick ───────────────────────────────────────────────
	case TickMsg:
		cmds = append(cmds, loadExecutionsCmd(m.client), pollTick())
		if m.following != "" && (m.status == nil || m.status.State.IsActive()) {
			cmds = append(cmds, loadStatusCmd(m.client, m.following))
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		return m, m.execs.Tick(msg)

	// ── Error handling ─────────────────────────────────────────────
	case ErrorMsg:
		m.err = msg.Err
		return m, clearErrorAfter(5 * time.Second)

	case ClearErrorMsg:
		m.err = nil
		return m, nil
	}

	return m, nil
}

// followSelected switches the event stream to the selected execution.
func (m *Model) followSelected() tea.Cmd {
	sel := m.execs.Selected()
	if sel == nil || sel.ExecutionID == m.following {
		return nil
	}

	m.streamCancel()
	m.streamCtx, m.streamCancel = context.WithCancel(context.Background())
	m.following = sel.ExecutionID
	m.status = nil
	m.notice = ""
	m.log.Reset()

	return tea.Batch(
		subscribeEventsCmd(m.streamCtx, m.client, m.following, m.program),
		loadStatusCmd(m.client, m.following),
	)
}

// handleKey processes key events.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Confirm mode captures everything
	if m.confirmStop {
		switch {
		case key.Matches(msg, confirmKeys.Yes):
			m.confirmStop = false
			return stopExecutionCmd(m.client, m.following)
		case key.Matches(msg, confirmKeys.No):
			m.confirmStop = false
		}
		return nil
	}

	switch {
	case key.Matches(msg, globalKeys.Quit):
		return m.doQuit()
	case key.Matches(msg, globalKeys.Tab):
		m.focusedPanel = 1 - m.focusedPanel
		return nil
	}

	if m.focusedPanel == 1 {
		m.handleLogKey(msg)
		return nil
	}
	return m.handleListKey(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, listKeys.Up):
		m.execs.MoveUp()
		return m.followSelected()
	case key.Matches(msg, listKeys.Down):
		m.execs.MoveDown()
		return m.followSelected()
	}

	sel := m.execs.Selected()
	if sel == nil {
		return nil
	}
	switch {
	case key.Matches(msg, listKeys.Pause):
		if sel.State == models.StateRunning {
			return pauseExecutionCmd(m.client, sel.ExecutionID)
		}
		return m.showError("only a running execution can be paused")
	case key.Matches(msg, listKeys.Resume):
		if sel.State == models.StatePaused {
			return resumeExecutionCmd(m.client, sel.ExecutionID)
		}
		return m.showError("only a paused execution can be resumed")
	case key.Matches(msg, listKeys.Stop):
		if sel.State.IsActive() {
			m.confirmStop = true
			return nil
		}
		return m.showError("execution already finished")
	}
	return nil
}

func (m *Model) handleLogKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, logKeys.Up):
		m.log.ScrollUp(1)
	case key.Matches(msg, logKeys.Down):
		m.log.ScrollDown(1)
	case key.Matches(msg, logKeys.PageUp):
		m.log.PageUp()
	case key.Matches(msg, logKeys.PageDown):
		m.log.PageDown()
	case key.Matches(msg, logKeys.Follow):
		m.log.Follow()
	}
}

func (m *Model) showError(text string) tea.Cmd {
	m.err = errors.New(text)
	return clearErrorAfter(3 * time.Second)
}

func (m *Model) doQuit() tea.Cmd {
	m.streamCancel()
	return tea.Quit
}

func (m *Model) updateDimensions() {
	layout := computeLayout(m.width, m.height, m.splitRatio)
	_, rightInner, innerHeight := layout.inner()
	m.log.SetSize(rightInner, innerHeight)
}

// ── View ─────────────────────────────────────────────────────────

// View renders the dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	layout := computeLayout(m.width, m.height, m.splitRatio)
	leftInner, _, innerHeight := layout.inner()

	header := renderHeader(&m, m.width)
	panels := renderPanels(m.execs.View(leftInner, innerHeight), m.log.View(), layout, m.focusedPanel)
	statusBar := renderStatusBar(&m, m.width)

	return lipgloss.JoinVertical(lipgloss.Left, header, panels, statusBar)
}
