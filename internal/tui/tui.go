// Package tui implements the interactive execution dashboard behind
// `superclaude watch`.
package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/superclaude/superclaude/internal/models"
	"github.com/superclaude/superclaude/internal/rpc"
)

// programRef is a shared reference to the tea.Program for goroutine sends.
// It's set after tea.NewProgram but before p.Run().
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) Set(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Clear nils out the program reference, preventing post-exit sends.
func (r *programRef) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = nil
}

// Options configures the dashboard.
type Options struct {
	// ExecutionID is selected first when it appears in the list.
	ExecutionID string
	// FormatEvent renders one event line; required.
	FormatEvent func(*models.AgentEvent) string
}

// Run shows the dashboard until the user quits.
func Run(client *rpc.Client, opts Options) error {
	ref := &programRef{}
	model := NewModel(client, opts, ref)

	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.Set(p)
	defer ref.Clear()

	_, err := p.Run()
	return err
}
