package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xavierca1/leadflow/internal/usecase"
)

// notificationMsg carries a board notification into the update loop.
type notificationMsg struct {
	n usecase.Notification
}

// ProgramNotifier forwards notifications to a running bubbletea program.
// Notifications raised before Attach are dropped.
type ProgramNotifier struct {
	mu      sync.Mutex
	program *tea.Program
}

func (p *ProgramNotifier) Attach(program *tea.Program) {
	p.mu.Lock()
	p.program = program
	p.mu.Unlock()
}

func (p *ProgramNotifier) Notify(n usecase.Notification) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()
	if program != nil {
		program.Send(notificationMsg{n: n})
	}
}
