package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"zhexport/pkg/exporter"
)

// TUI wraps the bubbletea program and feeds it export progress. It
// satisfies exporter.ProgressSink, so the orchestrator needs no knowledge
// of the terminal at all.
type TUI struct {
	program *tea.Program
}

// New creates a TUI instance
func New() *TUI {
	model := NewModel()
	return &TUI{
		program: tea.NewProgram(model),
	}
}

// Run blocks until the export finishes or the user quits
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Stop shuts the TUI down
func (t *TUI) Stop() {
	t.program.Quit()
}

// Emit implements exporter.ProgressSink
func (t *TUI) Emit(ev exporter.ProgressEvent) {
	t.program.Send(ProgressMsg(ev))
}
