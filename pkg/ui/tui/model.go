package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"zhexport/pkg/exporter"
)

// ProgressMsg carries one export progress snapshot into the TUI
type ProgressMsg exporter.ProgressEvent

// historyLine is one finished item shown in the recent-items list
type historyLine struct {
	label  string
	failed bool
}

// maxHistory bounds the recent-items list
const maxHistory = 8

// Model is the bubbletea model for a running export
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	scope      string
	collection string
	processed  int
	total      int
	ok         int
	failed     int
	lastItem   string
	history    []historyLine

	startTime time.Time
	done      bool
	quitting  bool

	width  int
	height int
}

// NewModel creates the initial model
func NewModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(neonCyan)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return Model{
		spinner:   s,
		bar:       bar,
		startTime: time.Now(),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// apply folds a progress event into the model
func (m *Model) apply(ev exporter.ProgressEvent) {
	if ev.ScopeLabel != "" {
		m.scope = ev.ScopeLabel
	}
	m.collection = ev.Collection
	m.processed = ev.Processed
	m.total = ev.Total
	m.ok = ev.OK
	m.failed = ev.Failed

	switch ev.Stage {
	case exporter.StageProgress:
		if ev.LastItem != "" && ev.LastItem != m.lastItem {
			m.lastItem = ev.LastItem
			m.history = append(m.history, historyLine{
				label:  ev.LastItem,
				failed: ev.LastFile == "",
			})
			if len(m.history) > maxHistory {
				m.history = m.history[len(m.history)-maxHistory:]
			}
		}
	case exporter.StageDone:
		m.done = true
	}
}

// ratio is the completed fraction for the progress bar
func (m Model) ratio() float64 {
	if m.total <= 0 {
		return 0
	}
	r := float64(m.processed) / float64(m.total)
	if r > 1 {
		r = 1
	}
	return r
}
