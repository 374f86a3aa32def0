package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jaxxstorm/devdiag/internal/diagnostics"
	"github.com/jaxxstorm/devdiag/internal/model"
	"github.com/jaxxstorm/devdiag/internal/output"
	"github.com/jaxxstorm/devdiag/internal/panel"
	"github.com/jaxxstorm/devdiag/internal/platform"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model drives one panel across any number of runs.
type Model struct {
	ctx     context.Context
	orch    *diagnostics.Orchestrator
	caps    platform.Capabilities
	panel   *panel.Panel
	events  chan tea.Msg
	spinner spinner.Model

	runID    string
	running  bool
	last     *model.Run
	status   string
	statusOK bool
	width    int
}

func NewModel(ctx context.Context, orch *diagnostics.Orchestrator, caps platform.Capabilities, p *panel.Panel) Model {
	return Model{
		ctx:     ctx,
		orch:    orch,
		caps:    caps,
		panel:   p,
		events:  make(chan tea.Msg, 32),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return rerunMsg{} },
		waitForEvent(m.events),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case rerunMsg:
		return m.beginRun()

	case resultMsg:
		m.panel.Append(msg.Result)
		return m, waitForEvent(m.events)

	case runCompleteMsg:
		if m.panel.Complete(msg.Run) {
			run := msg.Run
			m.last = &run
			m.running = false
		}
		return m, waitForEvent(m.events)

	case actionMsg:
		if msg.Err != nil {
			m.status, m.statusOK = msg.Err.Error(), false
		} else {
			m.status, m.statusOK = msg.Status, true
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "r":
		return m.beginRun()
	case "c":
		finding, ok := m.primary()
		if !ok {
			m.status, m.statusOK = "nothing to copy", false
			return m, nil
		}
		return m, copyCmd(m.caps, finding)
	case "o":
		finding, ok := m.primary()
		if !ok {
			m.status, m.statusOK = "nothing to open", false
			return m, nil
		}
		return m, openCmd(m.caps, finding)
	}
	return m, nil
}

// beginRun retags the panel before the run starts so anything still in flight from the
// previous run is rejected.
func (m Model) beginRun() (tea.Model, tea.Cmd) {
	id := m.orch.NewRunID()
	m.panel.Begin(id)
	m.runID = id
	m.running = true
	m.last = nil
	m.status = ""
	return m, tea.Batch(runCmd(m.ctx, m.orch, id, m.events), m.spinner.Tick)
}

func (m Model) primary() (model.Finding, bool) {
	if m.last == nil {
		return model.Finding{}, false
	}
	return m.last.Primary()
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(output.Title())
	if m.running {
		b.WriteString(" " + m.spinner.View() + " running")
	}
	b.WriteString("\n\n")
	if rendered := m.panel.Render(); rendered != "" {
		b.WriteString(rendered)
		b.WriteString("\n")
	}
	if m.last != nil {
		b.WriteString("\n" + output.Footer(*m.last) + "\n")
	}
	if m.status != "" {
		style := statusStyle
		if !m.statusOK {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(m.status) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("r: run again  c: copy fix  o: open help  q: quit"))
	return b.String()
}
