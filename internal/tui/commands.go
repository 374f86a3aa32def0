package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jaxxstorm/devdiag/internal/diagnostics"
	"github.com/jaxxstorm/devdiag/internal/model"
	"github.com/jaxxstorm/devdiag/internal/platform"
)

// channelSink forwards orchestrator output into the program's event loop.
type channelSink struct {
	ctx    context.Context
	events chan<- tea.Msg
}

func (s channelSink) Append(result model.CheckResult) bool {
	return s.send(resultMsg{Result: result})
}

func (s channelSink) Complete(run model.Run) bool {
	return s.send(runCompleteMsg{Run: run})
}

func (s channelSink) send(msg tea.Msg) bool {
	select {
	case s.events <- msg:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func runCmd(ctx context.Context, orch *diagnostics.Orchestrator, runID string, events chan<- tea.Msg) tea.Cmd {
	return func() tea.Msg {
		orch.Run(ctx, runID, channelSink{ctx: ctx, events: events})
		return nil
	}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func copyCmd(caps platform.Capabilities, finding model.Finding) tea.Cmd {
	return func() tea.Msg {
		if err := diagnostics.CopyCommand(caps, finding); err != nil {
			return actionMsg{Err: err}
		}
		return actionMsg{Status: "copied: " + finding.Command}
	}
}

func openCmd(caps platform.Capabilities, finding model.Finding) tea.Cmd {
	return func() tea.Msg {
		if err := diagnostics.OpenHelp(caps, finding); err != nil {
			return actionMsg{Err: err}
		}
		return actionMsg{Status: "opened: " + finding.HelpURL}
	}
}
