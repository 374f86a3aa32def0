package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jaxxstorm/devdiag/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	findingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
)

func Title() string {
	return titleStyle.Render("devdiag")
}

func RenderPretty(run model.Run) string {
	lines := []string{
		Header(run.ID, run.Origin, run.Scheme, run.Ports),
		"",
		RenderEntries(EntriesFor(run)),
		"",
		Footer(run),
	}
	return strings.Join(lines, "\n")
}

func Header(runID string, origin string, scheme string, ports []int) string {
	return Title() + "\n" + hintStyle.Render(fmt.Sprintf("origin=%s scheme=%s ports=%s run=%s", origin, scheme, joinPorts(ports), runID))
}

// Footer is the one-line run summary.
func Footer(run model.Run) string {
	elapsed := run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)
	summary := fmt.Sprintf("%d checks, %d failed, %d findings in %s", len(run.Results), run.Failed(), len(run.Findings), elapsed)
	if len(run.Findings) == 0 {
		return successStyle.Render(summary)
	}
	return failureStyle.Render(summary)
}

func EntriesFor(run model.Run) []model.Entry {
	entries := make([]model.Entry, 0, len(run.Results)+len(run.Findings))
	for i := range run.Results {
		entries = append(entries, model.Entry{RunID: run.ID, Result: &run.Results[i]})
	}
	for i := range run.Findings {
		entries = append(entries, model.Entry{RunID: run.ID, Finding: &run.Findings[i]})
	}
	return entries
}

func RenderEntries(entries []model.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, RenderEntry(entry))
	}
	return strings.Join(lines, "\n")
}

func RenderEntry(entry model.Entry) string {
	switch {
	case entry.Error != "":
		return RenderErrorText(entry.Error)
	case entry.Finding != nil:
		return renderFinding(*entry.Finding)
	case entry.Result != nil:
		return renderResult(*entry.Result)
	default:
		return ""
	}
}

func renderResult(result model.CheckResult) string {
	status := successStyle.Render("OK  ")
	if !result.OK {
		status = failureStyle.Render("FAIL")
	}
	line := fmt.Sprintf("%s %-15s %s", status, result.Kind, result.Target)
	if result.Detail != "" {
		if result.OK {
			line += " -> " + result.Detail
		} else {
			line += " -> error: " + result.Detail
		}
	}
	if result.Failure != model.FailureNone {
		line += " failure=" + string(result.Failure)
	}
	if result.Adapter != nil {
		line += fmt.Sprintf(" online=%t check=%s dns=%s", result.Adapter.Online, result.Adapter.Check, result.Adapter.DNS)
	}
	if result.Duration != "" {
		line += " rtt=" + result.Duration
	}
	lines := []string{stepStyle.Render(line)}
	if result.Hint != "" {
		lines = append(lines, hintStyle.Render("     hint: "+result.Hint))
	}
	return strings.Join(lines, "\n")
}

func renderFinding(finding model.Finding) string {
	lines := []string{findingStyle.Render("!    " + finding.Summary)}
	if finding.Remediation != "" {
		lines = append(lines, "     "+finding.Remediation)
	}
	if finding.Command != "" {
		lines = append(lines, "     run: "+commandStyle.Render(finding.Command))
	}
	if finding.HelpURL != "" {
		lines = append(lines, hintStyle.Render("     help: "+finding.HelpURL))
	}
	return strings.Join(lines, "\n")
}

func RenderError(err error) string {
	return RenderErrorText(err.Error())
}

func RenderErrorText(msg string) string {
	return failureStyle.Render("ERROR") + " " + msg
}

func joinPorts(ports []int) string {
	parts := make([]string, 0, len(ports))
	for _, port := range ports {
		parts = append(parts, fmt.Sprint(port))
	}
	return strings.Join(parts, ",")
}
