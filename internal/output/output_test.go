package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jaxxstorm/devdiag/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleRun() model.Run {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return model.Run{
		ID:         "run-1",
		Origin:     "file:///srv/site/",
		Scheme:     "file",
		Ports:      []int{5500, 3000},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Results: []model.CheckResult{
			{Kind: model.KindProtocol, Target: "file:///srv/site/", Detail: model.DetailFileOrigin, Hint: "serve it over HTTP"},
			{Kind: model.KindLocalPort, Port: 5500, Target: "http://localhost:5500/", Detail: "connection refused", Failure: model.FailureNetwork},
			{Kind: model.KindLocalPort, Port: 3000, Target: "http://localhost:3000/", Detail: "context deadline exceeded", Failure: model.FailureTimeout},
			{Kind: model.KindExternal, Target: "https://api.ipify.org?format=json", OK: true, IP: "203.0.113.45", Detail: "203.0.113.45"},
			{Kind: model.KindNetworkAdapter, Target: "https://www.google.com/", OK: true, Adapter: &model.AdapterStatus{Online: true, Check: model.ProbeOK, DNS: model.ProbeSkipped}},
		},
		Findings: []model.Finding{
			{Kind: model.FindingFileOriginNoServer, Summary: "likely cause: file-origin with no dev server", Command: "npx serve -l 5500 .", HelpURL: "https://example.com/help"},
		},
	}
}

func TestRenderPrettyIncludesResultsAndFindings(t *testing.T) {
	out := RenderPretty(sampleRun())
	assert.Contains(t, out, "http://localhost:5500/")
	assert.Contains(t, out, "error: connection refused")
	assert.Contains(t, out, "failure=timeout")
	assert.Contains(t, out, "hint: serve it over HTTP")
	assert.Contains(t, out, "likely cause: file-origin with no dev server")
	assert.Contains(t, out, "npx serve -l 5500 .")
	assert.Contains(t, out, "online=true check=ok dns=skipped")
	assert.Contains(t, out, "5 checks, 3 failed, 1 findings in 1.5s")
}

func TestRenderEntryError(t *testing.T) {
	out := RenderEntry(model.Entry{Error: "no platform capabilities available"})
	assert.True(t, strings.Contains(out, "ERROR"))
	assert.Contains(t, out, "no platform capabilities available")
}

func TestRenderJSON(t *testing.T) {
	out, err := RenderJSON(sampleRun())
	require.NoError(t, err)

	var decoded model.Run
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded.Results, 5)
	assert.Equal(t, "203.0.113.45", decoded.Results[3].IP)
}

func TestLogSummaryGroupsResults(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	LogSummary(zap.New(core), sampleRun())

	entries := logs.FilterMessage("diagnostics summary").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "file", fields["scheme"])
	assert.Len(t, fields["local_ports"], 2)
	assert.Contains(t, fields, "external")
	assert.Contains(t, fields, "adapter")
}

func TestLogSummarySkippedBelowInfo(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	LogSummary(zap.New(core), sampleRun())
	assert.Zero(t, logs.Len())
}
