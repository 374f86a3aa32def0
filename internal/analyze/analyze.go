package analyze

import (
	"fmt"
	"sort"

	"github.com/jaxxstorm/devdiag/internal/model"
)

const (
	PriorityExternalBlocked = 10
	PriorityFileOrigin      = 20
	// Offline supersedes every other finding for display.
	PriorityOffline = 100
)

// Remedies supplies the copyable bits attached to findings.
type Remedies struct {
	ServeCommand string
	HelpURL      string
}

// Findings correlates a completed set of results. Findings are heuristics, never verdicts.
func Findings(results []model.CheckResult, remedies Remedies) []model.Finding {
	var protocol *model.CheckResult
	var external *model.CheckResult
	var adapter *model.CheckResult
	ports := []model.CheckResult{}
	for i := range results {
		switch results[i].Kind {
		case model.KindProtocol:
			protocol = &results[i]
		case model.KindLocalPort:
			ports = append(ports, results[i])
		case model.KindExternal:
			external = &results[i]
		case model.KindNetworkAdapter:
			adapter = &results[i]
		}
	}

	responding := []string{}
	for _, port := range model.RespondingPorts(results) {
		responding = append(responding, port.Target)
	}

	findings := []model.Finding{}
	if protocol != nil && IsFileOrigin(*protocol) && len(responding) == 0 {
		findings = append(findings, model.Finding{
			Kind:        model.FindingFileOriginNoServer,
			Summary:     "likely cause: file-origin with no dev server",
			Remediation: "the page was opened from disk and nothing answered on the local ports; serve the folder over HTTP and open the served URL",
			Command:     remedies.ServeCommand,
			HelpURL:     remedies.HelpURL,
			Priority:    PriorityFileOrigin,
			Evidence:    evidence(*protocol, ports),
		})
	}

	// An aborted external probe says nothing about the network.
	if external != nil && !external.OK && external.Failure != model.FailureAborted && len(responding) > 0 {
		findings = append(findings, model.Finding{
			Kind:        model.FindingExternalBlocked,
			Summary:     "local server reachable but external blocked; suspect proxy/VPN/firewall",
			Remediation: fmt.Sprintf("%s answered but %s did not; this is only a heuristic, check proxy, VPN and firewall settings", responding[0], external.Target),
			HelpURL:     remedies.HelpURL,
			Priority:    PriorityExternalBlocked,
			Evidence:    append(append([]string{}, responding...), external.Target),
		})
	}

	if adapter != nil && adapter.Adapter != nil && !adapter.Adapter.Online {
		findings = append(findings, model.Finding{
			Kind:        model.FindingOffline,
			Summary:     "reconnect required",
			Remediation: "the network adapter reports offline; reconnect to a network and run the diagnostics again",
			Priority:    PriorityOffline,
			Evidence:    []string{string(model.KindNetworkAdapter)},
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Priority > findings[j].Priority
	})
	return findings
}

func IsFileOrigin(protocol model.CheckResult) bool {
	return !protocol.OK && protocol.Detail == model.DetailFileOrigin
}

func evidence(protocol model.CheckResult, ports []model.CheckResult) []string {
	out := []string{protocol.Target}
	for _, port := range ports {
		out = append(out, port.Target)
	}
	return out
}
