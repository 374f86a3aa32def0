package model

import "time"

type CheckKind string

const (
	KindProtocol       CheckKind = "protocol"
	KindLocalPort      CheckKind = "local-port"
	KindExternal       CheckKind = "external"
	KindNetworkAdapter CheckKind = "network-adapter"
)

// Failure classifies why a check came back not ok.
type Failure string

const (
	FailureNone    Failure = ""
	FailureTimeout Failure = "timeout"
	FailureNetwork Failure = "network"
	FailureParse   Failure = "parse"
	FailureOffline Failure = "offline"
	// FailureAborted marks a probe cut short because the run itself was cancelled.
	FailureAborted Failure = "aborted"
)

const (
	ProbeOK      = "ok"
	ProbeFailed  = "failed"
	ProbeSkipped = "skipped"
)

// DetailFileOrigin is the protocol check detail for pages opened from disk.
const DetailFileOrigin = "file-origin"

type AdapterStatus struct {
	Online bool   `json:"online"`
	Check  string `json:"check"`
	DNS    string `json:"dns"`
}

type CheckResult struct {
	RunID    string         `json:"run_id"`
	Kind     CheckKind      `json:"kind"`
	Target   string         `json:"target,omitempty"`
	OK       bool           `json:"ok"`
	Detail   string         `json:"detail,omitempty"`
	Port     int            `json:"port,omitempty"`
	IP       string         `json:"ip,omitempty"`
	Failure  Failure        `json:"failure,omitempty"`
	Hint     string         `json:"hint,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Adapter  *AdapterStatus `json:"adapter,omitempty"`
}

type FindingKind string

const (
	FindingFileOriginNoServer FindingKind = "FILE_ORIGIN_NO_SERVER"
	FindingExternalBlocked    FindingKind = "EXTERNAL_BLOCKED"
	FindingOffline            FindingKind = "OFFLINE"
)

type Finding struct {
	Kind        FindingKind `json:"kind"`
	Summary     string      `json:"summary"`
	Remediation string      `json:"remediation"`
	Command     string      `json:"command,omitempty"`
	HelpURL     string      `json:"help_url,omitempty"`
	Priority    int         `json:"priority"`
	Evidence    []string    `json:"evidence,omitempty"`
}

type Run struct {
	ID         string        `json:"id"`
	Origin     string        `json:"origin"`
	Scheme     string        `json:"scheme"`
	Ports      []int         `json:"ports"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Results    []CheckResult `json:"results"`
	Findings   []Finding     `json:"findings"`
}

func (r Run) ResultsOf(kind CheckKind) []CheckResult {
	out := []CheckResult{}
	for _, result := range r.Results {
		if result.Kind == kind {
			out = append(out, result)
		}
	}
	return out
}

// LocalServerReachable reports whether at least one probed local port answered.
func (r Run) LocalServerReachable() bool {
	return len(RespondingPorts(r.Results)) > 0
}

// RespondingPorts returns the local-port results that answered, in probe order.
func RespondingPorts(results []CheckResult) []CheckResult {
	out := []CheckResult{}
	for _, result := range results {
		if result.Kind == KindLocalPort && result.OK {
			out = append(out, result)
		}
	}
	return out
}

// Primary returns the finding with the highest display priority.
func (r Run) Primary() (Finding, bool) {
	if len(r.Findings) == 0 {
		return Finding{}, false
	}
	best := r.Findings[0]
	for _, finding := range r.Findings[1:] {
		if finding.Priority > best.Priority {
			best = finding
		}
	}
	return best, true
}

// Failed counts the results that came back not ok.
func (r Run) Failed() int {
	failed := 0
	for _, result := range r.Results {
		if !result.OK {
			failed++
		}
	}
	return failed
}

// Entry is one line of the diagnostics panel.
type Entry struct {
	RunID   string       `json:"run_id,omitempty"`
	Result  *CheckResult `json:"result,omitempty"`
	Finding *Finding     `json:"finding,omitempty"`
	Error   string       `json:"error,omitempty"`
}
