package panel

import (
	"fmt"
	"io"
	"sync"

	"github.com/jaxxstorm/devdiag/internal/model"
	"github.com/jaxxstorm/devdiag/internal/output"
)

// Panel is the append-only list of entries for the current run. Writes tagged with any
// other run are dropped.
type Panel struct {
	mu      sync.Mutex
	live    io.Writer
	current string
	entries []model.Entry
}

// New creates the panel once; it is reused across runs. live, when set, receives every
// accepted entry as it lands.
func New(live io.Writer) *Panel {
	return &Panel{live: live}
}

// Begin clears the panel and makes runID the only run allowed to write to it.
func (p *Panel) Begin(runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = runID
	p.entries = nil
}

func (p *Panel) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Panel) Append(result model.CheckResult) bool {
	return p.add(model.Entry{RunID: result.RunID, Result: &result})
}

// Complete appends the run's findings. Results were already appended one by one.
func (p *Panel) Complete(run model.Run) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if run.ID != p.current {
		return false
	}
	for i := range run.Findings {
		finding := run.Findings[i]
		p.addLocked(model.Entry{RunID: run.ID, Finding: &finding})
	}
	return true
}

// Fail records a top-level error entry regardless of run.
func (p *Panel) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addLocked(model.Entry{RunID: p.current, Error: err.Error()})
}

func (p *Panel) Entries() []model.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Entry{}, p.entries...)
}

func (p *Panel) Render() string {
	return output.RenderEntries(p.Entries())
}

func (p *Panel) add(entry model.Entry) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry.RunID != p.current {
		return false
	}
	p.addLocked(entry)
	return true
}

func (p *Panel) addLocked(entry model.Entry) {
	p.entries = append(p.entries, entry)
	if p.live != nil {
		fmt.Fprintln(p.live, output.RenderEntry(entry))
	}
}
