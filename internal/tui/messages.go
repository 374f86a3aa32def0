package tui

import "github.com/jaxxstorm/devdiag/internal/model"

// rerunMsg asks the model to start a new run.
type rerunMsg struct{}

// resultMsg carries one check result; its RunID decides whether it is still wanted.
type resultMsg struct {
	Result model.CheckResult
}

// runCompleteMsg carries a finished run.
type runCompleteMsg struct {
	Run model.Run
}

// actionMsg reports the outcome of a copy/open action.
type actionMsg struct {
	Status string
	Err    error
}
