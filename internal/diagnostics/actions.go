package diagnostics

import (
	"errors"

	"github.com/jaxxstorm/devdiag/internal/model"
	"github.com/jaxxstorm/devdiag/internal/platform"
)

var (
	ErrNoCommand = errors.New("finding has no command to copy")
	ErrNoHelpURL = errors.New("finding has no help resource")
)

// CopyCommand puts the finding's remediation command on the clipboard.
func CopyCommand(caps platform.Capabilities, finding model.Finding) error {
	if finding.Command == "" {
		return ErrNoCommand
	}
	return caps.WriteClipboard(finding.Command)
}

// OpenHelp opens the finding's help resource in the browser.
func OpenHelp(caps platform.Capabilities, finding model.Finding) error {
	if finding.HelpURL == "" {
		return ErrNoHelpURL
	}
	return caps.OpenExternal(finding.HelpURL)
}
