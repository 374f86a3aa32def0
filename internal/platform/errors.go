package platform

import (
	"context"
	"errors"
	"net"

	"github.com/jaxxstorm/devdiag/internal/model"
)

var ErrNoCapabilities = errors.New("no platform capabilities available")

// Classify maps a probe error onto the failure taxonomy. Parse and offline failures are
// decided by the checks themselves.
func Classify(err error) model.Failure {
	if err == nil {
		return model.FailureNone
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	if errors.Is(err, context.Canceled) {
		return model.FailureAborted
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.FailureTimeout
	}
	return model.FailureNetwork
}
