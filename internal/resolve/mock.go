package resolve

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/miekg/dns"
)

var errNoResponder = errors.New("mock transport has no responder")

// MockTransport answers queries from Responder and records every server it was asked.
type MockTransport struct {
	Responder func(server string, msg *dns.Msg) (*dns.Msg, time.Duration, error)

	mu      sync.Mutex
	servers []string
}

func (m *MockTransport) Exchange(ctx context.Context, server string, msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	m.mu.Lock()
	m.servers = append(m.servers, server)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if m.Responder == nil {
		return nil, 0, errNoResponder
	}
	return m.Responder(server, msg)
}

func (m *MockTransport) Servers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.servers...)
}
