package transport

import (
	"context"
	"fmt"
	"sync"
)

// MockTransport is a scripted agent for tests. Replies are returned in
// order; every request is recorded for assertions.
type MockTransport struct {
	mu sync.Mutex

	// ProbeThreadID is returned by Probe when ProbeErr is nil.
	ProbeThreadID string
	ProbeErr      error

	// Replies are consumed one per Send call.
	Replies []*Reply
	// SendErr, when set, fails every Send call.
	SendErr error
	// FailAtCall, when > 0, fails the Nth Send call (1-based) only.
	FailAtCall int

	Requests []*SendRequest
	probes   int
}

var _ RemoteAgentTransport = (*MockTransport)(nil)

func (m *MockTransport) Probe(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	if m.ProbeErr != nil {
		return "", &ConnectionError{Endpoint: "mock", Err: m.ProbeErr}
	}
	return m.ProbeThreadID, nil
}

func (m *MockTransport) Send(ctx context.Context, req *SendRequest) (*Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)

	if m.SendErr != nil {
		return nil, &TransportError{Err: m.SendErr}
	}
	if m.FailAtCall > 0 && len(m.Requests) == m.FailAtCall {
		return nil, &TransportError{Err: fmt.Errorf("scripted failure at call %d", m.FailAtCall)}
	}
	if len(m.Requests) > len(m.Replies) {
		return &Reply{Text: fmt.Sprintf("canned reply %d", len(m.Requests)), Final: true}, nil
	}
	return m.Replies[len(m.Requests)-1], nil
}

// ProbeCount reports how many times Probe was called.
func (m *MockTransport) ProbeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}
