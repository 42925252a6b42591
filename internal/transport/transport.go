// Package transport talks to the remote agent endpoint under evaluation.
// The agent is stateful per thread: every call for one conversation must
// reuse the thread id returned by the first reply.
package transport

import (
	"context"
	"fmt"

	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/stream"
)

// SendRequest is one user turn, carried with the full prior history so
// stateless agent backends can reconstruct context.
type SendRequest struct {
	Message  string                       `json:"message"`
	History  []models.ConversationMessage `json:"history,omitempty"`
	ThreadID string                       `json:"thread_id,omitempty"`
}

// Reply is one complete agent response, assembled if it arrived streamed.
type Reply struct {
	Text     string
	ThreadID string
	Final    bool
	Metadata *stream.MessageMetadata
}

// RemoteAgentTransport sends simulated user messages to the agent endpoint.
type RemoteAgentTransport interface {
	// Probe checks connectivity before a batch starts. It may return a
	// thread id the endpoint opened for the probe exchange.
	Probe(ctx context.Context) (string, error)

	// Send delivers one user message and returns the agent's reply.
	Send(ctx context.Context, req *SendRequest) (*Reply, error)
}

// ConnectionError means the agent endpoint is unreachable or rejected the
// initial probe. It is fatal for the whole batch.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("agent endpoint %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError means a single turn's call failed. The conversation it
// belongs to fails; other conversations in the batch are unaffected.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("agent request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("agent request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
