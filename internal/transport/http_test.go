package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dialogsim/dialogsim/internal/models"
)

func newTestTransport(t *testing.T, handler http.HandlerFunc) *HTTPTransport {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPTransport(models.AgentConfig{Endpoint: server.URL})
}

func TestHTTPTransport_JSONReply(t *testing.T) {
	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		var req SendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "hello", req.Message)
		require.Equal(t, "thread-1", req.ThreadID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Hi!  How can I help?","chatThreadId":"thread-1"}`))
	})

	reply, err := transport.Send(context.Background(), &SendRequest{Message: "hello", ThreadID: "thread-1"})
	require.NoError(t, err)
	require.Equal(t, "Hi! How can I help?", reply.Text)
	require.Equal(t, "thread-1", reply.ThreadID)
	require.True(t, reply.Final)
}

func TestHTTPTransport_StreamedReply(t *testing.T) {
	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range []string{
			`data: {"message":"The answer ","chat_thread_id":"thread-7"}`,
			`data: {"message":"is 42."}`,
			`data: {"message":"The answer is 42.","is_final":true}`,
		} {
			w.Write([]byte(frame + "\n"))
			flusher.Flush()
		}
	})

	reply, err := transport.Send(context.Background(), &SendRequest{Message: "what is the answer"})
	require.NoError(t, err)
	require.Equal(t, "The answer is 42.", reply.Text)
	require.Equal(t, "thread-7", reply.ThreadID)
	require.True(t, reply.Final)
}

func TestHTTPTransport_StreamWithoutTerminalFrame(t *testing.T) {
	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"message\":\"cut off\"}\n"))
	})

	reply, err := transport.Send(context.Background(), &SendRequest{Message: "hi"})
	require.NoError(t, err)
	require.Equal(t, "cut off", reply.Text)
	require.False(t, reply.Final)
}

func TestHTTPTransport_ErrorStatus(t *testing.T) {
	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := transport.Send(context.Background(), &SendRequest{Message: "hi"})
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, http.StatusServiceUnavailable, terr.StatusCode)
}

func TestHTTPTransport_ProbeFailure(t *testing.T) {
	transport := NewHTTPTransport(models.AgentConfig{Endpoint: "http://127.0.0.1:1/chat"})

	_, err := transport.Probe(context.Background())
	var cerr *ConnectionError
	require.ErrorAs(t, err, &cerr)
}

func TestHTTPTransport_ProbeReturnsThreadID(t *testing.T) {
	transport := newTestTransport(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"pong","chat_thread_id":"thread-probe"}`))
	})

	threadID, err := transport.Probe(context.Background())
	require.NoError(t, err)
	require.Equal(t, "thread-probe", threadID)
}
