package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/stream"
)

const (
	defaultTimeout = 60 * time.Second
	probeMessage   = "ping"
)

// HTTPTransport drives an agent that speaks JSON-over-HTTP, replying either
// with a single JSON object or a text/event-stream of frames.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

var _ RemoteAgentTransport = (*HTTPTransport)(nil)

// NewHTTPTransport builds a transport for the given agent configuration.
func NewHTTPTransport(cfg models.AgentConfig) *HTTPTransport {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &HTTPTransport{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Probe sends a lightweight message to confirm the endpoint answers at all.
func (t *HTTPTransport) Probe(ctx context.Context) (string, error) {
	reply, err := t.Send(ctx, &SendRequest{Message: probeMessage})
	if err != nil {
		return "", &ConnectionError{Endpoint: t.endpoint, Err: err}
	}
	return reply.ThreadID, nil
}

// Send posts one user message and assembles the reply.
func (t *HTTPTransport) Send(ctx context.Context, req *SendRequest) (*Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream, application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if strings.EqualFold(mediaType, "text/event-stream") {
		return t.readStream(resp.Body)
	}
	return t.readJSON(resp.Body)
}

func (t *HTTPTransport) readStream(body io.Reader) (*Reply, error) {
	assembler := stream.NewAssembler()
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			assembler.Feed(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	msg := assembler.Finish()
	if !msg.Final {
		slog.Debug("stream ended without a terminal frame", "endpoint", t.endpoint)
	}
	reply := &Reply{
		Text:     msg.Content,
		ThreadID: assembler.ThreadID(),
		Final:    msg.Final,
		Metadata: msg.Metadata,
	}
	return reply, nil
}

func (t *HTTPTransport) readJSON(body io.Reader) (*Reply, error) {
	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	frame, err := stream.DecodeFrame(payload)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	reply := &Reply{
		Text:     stream.NormalizeWhitespace(frame.Message),
		ThreadID: frame.ChatThreadID,
		Final:    true,
	}
	if len(frame.Suggestions) > 0 || len(frame.Citations) > 0 || len(frame.Thread) > 0 {
		reply.Metadata = &stream.MessageMetadata{
			ThreadID:    frame.ChatThreadID,
			Suggestions: frame.Suggestions,
			Citations:   frame.Citations,
			Thread:      frame.Thread,
		}
	}
	return reply, nil
}
