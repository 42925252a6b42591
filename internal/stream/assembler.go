// Package stream reconstructs complete agent replies from chunked
// event-stream responses. Frames arrive as "data: " prefixed lines whose
// payloads may be split across arbitrary chunk boundaries.
package stream

import (
	"bytes"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dialogsim/dialogsim/internal/models"
)

const (
	frameMarker = "data: "
	doneMarker  = "[DONE]"
)

// ProcessedMessage is one fully assembled agent reply.
type ProcessedMessage struct {
	ID        string           `json:"id"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Final     bool             `json:"final"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata carries the non-text side channel of a reply.
type MessageMetadata struct {
	ThreadID    string         `json:"thread_id,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	Citations   []Citation     `json:"citations,omitempty"`
	Thread      map[string]any `json:"thread,omitempty"`
}

// Assembler accumulates one reply from a sequence of stream chunks. It is
// scoped to a single response; create a fresh one per agent call.
type Assembler struct {
	buf     bytes.Buffer
	text    strings.Builder
	done    bool
	meta    MessageMetadata
	hasMeta bool
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Feed consumes one chunk. Only lines terminated by a newline are parsed; a
// trailing partial line stays buffered until the next chunk completes it.
func (a *Assembler) Feed(chunk []byte) {
	a.buf.Write(chunk)

	for {
		line, err := a.buf.ReadString('\n')
		if err != nil {
			// Partial line; put it back and wait for more data.
			a.buf.WriteString(line)
			return
		}
		a.consumeLine(strings.TrimRight(line, "\r\n"))
	}
}

func (a *Assembler) consumeLine(line string) {
	if !strings.HasPrefix(line, frameMarker) {
		return
	}
	payload := strings.TrimSpace(strings.TrimPrefix(line, frameMarker))
	if payload == "" {
		return
	}
	if payload == doneMarker {
		a.done = true
		return
	}

	frame, err := DecodeFrame([]byte(payload))
	if err != nil {
		// Partial data beats total failure; drop the frame and move on.
		slog.Warn("skipping malformed stream frame", "error", err)
		return
	}
	a.consumeFrame(frame)
}

func (a *Assembler) consumeFrame(frame *Frame) {
	if frame.IsFinal {
		a.done = true
		if frame.Message != "" {
			// The terminal frame carries the complete text; it replaces
			// whatever was accumulated so far.
			a.text.Reset()
			a.text.WriteString(frame.Message)
		}
	} else {
		a.text.WriteString(frame.Message)
	}

	if frame.ChatThreadID != "" {
		a.meta.ThreadID = frame.ChatThreadID
		a.hasMeta = true
	}
	if len(frame.Suggestions) > 0 {
		a.meta.Suggestions = frame.Suggestions
		a.hasMeta = true
	}
	if len(frame.Citations) > 0 {
		a.meta.Citations = frame.Citations
		a.hasMeta = true
	}
	if len(frame.Thread) > 0 {
		a.meta.Thread = frame.Thread
		a.hasMeta = true
	}
}

// Finish flushes any buffered final line and returns the assembled message.
// When the stream ended without a terminal frame the result is best-effort
// and carries Final=false.
func (a *Assembler) Finish() *ProcessedMessage {
	if rest := a.buf.String(); rest != "" {
		a.buf.Reset()
		a.consumeLine(strings.TrimRight(rest, "\r\n"))
	}

	msg := &ProcessedMessage{
		ID:        uuid.NewString(),
		Content:   NormalizeWhitespace(a.text.String()),
		Timestamp: time.Now(),
		Final:     a.done,
	}
	if a.hasMeta {
		meta := a.meta
		msg.Metadata = &meta
	}
	return msg
}

// ThreadID returns the thread identifier seen so far, or "".
func (a *Assembler) ThreadID() string {
	return a.meta.ThreadID
}

// AsConversationMessage converts an assembled reply into an agent message.
func (m *ProcessedMessage) AsConversationMessage() models.ConversationMessage {
	msg := models.ConversationMessage{
		Role:      models.RoleAgent,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Metadata != nil {
		msg.Metadata = map[string]any{}
		if len(m.Metadata.Suggestions) > 0 {
			msg.Metadata["suggestions"] = m.Metadata.Suggestions
		}
		if len(m.Metadata.Citations) > 0 {
			msg.Metadata["citations"] = m.Metadata.Citations
		}
		if len(m.Metadata.Thread) > 0 {
			msg.Metadata["thread"] = m.Metadata.Thread
		}
	}
	return msg
}
