package models

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ConversationMessage is one utterance in a simulated conversation.
// Messages are immutable once appended; ordering is significant.
type ConversationMessage struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SimulatedConversation is the transcript produced by driving one test case
// against the remote agent. It is owned exclusively by the turn controller
// while the simulation runs and is read-only afterwards.
type SimulatedConversation struct {
	ID             string                `json:"conversation_id"`
	SourceTestCase string                `json:"source_test_case"`
	ThreadID       string                `json:"thread_id,omitempty"`
	Messages       []ConversationMessage `json:"messages"`
	Completed      bool                  `json:"completed"`
	ErrorMsg       string                `json:"error_msg,omitempty"`
	StartedAt      time.Time             `json:"started_at"`
	EndedAt        time.Time             `json:"ended_at,omitempty"`
	Digest         *TurnDigest           `json:"digest,omitempty"`
}

// TurnDigest summarizes per-turn timings for one conversation.
type TurnDigest struct {
	TotalTurns         int   `json:"total_turns"`
	AgentReplyMs       int64 `json:"agent_reply_ms"`
	GenerationMs       int64 `json:"generation_ms"`
	AvgAgentReplyMs    int64 `json:"avg_agent_reply_ms"`
	TotalDurationMs    int64 `json:"total_duration_ms"`
	FallbackGenCount   int   `json:"fallback_generation_count,omitempty"`
	TerminationTrigger string `json:"termination_trigger,omitempty"`
}

// Append adds a message to the conversation. It is a no-op once the
// conversation has completed; [SimulatedConversation.Completed] is a one-way
// transition.
func (c *SimulatedConversation) Append(msg ConversationMessage) {
	if c.Completed {
		return
	}
	c.Messages = append(c.Messages, msg)
}

// MarkCompleted freezes the conversation. There is no way back.
func (c *SimulatedConversation) MarkCompleted(at time.Time) {
	c.Completed = true
	c.EndedAt = at
}

// MarkFailed records a terminal error while keeping whatever messages were
// collected so far.
func (c *SimulatedConversation) MarkFailed(err error, at time.Time) {
	if err != nil {
		c.ErrorMsg = err.Error()
	}
	c.EndedAt = at
}

// Failed reports whether the conversation ended with a transport error.
func (c *SimulatedConversation) Failed() bool {
	return c.ErrorMsg != ""
}

// LastMessage returns the most recent message, or nil for an empty
// conversation.
func (c *SimulatedConversation) LastMessage() *ConversationMessage {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Transcript renders the conversation as labeled plain text, one block per
// message. Used when grounding prompts in the conversation so far.
func (c *SimulatedConversation) Transcript() string {
	var b strings.Builder
	for i, m := range c.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		switch m.Role {
		case RoleAgent:
			b.WriteString("Agent: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// CountByRole returns how many messages carry the given role.
func (c *SimulatedConversation) CountByRole(role Role) int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == role {
			n++
		}
	}
	return n
}
