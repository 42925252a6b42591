// Package simulation drives one conversation at a time against the remote
// agent, alternating generated user messages with agent replies until the
// configured termination policy fires.
package simulation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dialogsim/dialogsim/internal/llm"
	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/selector"
	"github.com/dialogsim/dialogsim/internal/transport"
)

// State is the turn controller's position in one conversation's lifecycle.
type State string

const (
	StateNotStarted       State = "not_started"
	StateOpeningGenerated State = "opening_generated"
	StateAwaitingAgent    State = "awaiting_agent_reply"
	StateAwaitingUser     State = "awaiting_user_reply"
	StateCompleted        State = "completed"
	StateFailed           State = "failed"
)

// Termination triggers recorded in the conversation digest.
const (
	triggerBudget    = "turn_budget"
	triggerHeuristic = "auto_heuristic"
	triggerSafetyCap = "safety_cap"
	triggerFailure   = "transport_failure"
)

// MessageObserver is notified of each message as it is appended, in order.
type MessageObserver func(conversationID string, msg models.ConversationMessage)

// Controller runs simulated conversations. One controller serves a whole
// batch; each conversation gets fresh per-run state.
type Controller struct {
	transport  transport.RemoteAgentTransport
	llm        llm.Client
	config     models.RunConfig
	agentType  string
	observer   MessageObserver
	threadSeed string

	state State
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers a callback invoked for every appended message.
func WithObserver(fn MessageObserver) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithThreadSeed supplies a thread id obtained from the batch probe, used
// until the agent's first reply names the conversation's own thread.
func WithThreadSeed(threadID string) Option {
	return func(c *Controller) { c.threadSeed = threadID }
}

// NewController builds a turn controller for the given agent and run config.
func NewController(t transport.RemoteAgentTransport, client llm.Client, agentType string, config models.RunConfig, opts ...Option) *Controller {
	c := &Controller{
		transport: t,
		llm:       client,
		config:    config,
		agentType: agentType,
		state:     StateNotStarted,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State reports the controller's current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Run drives one conversation for the given test case until the termination
// policy fires or a transport error occurs. On transport failure the
// returned conversation carries the messages collected so far along with the
// error; the error is also returned so callers can count failures.
func (c *Controller) Run(ctx context.Context, id, testCase string) (*models.SimulatedConversation, error) {
	started := time.Now()
	conv := &models.SimulatedConversation{
		ID:             id,
		SourceTestCase: testCase,
		ThreadID:       c.threadSeed,
		StartedAt:      started,
	}
	digest := &models.TurnDigest{}
	c.state = StateNotStarted

	budget := c.resolveBudget(id)
	slog.Debug("starting conversation", "id", id, "mode", c.config.Mode, "budget", budget)

	c.appendMessage(conv, models.RoleUser, c.openingMessage(ctx, testCase, digest))
	c.state = StateOpeningGenerated

	for turn := 1; ; turn++ {
		c.state = StateAwaitingAgent
		reply, err := c.sendTurn(ctx, conv, digest)
		if err != nil {
			c.state = StateFailed
			digest.TerminationTrigger = triggerFailure
			c.finishDigest(conv, digest, turn-1, started)
			conv.MarkFailed(err, time.Now())
			slog.Warn("conversation failed", "id", id, "turn", turn, "error", err)
			return conv, err
		}
		c.appendMessage(conv, models.RoleAgent, reply)

		trigger := c.shouldStop(ctx, conv, turn, budget)

		// Budget modes pair every agent reply with a user message, so a
		// fixed budget of N yields 2N+1 messages including the opening.
		// Auto mode ends right on the agent reply that triggered it.
		if budget > 0 || trigger == "" {
			c.state = StateAwaitingUser
			c.appendMessage(conv, models.RoleUser, c.nextUserMessage(ctx, conv, digest))
		}

		if trigger != "" {
			digest.TerminationTrigger = trigger
			c.finishDigest(conv, digest, turn, started)
			conv.MarkCompleted(time.Now())
			c.state = StateCompleted
			slog.Debug("conversation completed", "id", id, "turns", turn, "trigger", trigger)
			return conv, nil
		}
	}
}

// resolveBudget returns the fixed turn budget, or 0 for auto mode where
// only the safety cap bounds the loop.
func (c *Controller) resolveBudget(id string) int {
	switch c.config.Mode {
	case models.TurnModeFixed:
		return c.config.FixedTurns
	case models.TurnModeRange:
		return selector.TurnsInRange(id, c.config.Range.Min, c.config.Range.Max)
	default:
		return 0
	}
}

// shouldStop returns the termination trigger name, or "" to continue.
func (c *Controller) shouldStop(ctx context.Context, conv *models.SimulatedConversation, turn, budget int) string {
	if budget > 0 {
		if turn >= budget {
			return triggerBudget
		}
		return ""
	}

	// Auto mode. The safety cap always wins over the heuristic.
	if turn >= c.config.SafetyTurnCap {
		return triggerSafetyCap
	}
	if turn < 2 {
		return ""
	}
	answer, err := c.llm.Generate(ctx, terminationPrompt(conv), llm.GenerateOptions{
		Temperature:     models.Ptr(float32(0.0)),
		MaxOutputTokens: 8,
	})
	if err != nil {
		slog.Debug("termination heuristic failed, continuing", "id", conv.ID, "error", err)
		return ""
	}
	if strings.ToUpper(strings.TrimSpace(answer)) == endToken {
		return triggerHeuristic
	}
	return ""
}

func (c *Controller) openingMessage(ctx context.Context, testCase string, digest *models.TurnDigest) string {
	genStart := time.Now()
	defer func() { digest.GenerationMs += time.Since(genStart).Milliseconds() }()

	text, err := c.llm.Generate(ctx, openingPrompt(testCase, c.agentType, c.config.Guidelines), llm.GenerateOptions{
		Temperature: models.Ptr(float32(0.7)),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		digest.FallbackGenCount++
		slog.Debug("opening generation failed, using raw test case", "error", err)
		return testCase
	}
	return strings.TrimSpace(text)
}

func (c *Controller) nextUserMessage(ctx context.Context, conv *models.SimulatedConversation, digest *models.TurnDigest) string {
	genStart := time.Now()
	defer func() { digest.GenerationMs += time.Since(genStart).Milliseconds() }()

	text, err := c.llm.Generate(ctx, followUpPrompt(conv, c.agentType, c.config.Guidelines), llm.GenerateOptions{
		Temperature: models.Ptr(float32(0.7)),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		digest.FallbackGenCount++
		slog.Debug("follow-up generation failed, using generic follow-up", "id", conv.ID, "error", err)
		return genericFollowUp
	}
	return strings.TrimSpace(text)
}

func (c *Controller) sendTurn(ctx context.Context, conv *models.SimulatedConversation, digest *models.TurnDigest) (string, error) {
	last := conv.LastMessage()

	sendStart := time.Now()
	reply, err := c.transport.Send(ctx, &transport.SendRequest{
		Message:  last.Content,
		History:  conv.Messages[:len(conv.Messages)-1],
		ThreadID: conv.ThreadID,
	})
	digest.AgentReplyMs += time.Since(sendStart).Milliseconds()
	if err != nil {
		return "", err
	}

	if reply.ThreadID != "" {
		conv.ThreadID = reply.ThreadID
	}
	return reply.Text, nil
}

func (c *Controller) appendMessage(conv *models.SimulatedConversation, role models.Role, content string) {
	msg := models.ConversationMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	conv.Append(msg)
	if c.observer != nil {
		c.observer(conv.ID, msg)
	}
}

func (c *Controller) finishDigest(conv *models.SimulatedConversation, digest *models.TurnDigest, turns int, started time.Time) {
	digest.TotalTurns = turns
	digest.TotalDurationMs = time.Since(started).Milliseconds()
	if turns > 0 {
		digest.AvgAgentReplyMs = digest.AgentReplyMs / int64(turns)
	}
	conv.Digest = digest
}
