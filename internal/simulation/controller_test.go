package simulation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dialogsim/dialogsim/internal/llm"
	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/transport"
)

// echoLLM answers every generation call with a canned string keyed on the
// prompt kind.
func echoLLM(termination string) *llm.MockClient {
	return &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
			if strings.Contains(prompt, "END or CONTINUE") {
				return termination, nil
			}
			if strings.Contains(prompt, "next message") {
				return "generated follow-up", nil
			}
			return "generated opening", nil
		},
	}
}

func TestRun_FixedMode_MessageCount(t *testing.T) {
	mock := &transport.MockTransport{}
	c := NewController(mock, echoLLM("CONTINUE"), "support bot", models.RunConfig{
		Mode:       models.TurnModeFixed,
		FixedTurns: 3,
	})

	conv, err := c.Run(context.Background(), "conv-1", "user wants a refund")
	require.NoError(t, err)
	require.True(t, conv.Completed)
	require.Equal(t, StateCompleted, c.State())

	// 1 opening + 3 agent replies + 2 follow-ups.
	require.Len(t, conv.Messages, 7)
	require.Equal(t, 3, conv.CountByRole(models.RoleAgent))
	require.Equal(t, 4, conv.CountByRole(models.RoleUser))
	require.Equal(t, models.RoleUser, conv.Messages[0].Role)
	require.Equal(t, "generated opening", conv.Messages[0].Content)
}

func TestRun_RangeMode_Deterministic(t *testing.T) {
	config := models.RunConfig{
		Mode:  models.TurnModeRange,
		Range: &models.TurnRange{Min: 2, Max: 5},
	}

	run := func() int {
		c := NewController(&transport.MockTransport{}, echoLLM("CONTINUE"), "", config)
		conv, err := c.Run(context.Background(), "conv-3", "a scenario")
		require.NoError(t, err)
		return conv.CountByRole(models.RoleAgent)
	}

	first := run()
	require.GreaterOrEqual(t, first, 2)
	require.LessOrEqual(t, first, 5)
	require.Equal(t, first, run())
}

func TestRun_AutoMode_HeuristicEnds(t *testing.T) {
	c := NewController(&transport.MockTransport{}, echoLLM("END"), "", models.RunConfig{
		Mode:          models.TurnModeAuto,
		SafetyTurnCap: 10,
	})

	conv, err := c.Run(context.Background(), "conv-1", "a scenario")
	require.NoError(t, err)
	require.True(t, conv.Completed)

	// Heuristic is consulted only after 2 full exchanges, so it fires on
	// turn 2.
	require.Equal(t, 2, conv.CountByRole(models.RoleAgent))
	require.Equal(t, "auto_heuristic", conv.Digest.TerminationTrigger)
}

func TestRun_AutoMode_SafetyCap(t *testing.T) {
	c := NewController(&transport.MockTransport{}, echoLLM("CONTINUE"), "", models.RunConfig{
		Mode:          models.TurnModeAuto,
		SafetyTurnCap: 4,
	})

	conv, err := c.Run(context.Background(), "conv-1", "a scenario")
	require.NoError(t, err)
	require.True(t, conv.Completed)
	require.Equal(t, 4, conv.CountByRole(models.RoleAgent))
	require.Equal(t, "safety_cap", conv.Digest.TerminationTrigger)
}

func TestRun_AutoMode_AmbiguousAnswerContinues(t *testing.T) {
	c := NewController(&transport.MockTransport{}, echoLLM("probably END, hard to say"), "", models.RunConfig{
		Mode:          models.TurnModeAuto,
		SafetyTurnCap: 3,
	})

	conv, err := c.Run(context.Background(), "conv-1", "a scenario")
	require.NoError(t, err)
	require.Equal(t, "safety_cap", conv.Digest.TerminationTrigger)
}

func TestRun_OpeningFallback(t *testing.T) {
	failing := &llm.MockClient{Err: errors.New("model offline")}
	c := NewController(&transport.MockTransport{}, failing, "", models.RunConfig{
		Mode:       models.TurnModeFixed,
		FixedTurns: 1,
	})

	conv, err := c.Run(context.Background(), "conv-1", "raw test case text")
	require.NoError(t, err)
	require.Equal(t, "raw test case text", conv.Messages[0].Content)
	// Opening and the closing follow-up both fell back.
	require.Equal(t, 2, conv.Digest.FallbackGenCount)
}

func TestRun_FollowUpFallback(t *testing.T) {
	client := &llm.MockClient{
		GenerateFunc: func(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
			if strings.Contains(prompt, "next message") {
				return "", errors.New("model offline")
			}
			return "opening", nil
		},
	}
	c := NewController(&transport.MockTransport{}, client, "", models.RunConfig{
		Mode:       models.TurnModeFixed,
		FixedTurns: 2,
	})

	conv, err := c.Run(context.Background(), "conv-1", "a scenario")
	require.NoError(t, err)
	require.Equal(t, "Can you tell me more about that?", conv.Messages[2].Content)
}

func TestRun_TransportFailureKeepsPartialMessages(t *testing.T) {
	mock := &transport.MockTransport{FailAtCall: 2}
	c := NewController(mock, echoLLM("CONTINUE"), "", models.RunConfig{
		Mode:       models.TurnModeFixed,
		FixedTurns: 3,
	})

	conv, err := c.Run(context.Background(), "conv-1", "a scenario")
	require.Error(t, err)
	var terr *transport.TransportError
	require.ErrorAs(t, err, &terr)

	require.True(t, conv.Failed())
	require.False(t, conv.Completed)
	require.Equal(t, StateFailed, c.State())
	// Opening + first agent reply + first follow-up survived.
	require.Len(t, conv.Messages, 3)
	require.Equal(t, "transport_failure", conv.Digest.TerminationTrigger)
}

func TestRun_ThreadIDCapturedAndReused(t *testing.T) {
	mock := &transport.MockTransport{
		Replies: []*transport.Reply{
			{Text: "first", ThreadID: "thread-42", Final: true},
			{Text: "second", Final: true},
		},
	}
	c := NewController(mock, echoLLM("CONTINUE"), "", models.RunConfig{
		Mode:       models.TurnModeFixed,
		FixedTurns: 2,
	})

	conv, err := c.Run(context.Background(), "conv-1", "a scenario")
	require.NoError(t, err)
	require.Equal(t, "thread-42", conv.ThreadID)

	require.Len(t, mock.Requests, 2)
	require.Empty(t, mock.Requests[0].ThreadID)
	require.Equal(t, "thread-42", mock.Requests[1].ThreadID)
}

func TestRun_ThreadSeedUsedBeforeFirstReply(t *testing.T) {
	mock := &transport.MockTransport{}
	c := NewController(mock, echoLLM("CONTINUE"), "", models.RunConfig{
		Mode:       models.TurnModeFixed,
		FixedTurns: 1,
	}, WithThreadSeed("probe-thread"))

	_, err := c.Run(context.Background(), "conv-1", "a scenario")
	require.NoError(t, err)
	require.Equal(t, "probe-thread", mock.Requests[0].ThreadID)
}

func TestRun_ObserverSeesEveryMessageInOrder(t *testing.T) {
	var seen []models.Role
	c := NewController(&transport.MockTransport{}, echoLLM("CONTINUE"), "", models.RunConfig{
		Mode:       models.TurnModeFixed,
		FixedTurns: 2,
	}, WithObserver(func(id string, msg models.ConversationMessage) {
		require.Equal(t, "conv-1", id)
		seen = append(seen, msg.Role)
	}))

	_, err := c.Run(context.Background(), "conv-1", "a scenario")
	require.NoError(t, err)
	require.Equal(t, []models.Role{
		models.RoleUser, models.RoleAgent, models.RoleUser, models.RoleAgent, models.RoleUser,
	}, seen)
}
