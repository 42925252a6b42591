// Package orchestration wires the turn controller and the scoring engine
// into a whole batch run: probe the agent, simulate every test case, then
// score every conversation.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dialogsim/dialogsim/internal/llm"
	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/scoring"
	"github.com/dialogsim/dialogsim/internal/simulation"
	"github.com/dialogsim/dialogsim/internal/transport"
)

// Runner drives one evaluation batch end to end.
type Runner struct {
	spec      *models.EvalSpec
	transport transport.RemoteAgentTransport
	llm       llm.Client

	parallelMetrics int

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event.
type EventType string

// EventType constants
const (
	EventRunStart             EventType = "run_start"
	EventRunComplete          EventType = "run_complete"
	EventConversationStart    EventType = "conversation_start"
	EventConversationComplete EventType = "conversation_complete"
	EventConversationFailed   EventType = "conversation_failed"
	EventMessage              EventType = "message"
	EventScoringStart         EventType = "scoring_start"
	EventMetricScored         EventType = "metric_scored"
)

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	EventType      EventType
	ConversationID string
	ConvNum        int
	TotalConvs     int
	MetricName     string
	DurationMs     int64
	Details        map[string]any
}

// RunResult bundles everything a batch produced.
type RunResult struct {
	Conversations []*models.SimulatedConversation
	Scores        []*models.ConversationScore
	Summary       *models.RunSummary
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithParallelMetrics lets the scoring engine evaluate up to n metrics of
// one conversation concurrently. Conversations are still strictly
// sequential; the remote agent's per-thread state forbids anything else.
func WithParallelMetrics(n int) RunnerOption {
	return func(r *Runner) { r.parallelMetrics = n }
}

// NewRunner builds a batch runner from a loaded spec and its collaborators.
func NewRunner(spec *models.EvalSpec, t transport.RemoteAgentTransport, client llm.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		spec:      spec,
		transport: t,
		llm:       client,
		listeners: []ProgressListener{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnProgress registers a progress listener.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run simulates and scores the whole batch.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	r.notifyProgress(ProgressEvent{
		EventType:  EventRunStart,
		TotalConvs: len(r.spec.TestCases),
	})

	conversations, err := r.Simulate(ctx)
	if err != nil {
		return nil, err
	}

	scores := r.Score(ctx, conversations)

	result := &RunResult{
		Conversations: conversations,
		Scores:        scores,
		Summary:       models.Summarize(conversations, scores, time.Since(started)),
	}
	r.notifyProgress(ProgressEvent{
		EventType:  EventRunComplete,
		TotalConvs: len(conversations),
		DurationMs: result.Summary.DurationMs,
		Details:    map[string]any{"average_score": result.Summary.AverageScore},
	})
	return result, nil
}

// Simulate probes the agent once and then drives every test case to
// completion, strictly one conversation at a time. A probe failure aborts
// the batch; a per-conversation transport failure does not.
func (r *Runner) Simulate(ctx context.Context) ([]*models.SimulatedConversation, error) {
	threadSeed, err := r.transport.Probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("connectivity probe failed: %w", err)
	}
	slog.Debug("probe succeeded", "thread_seed", threadSeed)

	controller := simulation.NewController(
		r.transport, r.llm, r.spec.Agent.Type, r.spec.Simulation,
		simulation.WithThreadSeed(threadSeed),
		simulation.WithObserver(func(id string, msg models.ConversationMessage) {
			r.notifyProgress(ProgressEvent{
				EventType:      EventMessage,
				ConversationID: id,
				Details:        map[string]any{"role": string(msg.Role), "content": msg.Content},
			})
		}),
	)

	conversations := make([]*models.SimulatedConversation, 0, len(r.spec.TestCases))
	for i, testCase := range r.spec.TestCases {
		id := fmt.Sprintf("conv-%d", i+1)
		r.notifyProgress(ProgressEvent{
			EventType:      EventConversationStart,
			ConversationID: id,
			ConvNum:        i + 1,
			TotalConvs:     len(r.spec.TestCases),
		})

		conv, err := controller.Run(ctx, id, testCase)
		conversations = append(conversations, conv)

		event := ProgressEvent{
			EventType:      EventConversationComplete,
			ConversationID: id,
			ConvNum:        i + 1,
			TotalConvs:     len(r.spec.TestCases),
			Details:        map[string]any{"messages": len(conv.Messages)},
		}
		if err != nil {
			event.EventType = EventConversationFailed
			event.Details["error"] = conv.ErrorMsg
		}
		if conv.Digest != nil {
			event.DurationMs = conv.Digest.TotalDurationMs
		}
		r.notifyProgress(event)
	}
	return conversations, nil
}

// Score evaluates every conversation against the spec's metrics.
func (r *Runner) Score(ctx context.Context, conversations []*models.SimulatedConversation) []*models.ConversationScore {
	r.notifyProgress(ProgressEvent{
		EventType:  EventScoringStart,
		TotalConvs: len(conversations),
	})

	opts := []scoring.EngineOption{
		scoring.WithScoreObserver(func(id string, score models.MetricScore) {
			event := ProgressEvent{
				EventType:      EventMetricScored,
				ConversationID: id,
				MetricName:     score.MetricName,
				Details:        map[string]any{"applicable": score.Applicable()},
			}
			if score.Score != nil {
				event.Details["score"] = *score.Score
			}
			r.notifyProgress(event)
		}),
	}
	if r.parallelMetrics > 1 {
		opts = append(opts, scoring.WithMetricParallelism(r.parallelMetrics))
	}

	engine := scoring.NewEngine(r.llm, r.spec.Judge, opts...)
	return engine.ScoreBatch(ctx, conversations, r.spec.Metrics)
}
