// Package scoring evaluates simulated conversations against user-defined
// metrics with an LLM judge. Every (conversation, metric) pair is evaluated
// independently; one pair's failure never blocks the rest.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/dialogsim/dialogsim/internal/llm"
	"github.com/dialogsim/dialogsim/internal/models"
)

const (
	// maxAttempts bounds one evaluation call; backoff doubles from
	// initialBackoff between attempts.
	maxAttempts    = 3
	initialBackoff = 1 * time.Second
)

// ScoreObserver is notified after each (conversation, metric) evaluation, in
// input order.
type ScoreObserver func(conversationID string, score models.MetricScore)

// Engine scores conversations. Evaluation is sequential by default; bounded
// parallelism across metrics can be enabled per engine.
type Engine struct {
	llm      llm.Client
	judge    models.JudgeConfig
	parallel int
	backoff  time.Duration
	observer ScoreObserver
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMetricParallelism evaluates up to n metrics of one conversation
// concurrently. Conversations are still scored one at a time, and results
// keep metric input order.
func WithMetricParallelism(n int) EngineOption {
	return func(e *Engine) { e.parallel = n }
}

// WithScoreObserver registers a callback invoked after every evaluation.
func WithScoreObserver(fn ScoreObserver) EngineOption {
	return func(e *Engine) { e.observer = fn }
}

// withBackoff overrides the retry base delay. Tests only.
func withBackoff(d time.Duration) EngineOption {
	return func(e *Engine) { e.backoff = d }
}

// NewEngine builds a scoring engine on the given judge model client.
func NewEngine(client llm.Client, judge models.JudgeConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		llm:     client,
		judge:   judge,
		backoff: initialBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ScoreBatch scores every conversation against every metric, in input
// order. Failed conversations are scored too; their partial transcripts are
// often still judgeable.
func (e *Engine) ScoreBatch(ctx context.Context, conversations []*models.SimulatedConversation, metrics []models.ScoringMetric) []*models.ConversationScore {
	scores := make([]*models.ConversationScore, 0, len(conversations))
	for _, conv := range conversations {
		scores = append(scores, e.ScoreConversation(ctx, conv, metrics))
	}
	return scores
}

// ScoreConversation evaluates one conversation against every metric and
// aggregates the average over applicable scores.
func (e *Engine) ScoreConversation(ctx context.Context, conv *models.SimulatedConversation, metrics []models.ScoringMetric) *models.ConversationScore {
	slog.Debug("scoring conversation", "conversation", conv.ID, "metrics", len(metrics), "judge", e.judge.Model)
	result := &models.ConversationScore{
		ConversationID: conv.ID,
		SourceTestCase: conv.SourceTestCase,
		MetricScores:   make([]models.MetricScore, len(metrics)),
	}

	if e.parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.parallel)
		for i := range metrics {
			g.Go(func() error {
				result.MetricScores[i] = e.evaluateMetric(gctx, conv, &metrics[i])
				return nil
			})
		}
		// Workers never return errors; exhaustion degrades to null scores.
		_ = g.Wait()
	} else {
		for i := range metrics {
			result.MetricScores[i] = e.evaluateMetric(ctx, conv, &metrics[i])
		}
	}

	if e.observer != nil {
		for _, ms := range result.MetricScores {
			e.observer(conv.ID, ms)
		}
	}

	result.ComputeAverage()
	return result
}

// evaluateMetric runs the full primary-then-fallback evaluation for one
// (conversation, metric) pair. It always returns a MetricScore; exhaustion
// degrades to the null-score sentinel with the failure as feedback.
func (e *Engine) evaluateMetric(ctx context.Context, conv *models.SimulatedConversation, metric *models.ScoringMetric) models.MetricScore {
	score := models.MetricScore{
		MetricName: metric.Name,
		MaxScore:   metric.TotalPoints,
		Timestamp:  time.Now(),
	}

	primary, err := e.evaluateWithRetry(ctx, conv, metric, false)
	if err != nil {
		slog.Warn("evaluation exhausted all attempts",
			"conversation", conv.ID, "metric", metric.Name, "error", err)
		score.Feedback = fmt.Sprintf("evaluation failed after %d attempts: %v", maxAttempts, err)
		return score
	}

	chosen := primary
	if primary.NotApplicable() {
		// Second phase: a lenient prompt that hunts for partial
		// applicability. A numeric fallback result wins; another
		// sentinel keeps the primary.
		fallback, err := e.evaluateWithRetry(ctx, conv, metric, true)
		if err == nil && !fallback.NotApplicable() {
			chosen = fallback
		}
	}

	score.Feedback = chosen.Feedback
	if chosen.Score != nil {
		v := clamp(*chosen.Score, 0, metric.TotalPoints)
		if v == 0 && IndicatesIrrelevance(chosen.Feedback) {
			// A zero plus irrelevance phrasing is "not applicable"
			// spelled as a number.
			return score
		}
		score.Score = &v
	}
	return score
}

// evaluateWithRetry performs one retry-protected evaluation call.
func (e *Engine) evaluateWithRetry(ctx context.Context, conv *models.SimulatedConversation, metric *models.ScoringMetric, lenient bool) (*EvaluationResult, error) {
	prompt := evaluationPrompt(conv, metric, lenient)
	opts := llm.GenerateOptions{
		Temperature:      models.Ptr(float32(0.2)),
		ResponseMIMEType: "application/json",
	}

	var result *EvaluationResult
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(e.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err := e.llm.Generate(ctx, prompt, opts)
		if err != nil {
			return retry.RetryableError(err)
		}
		parsed, err := ParseEvaluation(raw)
		if err != nil {
			return retry.RetryableError(err)
		}
		result = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
