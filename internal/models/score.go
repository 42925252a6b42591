package models

import (
	"math"
	"time"
)

// MetricScore is the outcome of evaluating one metric against one
// conversation. A nil Score is the "Not Applicable" sentinel: a first-class
// outcome meaning the conversation gave no basis for judging the metric. It
// is distinct from a low numeric score and from evaluation failure.
type MetricScore struct {
	MetricName string    `json:"metric_name"`
	Score      *float64  `json:"score"`
	MaxScore   float64   `json:"max_score"`
	Feedback   string    `json:"feedback"`
	Timestamp  time.Time `json:"timestamp"`
}

// Applicable reports whether the score carries a numeric value.
func (s *MetricScore) Applicable() bool {
	return s.Score != nil
}

// ConversationScore aggregates all metric scores for one conversation.
type ConversationScore struct {
	ConversationID string        `json:"conversation_id"`
	SourceTestCase string        `json:"source_test_case"`
	MetricScores   []MetricScore `json:"metric_scores"`
	AverageScore   float64       `json:"average_score"`
}

// ComputeAverage recalculates AverageScore as the mean of all non-nil metric
// scores. When every score is the Not Applicable sentinel the average is 0 by
// convention.
func (c *ConversationScore) ComputeAverage() {
	sum := 0.0
	n := 0
	for _, ms := range c.MetricScores {
		if ms.Score != nil {
			sum += *ms.Score
			n++
		}
	}
	if n == 0 {
		c.AverageScore = 0
		return
	}
	c.AverageScore = sum / float64(n)
}

// RunSummary holds aggregate statistics for a whole batch.
type RunSummary struct {
	TotalConversations  int     `json:"total_conversations"`
	Completed           int     `json:"completed"`
	Failed              int     `json:"failed"`
	TotalEvaluations    int     `json:"total_evaluations"`
	NotApplicable       int     `json:"not_applicable"`
	AverageScore        float64 `json:"average_score"`
	MinScore            float64 `json:"min_score"`
	MaxScore            float64 `json:"max_score"`
	StdDev              float64 `json:"std_dev"`
	DurationMs          int64   `json:"duration_ms"`
}

// Summarize builds a RunSummary from per-conversation scores and the
// simulated conversations they came from.
func Summarize(conversations []*SimulatedConversation, scores []*ConversationScore, duration time.Duration) *RunSummary {
	s := &RunSummary{
		TotalConversations: len(conversations),
		DurationMs:         duration.Milliseconds(),
	}
	for _, c := range conversations {
		if c.Failed() {
			s.Failed++
		} else if c.Completed {
			s.Completed++
		}
	}

	var averages []float64
	for _, cs := range scores {
		averages = append(averages, cs.AverageScore)
		for _, ms := range cs.MetricScores {
			s.TotalEvaluations++
			if !ms.Applicable() {
				s.NotApplicable++
			}
		}
	}
	if len(averages) == 0 {
		return s
	}

	s.MinScore = averages[0]
	s.MaxScore = averages[0]
	sum := 0.0
	for _, v := range averages {
		sum += v
		s.MinScore = math.Min(s.MinScore, v)
		s.MaxScore = math.Max(s.MaxScore, v)
	}
	s.AverageScore = sum / float64(len(averages))
	s.StdDev = ComputeStdDev(averages)
	return s
}

// ComputeStdDev returns the population standard deviation of values.
func ComputeStdDev(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(n))
}

// Ptr returns a pointer to v. Convenient for building optional score values.
func Ptr[T any](v T) *T {
	return &v
}
