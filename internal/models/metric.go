package models

import (
	"fmt"
	"math"
)

// rubricSumTolerance is the floating tolerance used when deciding whether a
// metric's rubric points already sum to 1.0.
const rubricSumTolerance = 1e-9

// ScoringRubric is one weighted criterion inside a scoring metric. Points
// across all rubrics of one metric sum to 1.0 after normalization.
type ScoringRubric struct {
	Criterion   string  `yaml:"criterion" json:"criterion"`
	Points      float64 `yaml:"points" json:"points"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
}

// ScoringMetric is one dimension a conversation is evaluated on. Metrics are
// authored externally and are immutable input to the scoring engine.
type ScoringMetric struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	TotalPoints float64         `yaml:"total_points,omitempty" json:"total_points"`
	Rubrics     []ScoringRubric `yaml:"rubrics,omitempty" json:"rubrics,omitempty"`
}

// Validate checks the metric definition itself. Rubric point sums are not an
// error here; they are corrected by [ScoringMetric.NormalizeRubrics] at load
// time.
func (m *ScoringMetric) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("metric is missing a name")
	}
	if m.Description == "" {
		return fmt.Errorf("metric %q is missing a description", m.Name)
	}
	for i, r := range m.Rubrics {
		if r.Criterion == "" {
			return fmt.Errorf("metric %q: rubric %d is missing a criterion", m.Name, i)
		}
		if r.Points < 0 {
			return fmt.Errorf("metric %q: rubric %q has negative points", m.Name, r.Criterion)
		}
	}
	return nil
}

// NormalizeRubrics rescales rubric points so they sum to 1.0. Correcting
// externally authored metrics is a loading concern; the scoring engine
// assumes metrics arrive normalized.
func (m *ScoringMetric) NormalizeRubrics() {
	if m.TotalPoints == 0 {
		m.TotalPoints = 1.0
	}
	if len(m.Rubrics) == 0 {
		return
	}
	sum := 0.0
	for _, r := range m.Rubrics {
		sum += r.Points
	}
	if sum == 0 {
		// No author-assigned weights; distribute evenly.
		even := 1.0 / float64(len(m.Rubrics))
		for i := range m.Rubrics {
			m.Rubrics[i].Points = even
		}
		return
	}
	if math.Abs(sum-1.0) <= rubricSumTolerance {
		return
	}
	for i := range m.Rubrics {
		m.Rubrics[i].Points /= sum
	}
}

// RubricSum returns the current sum of rubric points.
func (m *ScoringMetric) RubricSum() float64 {
	sum := 0.0
	for _, r := range m.Rubrics {
		sum += r.Points
	}
	return sum
}
