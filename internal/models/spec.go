package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EvalSpec is a complete evaluation specification loaded from YAML.
type EvalSpec struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Agent       AgentConfig     `yaml:"agent"`
	Judge       JudgeConfig     `yaml:"judge"`
	Simulation  RunConfig       `yaml:"simulation"`
	TestCases   []string        `yaml:"test_cases"`
	Metrics     []ScoringMetric `yaml:"metrics"`
}

// AgentConfig describes the remote agent endpoint under evaluation.
type AgentConfig struct {
	Endpoint string `yaml:"endpoint"`
	// Type is a short description of what kind of agent this is
	// (e.g. "customer support assistant"), used when phrasing simulated
	// user messages.
	Type           string `yaml:"type,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// JudgeConfig selects the model used for message generation and scoring.
type JudgeConfig struct {
	Model string `yaml:"model"`
}

// LoadEvalSpec loads and validates a spec from a YAML file. Metric rubrics
// are normalized as part of loading.
func LoadEvalSpec(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec EvalSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Validate checks that the spec is complete enough to run and normalizes
// metric rubrics in place.
func (s *EvalSpec) Validate() error {
	if s.Agent.Endpoint == "" {
		return fmt.Errorf("agent.endpoint is required")
	}
	if s.Agent.TimeoutSeconds < 0 {
		return fmt.Errorf("agent.timeout_seconds must not be negative, got %d", s.Agent.TimeoutSeconds)
	}
	if len(s.TestCases) == 0 {
		return fmt.Errorf("at least one test case is required")
	}
	for i, tc := range s.TestCases {
		if tc == "" {
			return fmt.Errorf("test case %d is empty", i)
		}
	}
	if len(s.Metrics) == 0 {
		return fmt.Errorf("at least one metric is required")
	}
	for i := range s.Metrics {
		if err := s.Metrics[i].Validate(); err != nil {
			return err
		}
		s.Metrics[i].NormalizeRubrics()
	}
	if err := s.Simulation.Validate(); err != nil {
		return err
	}
	return nil
}
