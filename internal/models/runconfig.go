package models

import (
	"fmt"
)

// TurnMode selects how the number of turns for each conversation is chosen.
type TurnMode string

const (
	// TurnModeFixed runs the configured constant number of turns.
	TurnModeFixed TurnMode = "fixed"
	// TurnModeRange derives a per-conversation turn count deterministically
	// from the conversation id.
	TurnModeRange TurnMode = "range"
	// TurnModeAuto lets a conversation-end heuristic decide, bounded by the
	// safety turn cap.
	TurnModeAuto TurnMode = "auto"
)

// DefaultSafetyTurnCap bounds auto-mode conversations when the termination
// heuristic never fires.
const DefaultSafetyTurnCap = 10

// TurnRange bounds the range mode.
type TurnRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// RunConfig is chosen once per batch and applied to every conversation in it.
type RunConfig struct {
	Mode          TurnMode   `yaml:"mode" json:"mode"`
	FixedTurns    int        `yaml:"fixed_turns,omitempty" json:"fixed_turns,omitempty"`
	Range         *TurnRange `yaml:"range,omitempty" json:"range,omitempty"`
	SafetyTurnCap int        `yaml:"safety_turn_cap,omitempty" json:"safety_turn_cap,omitempty"`

	// Guidelines is optional free text steering how simulated user messages
	// are phrased.
	Guidelines string `yaml:"guidelines,omitempty" json:"guidelines,omitempty"`
}

// Validate checks mode-specific requirements and applies defaults.
func (rc *RunConfig) Validate() error {
	if rc.SafetyTurnCap == 0 {
		rc.SafetyTurnCap = DefaultSafetyTurnCap
	}
	if rc.SafetyTurnCap < 1 {
		return fmt.Errorf("safety_turn_cap must be at least 1, got %d", rc.SafetyTurnCap)
	}

	switch rc.Mode {
	case TurnModeFixed:
		if rc.FixedTurns < 1 {
			return fmt.Errorf("fixed mode requires fixed_turns >= 1, got %d", rc.FixedTurns)
		}
	case TurnModeRange:
		if rc.Range == nil {
			return fmt.Errorf("range mode requires a range")
		}
		if rc.Range.Min < 1 {
			return fmt.Errorf("range min must be at least 1, got %d", rc.Range.Min)
		}
		if rc.Range.Min > rc.Range.Max {
			return fmt.Errorf("range min (%d) must be <= max (%d)", rc.Range.Min, rc.Range.Max)
		}
	case TurnModeAuto:
		// Nothing beyond the safety cap.
	default:
		return fmt.Errorf("%q is not a valid turn mode (want fixed, range, or auto)", rc.Mode)
	}
	return nil
}
