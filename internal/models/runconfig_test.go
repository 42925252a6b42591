package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RunConfig
		wantErr string
	}{
		{
			name:   "fixed",
			config: RunConfig{Mode: TurnModeFixed, FixedTurns: 3},
		},
		{
			name:    "fixed without turns",
			config:  RunConfig{Mode: TurnModeFixed},
			wantErr: "fixed_turns >= 1",
		},
		{
			name:   "range",
			config: RunConfig{Mode: TurnModeRange, Range: &TurnRange{Min: 2, Max: 5}},
		},
		{
			name:    "range missing bounds",
			config:  RunConfig{Mode: TurnModeRange},
			wantErr: "requires a range",
		},
		{
			name:    "range min above max",
			config:  RunConfig{Mode: TurnModeRange, Range: &TurnRange{Min: 5, Max: 2}},
			wantErr: "must be <= max",
		},
		{
			name:    "range min below one",
			config:  RunConfig{Mode: TurnModeRange, Range: &TurnRange{Min: 0, Max: 2}},
			wantErr: "min must be at least 1",
		},
		{
			name:   "auto",
			config: RunConfig{Mode: TurnModeAuto},
		},
		{
			name:    "unknown mode",
			config:  RunConfig{Mode: "freestyle"},
			wantErr: "not a valid turn mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestRunConfig_Validate_AppliesDefaultSafetyCap(t *testing.T) {
	rc := RunConfig{Mode: TurnModeAuto}
	require.NoError(t, rc.Validate())
	require.Equal(t, DefaultSafetyTurnCap, rc.SafetyTurnCap)
}

func TestRunConfig_Validate_KeepsExplicitSafetyCap(t *testing.T) {
	rc := RunConfig{Mode: TurnModeAuto, SafetyTurnCap: 4}
	require.NoError(t, rc.Validate())
	require.Equal(t, 4, rc.SafetyTurnCap)
}
