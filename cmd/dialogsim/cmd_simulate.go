package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/transcript"
)

func newSimulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <eval.yaml>",
		Short: "Simulate conversations without scoring them",
		Long: `Simulate a conversation for every test case in the spec and write the
transcripts, skipping the scoring phase. Useful for checking agent behavior
before spending judge tokens, or for scoring later with "score".`,
		Args: cobra.ExactArgs(1),
		RunE: simulateCommandE,
	}

	cmd.Flags().StringVar(&transcriptDir, "transcript-dir", "transcripts", "Directory for per-run transcript output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-message progress")

	return cmd
}

func simulateCommandE(cmd *cobra.Command, args []string) error {
	spec, err := models.LoadEvalSpec(args[0])
	if err != nil {
		return fmt.Errorf("failed to load spec: %w", err)
	}

	ctx := cmd.Context()
	runner, err := buildRunner(ctx, spec)
	if err != nil {
		return err
	}
	runner.OnProgress(newProgressPrinter(cmd.OutOrStdout(), verbose))

	conversations, err := runner.Simulate(ctx)
	if err != nil {
		return err
	}

	writer, err := transcript.NewWriter(transcriptDir, time.Now())
	if err != nil {
		return err
	}
	failed := 0
	for _, conv := range conversations {
		if conv.Failed() {
			failed++
		}
		if _, err := writer.WriteConversation(conv); err != nil {
			return err
		}
	}
	resultsPath, err := writer.WriteResults(&transcript.BatchOutput{
		SpecName:      spec.Name,
		GeneratedAt:   time.Now(),
		Conversations: conversations,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Simulated %d conversations (%d failed)\n", len(conversations), failed)
	fmt.Fprintf(cmd.OutOrStdout(), "Transcripts written to %s\n", resultsPath)

	if failed > 0 {
		return &DegradedRunError{
			Message: fmt.Sprintf("%d of %d conversations failed", failed, len(conversations)),
		}
	}
	return nil
}
