package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/transcript"
)

var scoreInput string

func newScoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score <eval.yaml>",
		Short: "Score previously simulated conversations",
		Long: `Score the conversations from an earlier "simulate" run against the
spec's metrics. Reads the eval_output.json written by simulate and writes a
new one with scores and a summary.`,
		Args: cobra.ExactArgs(1),
		RunE: scoreCommandE,
	}

	cmd.Flags().StringVarP(&scoreInput, "input", "i", "", "eval_output.json from a simulate run (required)")
	cmd.Flags().StringVar(&transcriptDir, "transcript-dir", "transcripts", "Directory for per-run transcript output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-metric progress")
	cmd.Flags().IntVar(&parallelMetrics, "parallel-metrics", 0, "Score up to N metrics of one conversation concurrently")
	cmd.MarkFlagRequired("input")

	return cmd
}

func scoreCommandE(cmd *cobra.Command, args []string) error {
	spec, err := models.LoadEvalSpec(args[0])
	if err != nil {
		return fmt.Errorf("failed to load spec: %w", err)
	}

	data, err := os.ReadFile(scoreInput)
	if err != nil {
		return fmt.Errorf("failed to read simulate output: %w", err)
	}
	var batch transcript.BatchOutput
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("failed to parse simulate output: %w", err)
	}
	if len(batch.Conversations) == 0 {
		return fmt.Errorf("%s contains no conversations", scoreInput)
	}

	ctx := cmd.Context()
	started := time.Now()
	runner, err := buildRunner(ctx, spec)
	if err != nil {
		return err
	}
	runner.OnProgress(newProgressPrinter(cmd.OutOrStdout(), verbose))

	scores := runner.Score(ctx, batch.Conversations)
	summary := models.Summarize(batch.Conversations, scores, time.Since(started))

	writer, err := transcript.NewWriter(transcriptDir, time.Now())
	if err != nil {
		return err
	}
	resultsPath, err := writer.WriteResults(&transcript.BatchOutput{
		SpecName:      spec.Name,
		GeneratedAt:   time.Now(),
		Conversations: batch.Conversations,
		Scores:        scores,
		Summary:       summary,
	})
	if err != nil {
		return err
	}

	printScores(cmd.OutOrStdout(), batch.Conversations, scores, summary)
	fmt.Fprintf(cmd.OutOrStdout(), "\nResults written to %s\n", resultsPath)
	return nil
}
