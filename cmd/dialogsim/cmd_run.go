package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dialogsim/dialogsim/internal/llm"
	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/orchestration"
	"github.com/dialogsim/dialogsim/internal/transcript"
	"github.com/dialogsim/dialogsim/internal/transport"
)

var (
	transcriptDir   string
	verbose         bool
	parallelMetrics int
	judgeOverride   string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <eval.yaml>",
		Short: "Simulate and score a full evaluation batch",
		Long: `Run a full evaluation: probe the agent, simulate a conversation for
every test case, score each conversation against every metric, and write
transcripts plus a combined eval_output.json.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVar(&transcriptDir, "transcript-dir", "transcripts", "Directory for per-run transcript output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-message progress")
	cmd.Flags().IntVar(&parallelMetrics, "parallel-metrics", 0, "Score up to N metrics of one conversation concurrently")
	cmd.Flags().StringVar(&judgeOverride, "judge-model", "", "Judge model (overrides spec config)")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	spec, err := models.LoadEvalSpec(args[0])
	if err != nil {
		return fmt.Errorf("failed to load spec: %w", err)
	}
	if judgeOverride != "" {
		spec.Judge.Model = judgeOverride
	}

	ctx := cmd.Context()
	runner, err := buildRunner(ctx, spec)
	if err != nil {
		return err
	}
	runner.OnProgress(newProgressPrinter(cmd.OutOrStdout(), verbose))

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	writer, err := transcript.NewWriter(transcriptDir, time.Now())
	if err != nil {
		return err
	}
	for _, conv := range result.Conversations {
		if _, err := writer.WriteConversation(conv); err != nil {
			return err
		}
	}
	resultsPath, err := writer.WriteResults(&transcript.BatchOutput{
		SpecName:      spec.Name,
		GeneratedAt:   time.Now(),
		Conversations: result.Conversations,
		Scores:        result.Scores,
		Summary:       result.Summary,
	})
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), result)
	fmt.Fprintf(cmd.OutOrStdout(), "\nResults written to %s\n", resultsPath)

	if result.Summary.Failed > 0 {
		return &DegradedRunError{
			Message: fmt.Sprintf("%d of %d conversations failed", result.Summary.Failed, result.Summary.TotalConversations),
		}
	}
	return nil
}

func buildRunner(ctx context.Context, spec *models.EvalSpec) (*orchestration.Runner, error) {
	client, err := llm.NewGeminiClient(ctx, spec.Judge.Model)
	if err != nil {
		return nil, err
	}

	var opts []orchestration.RunnerOption
	if parallelMetrics > 1 {
		opts = append(opts, orchestration.WithParallelMetrics(parallelMetrics))
	}
	return orchestration.NewRunner(spec, transport.NewHTTPTransport(spec.Agent), client, opts...), nil
}
