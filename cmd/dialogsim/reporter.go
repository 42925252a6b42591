package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/orchestration"
)

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}

// padRight pads s with spaces to the given display width, counting wide
// runes correctly.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// newProgressPrinter returns a listener that prints batch progress. Verbose
// mode additionally echoes every simulated message.
func newProgressPrinter(out io.Writer, verbose bool) orchestration.ProgressListener {
	return func(e orchestration.ProgressEvent) {
		switch e.EventType {
		case orchestration.EventConversationStart:
			fmt.Fprintf(out, "[%d/%d] simulating %s...\n", e.ConvNum, e.TotalConvs, e.ConversationID)
		case orchestration.EventConversationFailed:
			fmt.Fprintf(out, "[%d/%d] %s FAILED: %v\n", e.ConvNum, e.TotalConvs, e.ConversationID, e.Details["error"])
		case orchestration.EventMessage:
			if verbose {
				fmt.Fprintf(out, "  %s: %s\n", e.Details["role"], e.Details["content"])
			}
		case orchestration.EventScoringStart:
			fmt.Fprintf(out, "Scoring %d conversations...\n", e.TotalConvs)
		case orchestration.EventMetricScored:
			if verbose {
				if score, ok := e.Details["score"].(float64); ok {
					fmt.Fprintf(out, "  %s / %s: %.2f\n", e.ConversationID, e.MetricName, score)
				} else {
					fmt.Fprintf(out, "  %s / %s: not applicable\n", e.ConversationID, e.MetricName)
				}
			}
		}
	}
}

// printSummary renders the per-conversation table and batch statistics for
// a full run.
func printSummary(out io.Writer, result *orchestration.RunResult) {
	printScores(out, result.Conversations, result.Scores, result.Summary)
}

func printScores(out io.Writer, conversations []*models.SimulatedConversation, scores []*models.ConversationScore, summary *models.RunSummary) {
	scoreByID := make(map[string]*models.ConversationScore, len(scores))
	for _, cs := range scores {
		scoreByID[cs.ConversationID] = cs
	}

	const (
		idWidth     = 12
		statusWidth = 10
		scoreWidth  = 8
	)

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s %s %s Test case\n",
		padRight("Conversation", idWidth), padRight("Status", statusWidth), padRight("Score", scoreWidth))

	for _, conv := range conversations {
		status := "completed"
		if conv.Failed() {
			status = "failed"
		}

		scoreCell := "-"
		if cs, ok := scoreByID[conv.ID]; ok {
			applicable := 0
			for _, ms := range cs.MetricScores {
				if ms.Applicable() {
					applicable++
				}
			}
			if applicable > 0 {
				scoreCell = fmt.Sprintf("%.2f", cs.AverageScore)
			} else {
				scoreCell = "n/a"
			}
		}

		testCase := conv.SourceTestCase
		if runewidth.StringWidth(testCase) > 60 {
			testCase = runewidth.Truncate(testCase, 60, "...")
		}
		fmt.Fprintf(out, "%s %s %s %s\n",
			padRight(conv.ID, idWidth), padRight(status, statusWidth), padRight(scoreCell, scoreWidth), testCase)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Conversations: %d total, %d completed, %d failed\n",
		summary.TotalConversations, summary.Completed, summary.Failed)
	fmt.Fprintf(out, "Evaluations:   %d total, %d not applicable\n",
		summary.TotalEvaluations, summary.NotApplicable)
	if summary.TotalEvaluations > 0 {
		fmt.Fprintf(out, "Average score: %.2f (range %.2f - %.2f, stddev %.4f)\n",
			summary.AverageScore, summary.MinScore, summary.MaxScore, summary.StdDev)
	}
	fmt.Fprintf(out, "Duration:      %s\n", formatDuration(time.Duration(summary.DurationMs)*time.Millisecond))
}
