package scoring

import (
	"fmt"
	"strings"

	"github.com/dialogsim/dialogsim/internal/models"
)

func evaluationPrompt(conv *models.SimulatedConversation, metric *models.ScoringMetric, lenient bool) string {
	var b strings.Builder
	b.WriteString("You are grading a conversation between a user and an AI agent.\n\n")
	fmt.Fprintf(&b, "Metric: %s\n%s\n", metric.Name, metric.Description)

	if len(metric.Rubrics) > 0 {
		b.WriteString("\nRubric (weights sum to 1.0):\n")
		for _, r := range metric.Rubrics {
			fmt.Fprintf(&b, "- %s (%.2f)", r.Criterion, r.Points)
			if r.Description != "" {
				fmt.Fprintf(&b, ": %s", r.Description)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\nScenario the user was acting out:\n%s\n", conv.SourceTestCase)
	fmt.Fprintf(&b, "\nConversation transcript:\n%s\n", conv.Transcript())

	if lenient {
		b.WriteString("\nThe metric may seem inapplicable at first glance. Look again " +
			"for ANY partial evidence: even a single agent reply that touches the " +
			"metric is enough to assign a numeric score. Use \"Not Applicable\" only " +
			"if, after actively searching, the transcript gives literally nothing to " +
			"judge.\n")
	} else {
		b.WriteString("\nBe generous in finding applicability: most quality metrics can " +
			"be judged from any real exchange. Reserve \"Not Applicable\" for " +
			"conversations that give literally no basis for judging this metric.\n")
	}

	fmt.Fprintf(&b, "\nScore from 0.0 to %.1f against the rubric.\n", metric.TotalPoints)
	b.WriteString("Respond with only a JSON object, no code fences:\n" +
		`{"score": <number or "Not Applicable">, "feedback": "<two or three sentences justifying the score>"}`)
	return b.String()
}
