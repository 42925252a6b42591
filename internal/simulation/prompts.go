package simulation

import (
	"fmt"
	"strings"

	"github.com/dialogsim/dialogsim/internal/models"
)

// genericFollowUp is the fallback user message when follow-up generation
// fails. Never an error; the conversation keeps moving.
const genericFollowUp = "Can you tell me more about that?"

// endToken is the only accepted affirmative answer from the termination
// heuristic. Anything else means continue.
const endToken = "END"

func openingPrompt(testCase, agentType, guidelines string) string {
	var b strings.Builder
	b.WriteString("You are simulating a real user starting a conversation with ")
	if agentType != "" {
		fmt.Fprintf(&b, "a %s.\n\n", agentType)
	} else {
		b.WriteString("an AI assistant.\n\n")
	}
	fmt.Fprintf(&b, "Scenario to act out:\n%s\n\n", testCase)
	if guidelines != "" {
		fmt.Fprintf(&b, "Style guidelines for the simulated user:\n%s\n\n", guidelines)
	}
	b.WriteString("Rewrite the scenario as the user's natural first message. " +
		"Write it in first person, the way a real person would open the conversation. " +
		"Return only the message text, nothing else.")
	return b.String()
}

func followUpPrompt(conv *models.SimulatedConversation, agentType, guidelines string) string {
	var b strings.Builder
	b.WriteString("You are simulating a real user in an ongoing conversation with ")
	if agentType != "" {
		fmt.Fprintf(&b, "a %s.\n\n", agentType)
	} else {
		b.WriteString("an AI assistant.\n\n")
	}
	fmt.Fprintf(&b, "The user's original goal:\n%s\n\n", conv.SourceTestCase)
	fmt.Fprintf(&b, "Conversation so far:\n%s\n", conv.Transcript())
	if guidelines != "" {
		fmt.Fprintf(&b, "\nStyle guidelines for the simulated user:\n%s\n", guidelines)
	}
	b.WriteString("\nWrite the user's next message. It must react to the agent's " +
		"latest reply, stay grounded in the original goal, and not repeat " +
		"anything the user already said. Return only the message text, nothing else.")
	return b.String()
}

func terminationPrompt(conv *models.SimulatedConversation) string {
	var b strings.Builder
	b.WriteString("You decide whether a simulated conversation should end now.\n\n")
	fmt.Fprintf(&b, "Conversation so far:\n%s\n", conv.Transcript())
	b.WriteString("\nEnd the conversation if ANY of these hold:\n" +
		"- the user's issue is resolved\n" +
		"- the conversation reached a natural conclusion\n" +
		"- the exchange is looping without progress\n" +
		"- the conversation has drifted off-topic\n\n" +
		"When in doubt, prefer ending early over dragging on.\n" +
		"Answer with exactly one word: END or CONTINUE.")
	return b.String()
}
