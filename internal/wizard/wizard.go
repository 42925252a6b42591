// Package wizard scaffolds new eval specs through an interactive form.
package wizard

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/dialogsim/dialogsim/internal/models"
)

// SpecDraft holds all fields collected during the interactive wizard.
type SpecDraft struct {
	Name       string
	Endpoint   string
	AgentType  string
	JudgeModel string
	Mode       models.TurnMode
	FixedTurns int
	TestCases  []string
	Metrics    []string
}

const specYAMLTemplate = `name: {{ .Name }}
agent:
  endpoint: {{ .Endpoint }}
{{- if .AgentType }}
  type: {{ .AgentType }}
{{- end }}
  timeout_seconds: 60
judge:
  model: {{ .JudgeModel }}
simulation:
  mode: {{ .Mode }}
{{- if eq .Mode "fixed" }}
  fixed_turns: {{ .FixedTurns }}
{{- end }}
{{- if eq .Mode "range" }}
  range:
    min: 2
    max: 5
{{- end }}
{{- if eq .Mode "auto" }}
  safety_turn_cap: 10
{{- end }}
test_cases:
{{- range .TestCases }}
  - "{{ . }}"
{{- end }}
metrics:
{{- range .Metrics }}
  - name: {{ . }}
    description: TODO describe what a high {{ . }} score means
{{- end }}
`

// RunSpecWizard runs an interactive huh form to collect eval spec fields.
// If initialName is non-empty, it pre-populates the name field.
func RunSpecWizard(in io.Reader, out io.Writer, initialName string) (*SpecDraft, error) {
	var (
		name         = initialName
		endpoint     string
		agentType    string
		judgeModel   = "gemini-2.0-flash"
		mode         = string(models.TurnModeFixed)
		fixedTurns   = "3"
		testCasesRaw string
		metricsRaw   = "helpfulness, accuracy"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Eval name").
				Description("A short name for this evaluation").
				Placeholder("support-bot-eval").
				Value(&name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Agent endpoint").
				Description("HTTP endpoint of the agent under evaluation").
				Placeholder("http://localhost:8080/chat").
				Value(&endpoint).
				Validate(func(s string) error {
					u, err := url.Parse(strings.TrimSpace(s))
					if err != nil || u.Scheme == "" || u.Host == "" {
						return fmt.Errorf("enter a full http(s) URL")
					}
					return nil
				}),
			huh.NewInput().
				Title("Agent type").
				Description("What kind of agent is this? Used when phrasing simulated users").
				Placeholder("customer support assistant").
				Value(&agentType),
			huh.NewInput().
				Title("Judge model").
				Description("Model used for message generation and scoring").
				Value(&judgeModel),
			huh.NewSelect[string]().
				Title("Turn mode").
				Options(
					huh.NewOption("fixed - same turn count for every conversation", string(models.TurnModeFixed)),
					huh.NewOption("range - per-conversation count from the id", string(models.TurnModeRange)),
					huh.NewOption("auto - end when the conversation feels done", string(models.TurnModeAuto)),
				).
				Value(&mode),
			huh.NewInput().
				Title("Fixed turns").
				Description("Turns per conversation (fixed mode only)").
				Value(&fixedTurns).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 {
						return fmt.Errorf("enter a number >= 1")
					}
					return nil
				}),
			huh.NewText().
				Title("Test cases").
				Description("One scenario per line").
				Placeholder("My order never arrived and I want a refund.").
				Value(&testCasesRaw),
			huh.NewInput().
				Title("Metrics").
				Description("Comma-separated metric names").
				Value(&metricsRaw),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	turns, _ := strconv.Atoi(strings.TrimSpace(fixedTurns))
	return &SpecDraft{
		Name:       strings.TrimSpace(name),
		Endpoint:   strings.TrimSpace(endpoint),
		AgentType:  strings.TrimSpace(agentType),
		JudgeModel: strings.TrimSpace(judgeModel),
		Mode:       models.TurnMode(mode),
		FixedTurns: turns,
		TestCases:  splitLines(testCasesRaw),
		Metrics:    splitAndTrim(metricsRaw),
	}, nil
}

// GenerateSpecYAML renders an eval spec YAML file from the given draft.
func GenerateSpecYAML(draft *SpecDraft) (string, error) {
	tmpl, err := template.New("specyaml").Parse(specYAMLTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, draft); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func splitLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
