package scoring

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// EvaluationResult is one parsed evaluator answer.
type EvaluationResult struct {
	// Score is nil when the evaluator answered Not Applicable.
	Score    *float64
	Feedback string
}

// NotApplicable reports whether this result is the null-score sentinel.
func (r *EvaluationResult) NotApplicable() bool {
	return r.Score == nil
}

// resultSchemaJSON describes the {score, feedback} shape the evaluator is
// asked to return. Score may be a number or the sentinel string.
const resultSchemaJSON = `{
	"type": "object",
	"required": ["score"],
	"properties": {
		"score": {"type": ["number", "string"]},
		"feedback": {"type": "string"}
	}
}`

var resultSchema = mustCompileResultSchema()

func mustCompileResultSchema() *jsonschema.Schema {
	var schemaValue any
	if err := json.Unmarshal([]byte(resultSchemaJSON), &schemaValue); err != nil {
		panic(fmt.Sprintf("parsing result schema: %v", err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.json", schemaValue); err != nil {
		panic(fmt.Sprintf("adding result schema resource: %v", err))
	}
	schema, err := compiler.Compile("result.json")
	if err != nil {
		panic(fmt.Sprintf("compiling result schema: %v", err))
	}
	return schema
}

var (
	codeFence     = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKey   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	scorePattern  = regexp.MustCompile(`(?i)"?score"?\s*[:=]\s*"?([0-9]*\.?[0-9]+|not applicable|n/a)"?`)
	fbPattern     = regexp.MustCompile(`(?i)"?feedback"?\s*[:=]\s*"((?:[^"\\]|\\.)*)"`)
)

// ParseEvaluation turns a raw model answer into an [EvaluationResult]. It
// tries strict JSON first, then a cleanup pass over common model mistakes
// (code fences, trailing commas, unquoted keys), then a last-resort regex
// extraction of score and feedback.
func ParseEvaluation(raw string) (*EvaluationResult, error) {
	candidate := extractJSONObject(raw)

	if result, err := parseStrict(candidate); err == nil {
		return result, nil
	}

	if result, err := parseStrict(cleanup(candidate)); err == nil {
		return result, nil
	}

	if result, ok := parseLoose(raw); ok {
		return result, nil
	}

	return nil, fmt.Errorf("unparseable evaluation output: %.120q", raw)
}

// extractJSONObject narrows raw to the outermost {...} span, dropping prose
// the model wrapped around the JSON.
func extractJSONObject(raw string) string {
	if m := codeFence.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func parseStrict(candidate string) (*EvaluationResult, error) {
	var value map[string]any
	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return nil, err
	}
	if err := resultSchema.Validate(value); err != nil {
		return nil, fmt.Errorf("evaluation output failed schema validation: %w", err)
	}

	result := &EvaluationResult{}
	if fb, ok := value["feedback"].(string); ok {
		result.Feedback = strings.TrimSpace(fb)
	}

	switch score := value["score"].(type) {
	case float64:
		result.Score = &score
	case string:
		if IsNotApplicable(score) {
			return result, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(score), 64)
		if err != nil {
			return nil, fmt.Errorf("score %q is neither numeric nor the sentinel", score)
		}
		result.Score = &parsed
	default:
		return nil, fmt.Errorf("score has unsupported type %T", score)
	}
	return result, nil
}

// cleanup repairs the JSON mistakes models most often make.
func cleanup(candidate string) string {
	candidate = trailingComma.ReplaceAllString(candidate, "$1")
	candidate = unquotedKey.ReplaceAllString(candidate, `$1"$2":`)
	return candidate
}

// parseLoose pulls score and feedback out of arbitrary text.
func parseLoose(raw string) (*EvaluationResult, bool) {
	m := scorePattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}

	result := &EvaluationResult{}
	if fb := fbPattern.FindStringSubmatch(raw); fb != nil {
		result.Feedback = fb[1]
	}

	if IsNotApplicable(m[1]) {
		return result, true
	}
	parsed, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, false
	}
	result.Score = &parsed
	return result, true
}
