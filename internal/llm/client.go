// Package llm abstracts the language model used for message generation and
// conversation scoring.
package llm

import "context"

// GenerateOptions tune a single generation call. Zero values mean "model
// default".
type GenerateOptions struct {
	Temperature      *float32
	MaxOutputTokens  int32
	ResponseMIMEType string
}

// Client generates text from a prompt. Implementations must be safe for
// sequential reuse across many calls.
type Client interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
