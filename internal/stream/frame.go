package stream

import (
	"encoding/json"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Frame is the normalized shape of one event-stream payload. Remote agents
// disagree on field naming (snake_case vs camelCase), so raw payloads go
// through an alias resolution step before landing here.
type Frame struct {
	Message      string         `mapstructure:"message"`
	IsFinal      bool           `mapstructure:"is_final"`
	ChatThreadID string         `mapstructure:"chat_thread_id"`
	Suggestions  []string       `mapstructure:"suggestions"`
	Citations    []Citation     `mapstructure:"citations"`
	Thread       map[string]any `mapstructure:"thread"`
}

// Citation is a source reference attached to an agent reply.
type Citation struct {
	Title string `mapstructure:"title" json:"title,omitempty"`
	URL   string `mapstructure:"url" json:"url,omitempty"`
}

// fieldAliases maps camelCase payload keys onto the canonical snake_case
// names used by [Frame].
var fieldAliases = map[string]string{
	"isFinal":      "is_final",
	"chatThreadId": "chat_thread_id",
	"chatThreadID": "chat_thread_id",
}

// DecodeFrame parses one raw frame payload, resolving field-name aliases so
// consumers only ever see one shape. Single-object JSON replies share the
// same field vocabulary as stream frames and decode through here too.
func DecodeFrame(payload []byte) (*Frame, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parsing frame payload: %w", err)
	}

	for alias, canonical := range fieldAliases {
		if v, ok := raw[alias]; ok {
			if _, exists := raw[canonical]; !exists {
				raw[canonical] = v
			}
			delete(raw, alias)
		}
	}

	var frame Frame
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &frame,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return &frame, nil
}
