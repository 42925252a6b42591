package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a scripted language model for tests. When GenerateFunc is
// set it handles every call; otherwise Responses are returned in order.
type MockClient struct {
	mu sync.Mutex

	GenerateFunc func(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Responses    []string
	Err          error

	Prompts []string
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	call := len(m.Prompts)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if call > len(m.Responses) {
		return "", fmt.Errorf("mock has no response for call %d", call)
	}
	return m.Responses[call-1], nil
}

// CallCount reports how many Generate calls were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
