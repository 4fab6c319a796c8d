package llm

import (
	"context"
	"sync"
)

// GenerateCall records one MockGenerator invocation.
type GenerateCall struct {
	System      string
	User        string
	Temperature float64
}

// MockGenerator is a Generator for tests. GenerateFunc defaults to "unavailable".
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, system, user string, temperature float64) (string, bool)

	mu    sync.Mutex
	calls []GenerateCall
}

func (m *MockGenerator) Generate(ctx context.Context, system, user string, temperature float64) (string, bool) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerateCall{System: system, User: user, Temperature: temperature})
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, user, temperature)
	}
	return "", false
}

func (m *MockGenerator) Calls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerateCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Responses returns a GenerateFunc that yields the given replies in order
// and reports unavailable once they run out.
func Responses(replies ...string) func(context.Context, string, string, float64) (string, bool) {
	var mu sync.Mutex
	next := 0
	return func(context.Context, string, string, float64) (string, bool) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(replies) {
			return "", false
		}
		next++
		return replies[next-1], true
	}
}

// MockProvider is a Provider for tests.
type MockProvider struct {
	CompleteFunc func(ctx context.Context, req Request) (string, error)
	ProviderName string

	mu    sync.Mutex
	calls int
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) Model() string { return "mock-model" }

func (m *MockProvider) Complete(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
