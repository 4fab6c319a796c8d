package llm

import "context"

// Request is one single-turn completion.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Provider calls one text-generation service. Implementations return the
// primary text span of the response, or "" when the response carries none.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req Request) (string, error)
}
