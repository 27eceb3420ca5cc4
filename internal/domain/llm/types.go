// Package llm defines the provider contract the chat pipeline depends on.
package llm

import "context"

// Provider is the capability injected into services that need model output.
// Implementations are constructed once at startup; tests substitute fakes.
type Provider interface {
	// Complete performs a single-shot completion and returns the full text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// StreamCompletion opens a streaming completion. The returned stream is
	// finite, non-restartable, and must be closed by the caller.
	StreamCompletion(ctx context.Context, req CompletionRequest) (Stream, error)
}

// Stream yields text fragments in arrival order. Recv returns io.EOF when
// the provider finishes the response.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// CompletionRequest carries a system instruction plus an ordered message list.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
}

// Message is a single role/content pair sent to the provider.
type Message struct {
	Role    string
	Content string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
