package llm

import (
	"context"
	"fmt"
)

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the whole response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Stream sends a completion request and calls onChunk for every piece
	// of generated text as it arrives. The returned response aggregates
	// the stream.
	Stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// UpstreamError reports a non-successful response from a provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}
