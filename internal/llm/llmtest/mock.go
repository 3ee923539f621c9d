// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/ziadkadry99/freestyler/internal/llm"
)

// MockProvider streams canned chunks and records every request.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []llm.CompletionRequest
	Chunks   []string
	Err      error
	ErrAfter int // chunks delivered before Err is returned; 0 fails up front
	ProvName string
	// Gate, when set, is received from before each chunk so tests can
	// pace the stream.
	Gate chan struct{}
}

// NewMockProvider returns a provider that streams chunks in order.
func NewMockProvider(name string, chunks ...string) *MockProvider {
	return &MockProvider{ProvName: name, Chunks: chunks}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return m.Stream(ctx, req, func(string) error { return nil })
}

func (m *MockProvider) Stream(ctx context.Context, req llm.CompletionRequest, onChunk llm.ChunkFunc) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	chunks, failErr, errAfter, gate := m.Chunks, m.Err, m.ErrAfter, m.Gate
	m.mu.Unlock()

	resp := &llm.CompletionResponse{Model: "mock-model", FinishReason: "stop"}
	var content strings.Builder
	for i, chunk := range chunks {
		if failErr != nil && i == errAfter {
			resp.Content = content.String()
			return resp, failErr
		}
		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				resp.Content = content.String()
				return resp, ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			resp.Content = content.String()
			return resp, err
		}
		content.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			resp.Content = content.String()
			return resp, err
		}
	}
	if failErr != nil {
		resp.Content = content.String()
		return resp, failErr
	}
	resp.Content = content.String()
	resp.InputTokens = 10
	resp.OutputTokens = len(chunks)
	return resp, nil
}

// CallCount returns the number of requests received.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request.
func (m *MockProvider) LastCall() llm.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return llm.CompletionRequest{}
	}
	return m.Calls[len(m.Calls)-1]
}
