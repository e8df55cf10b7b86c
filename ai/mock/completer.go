package mock

import (
	"context"
	"fmt"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// NewMockCompleter creates a mock completer that echoes prompt sizes.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete records prompt and returns a canned answer.
func (m *MockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return fmt.Sprintf("mock answer for a %d character prompt", len(prompt)), nil
}

// Prompts returns every prompt received so far.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// MockTranscriber is a test double for ai.Transcriber.
type MockTranscriber struct {
	// TranscribeFunc is called by Transcribe if set.
	TranscribeFunc func(ctx context.Context, audio []byte, mimeType string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockTranscriber creates a mock transcriber.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe returns a canned transcript describing the input.
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, mimeType)
	}
	return fmt.Sprintf("transcript of %d bytes (%s)", len(audio), mimeType), nil
}

// CallCount returns the number of times Transcribe was called.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
