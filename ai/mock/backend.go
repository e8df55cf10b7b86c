package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"github.com/Blessan-Alex/MalRag/ai"
)

// Backend is an offline ai.Backend. Responses are derived from the input
// so results are reproducible. Failures can be scripted per credential.
type Backend struct {
	mu       sync.Mutex
	failures map[string]error
	calls    []string
}

var _ ai.Backend = (*Backend)(nil)

// NewBackend creates an offline backend with no scripted failures.
func NewBackend() *Backend {
	return &Backend{failures: make(map[string]error)}
}

// Name returns "mock".
func (b *Backend) Name() string {
	return ai.ProviderMock
}

// FailWith makes every call authenticated with credential return err.
// A nil err clears the failure.
func (b *Backend) FailWith(credential string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, credential)
		return
	}
	b.failures[credential] = err
}

// Calls returns the credential used by every call so far, in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// NewClient returns a client bound to credential.
func (b *Backend) NewClient(_ context.Context, credential string) (ai.Client, error) {
	return &Client{backend: b, credential: credential}, nil
}

func (b *Backend) record(credential string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, credential)
	return b.failures[credential]
}

// Client is the per-credential handle returned by Backend.
type Client struct {
	backend    *Backend
	credential string
}

var _ ai.Client = (*Client)(nil)

// GenerateContent answers messages. Binary parts are treated as audio to
// transcribe; JSON mode returns capitalized words as entities.
func (c *Client) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if err := c.backend.record(c.credential); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}

	var text strings.Builder
	for _, msg := range messages {
		if msg.Role == llms.ChatMessageTypeSystem {
			continue
		}
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case llms.BinaryContent:
				return respond(fmt.Sprintf("transcript of %d bytes (%s)", len(p.Data), p.MIMEType)), nil
			case llms.TextContent:
				text.WriteString(p.Text)
			}
		}
	}

	if opts.JSONMode {
		body, err := json.Marshal(map[string]any{"entities": CapitalizedEntities(text.String(), 5)})
		if err != nil {
			return nil, err
		}
		return respond(string(body)), nil
	}
	return respond(fmt.Sprintf("mock answer for a %d character prompt", text.Len())), nil
}

// Call implements the single-prompt form of llms.Model.
func (c *Client) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c, prompt, options...)
}

// CreateEmbedding returns deterministic vectors for texts.
func (c *Client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.backend.record(c.credential); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = Vector(t)
	}
	return vectors, nil
}

func respond(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}
}
