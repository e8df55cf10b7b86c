package mock

import "github.com/Blessan-Alex/MalRag/ai"

type MockProvider struct {
	embedder    *MockEmbedder
	extractor   *MockEntityExtractor
	completer   *MockCompleter
	transcriber *MockTranscriber
}

var _ ai.AIProvider = (*MockProvider)(nil)

func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:    NewMockEmbedder(),
		extractor:   NewMockEntityExtractor(),
		completer:   NewMockCompleter(),
		transcriber: NewMockTranscriber(),
	}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) EntityExtractor() ai.EntityExtractor {
	return p.extractor
}

func (p *MockProvider) Completer() ai.Completer {
	return p.completer
}

func (p *MockProvider) Transcriber() ai.Transcriber {
	return p.transcriber
}

func (p *MockProvider) Close() error {
	return nil
}

func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

func (p *MockProvider) GetMockExtractor() *MockEntityExtractor {
	return p.extractor
}

func (p *MockProvider) GetMockCompleter() *MockCompleter {
	return p.completer
}

func (p *MockProvider) GetMockTranscriber() *MockTranscriber {
	return p.transcriber
}
