package mock

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/Blessan-Alex/MalRag/ai"
)

// MockEntityExtractor is a test double for ai.EntityExtractor.
// It allows custom behavior injection via function fields.
type MockEntityExtractor struct {
	// ExtractEntitiesFunc is called by ExtractEntities if set.
	// If nil, capitalized words are reported as entities.
	ExtractEntitiesFunc func(ctx context.Context, text string) ([]ai.ExtractedEntity, error)

	mu        sync.Mutex
	callCount int
}

// NewMockEntityExtractor creates a mock entity extractor with default behavior.
func NewMockEntityExtractor() *MockEntityExtractor {
	return &MockEntityExtractor{}
}

// ExtractEntities returns mock entities for text.
func (m *MockEntityExtractor) ExtractEntities(ctx context.Context, text string) ([]ai.ExtractedEntity, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractEntitiesFunc != nil {
		return m.ExtractEntitiesFunc(ctx, text)
	}
	return CapitalizedEntities(text, 5), nil
}

// CallCount returns the number of times ExtractEntities was called.
func (m *MockEntityExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// CapitalizedEntities reports up to limit distinct capitalized words in
// text as entities of type "concept".
func CapitalizedEntities(text string, limit int) []ai.ExtractedEntity {
	entities := []ai.ExtractedEntity{}
	seen := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		if len(entities) >= limit {
			break
		}
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" || seen[word] {
			continue
		}
		if r := []rune(word)[0]; !unicode.IsUpper(r) {
			continue
		}
		seen[word] = true
		entities = append(entities, ai.ExtractedEntity{Name: word, Type: "concept"})
	}
	return entities
}
