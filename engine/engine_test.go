package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blessan-Alex/MalRag/ai/mock"
	"github.com/Blessan-Alex/MalRag/core"
	"github.com/Blessan-Alex/MalRag/storage"
	"github.com/Blessan-Alex/MalRag/storage/badger"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, storage.ChunkIndex, *mock.MockProvider) {
	t.Helper()
	registry, index, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		registry.Close()
		backend.Close()
	})

	provider := mock.NewMockProvider()
	e, err := New(index, provider, opts...)
	require.NoError(t, err)
	return e, index, provider
}

type stageRecorder struct {
	mu     sync.Mutex
	stages []core.Stage
}

func (r *stageRecorder) record(_ context.Context, stage core.Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *stageRecorder) seen() []core.Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Stage(nil), r.stages...)
}

func TestNew(t *testing.T) {
	_, index, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		index.Close()
		backend.Close()
	}()
	provider := mock.NewMockProvider()

	t.Run("nil index", func(t *testing.T) {
		_, err := New(nil, provider)
		assert.Equal(t, ErrChunkIndexRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := New(index, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})

	t.Run("invalid chunk size", func(t *testing.T) {
		_, err := New(index, provider, WithChunkSize(100, 100))
		assert.Error(t, err)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		e, err := New(index, provider, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, e.logger)
	})
}

func TestIngest_EmitsStagesInOrder(t *testing.T) {
	e, index, _ := newTestEngine(t)
	rec := &stageRecorder{}

	err := e.Ingest(context.Background(), "notes.txt", "Alice met Bob in Paris.", rec.record)
	require.NoError(t, err)

	assert.Equal(t, []core.Stage{
		core.StageChunking,
		core.StageEmbedding,
		core.StageExtractingEntities,
		core.StageIndexing,
	}, rec.seen())

	count, err := index.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngest_StoresEnrichedChunks(t *testing.T) {
	e, index, _ := newTestEngine(t)
	text := "Alice met Bob in Paris."

	require.NoError(t, e.Ingest(context.Background(), "notes.txt", text, nil))

	chunk, err := index.GetChunk(context.Background(), core.IDFromContent(text))
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", chunk.Source)
	assert.Equal(t, 0, chunk.Position)
	assert.Len(t, chunk.Vector, mock.Dimensions)
	assert.Contains(t, chunk.Entities, core.Entity{Name: "Paris", Type: "concept"})
	assert.False(t, chunk.IndexedAt.IsZero())
}

func TestIngest_SplitsAndBatches(t *testing.T) {
	e, index, provider := newTestEngine(t, WithChunkSize(60, 0), WithBatchSize(2))

	var sentences []string
	for i := range 12 {
		sentences = append(sentences, strings.Repeat("word ", 4)+string(rune('a'+i)))
	}
	text := strings.Join(sentences, "\n\n")

	require.NoError(t, e.Ingest(context.Background(), "long.txt", text, nil))

	count, err := index.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Greater(t, count, 1)

	// One EmbedTexts call per batch of two.
	expectedCalls := (count + 1) / 2
	assert.Equal(t, expectedCalls, provider.GetMockEmbedder().CallCount())
}

func TestIngest_EmptyText(t *testing.T) {
	e, _, provider := newTestEngine(t)
	rec := &stageRecorder{}

	err := e.Ingest(context.Background(), "blank.txt", "   \n\t ", rec.record)
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Empty(t, rec.seen())
	assert.Equal(t, 0, provider.GetMockEmbedder().CallCount())
}

func TestIngest_EmbeddingFailure(t *testing.T) {
	e, index, provider := newTestEngine(t)
	boom := errors.New("quota exceeded")
	provider.GetMockEmbedder().EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, boom
	}
	rec := &stageRecorder{}

	err := e.Ingest(context.Background(), "notes.txt", "Some text.", rec.record)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []core.Stage{core.StageChunking, core.StageEmbedding}, rec.seen())

	count, err := index.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngest_EmbeddingCountMismatch(t *testing.T) {
	e, _, provider := newTestEngine(t)
	provider.GetMockEmbedder().EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return [][]float32{}, nil
	}

	err := e.Ingest(context.Background(), "notes.txt", "Some text.", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestIngest_WithoutEntities(t *testing.T) {
	e, index, provider := newTestEngine(t, WithoutEntities())
	rec := &stageRecorder{}
	text := "Alice met Bob in Paris."

	require.NoError(t, e.Ingest(context.Background(), "notes.txt", text, rec.record))
	assert.Contains(t, rec.seen(), core.StageExtractingEntities)
	assert.Equal(t, 0, provider.GetMockExtractor().CallCount())

	chunk, err := index.GetChunk(context.Background(), core.IDFromContent(text))
	require.NoError(t, err)
	assert.Empty(t, chunk.Entities)
}

func TestQuery(t *testing.T) {
	e, _, provider := newTestEngine(t)
	ctx := context.Background()
	text := "The quarterly report shows revenue growth in Europe."
	require.NoError(t, e.Ingest(ctx, "report.pdf", text, nil))

	t.Run("answers from retrieved context", func(t *testing.T) {
		answer, err := e.Query(ctx, text, QueryOptions{MinScore: 0.99})
		require.NoError(t, err)
		require.Len(t, answer.Sources, 1)
		assert.Equal(t, "report.pdf", answer.Sources[0].Source)
		assert.Contains(t, answer.Context, "revenue growth")
		assert.NotEmpty(t, answer.Answer)

		prompts := provider.GetMockCompleter().Prompts()
		require.NotEmpty(t, prompts)
		assert.Contains(t, prompts[len(prompts)-1], "revenue growth")
	})

	t.Run("only context skips completion", func(t *testing.T) {
		before := len(provider.GetMockCompleter().Prompts())
		answer, err := e.Query(ctx, text, QueryOptions{Mode: ModeNaive, MinScore: 0.99, OnlyContext: true})
		require.NoError(t, err)
		assert.Empty(t, answer.Answer)
		assert.NotEmpty(t, answer.Context)
		assert.Equal(t, before, len(provider.GetMockCompleter().Prompts()))
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := e.Query(ctx, "  ", QueryOptions{})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := e.Query(ctx, "revenue", QueryOptions{Mode: "telepathy"})
		assert.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("completion failure", func(t *testing.T) {
		provider.GetMockCompleter().CompleteFunc = func(context.Context, string) (string, error) {
			return "", errors.New("model overloaded")
		}
		defer func() { provider.GetMockCompleter().CompleteFunc = nil }()

		_, err := e.Query(ctx, text, QueryOptions{})
		assert.ErrorContains(t, err, "model overloaded")
	})
}

func TestQuery_EntityBoostReorders(t *testing.T) {
	e, _, provider := newTestEngine(t)
	ctx := context.Background()

	// Every text embeds to the same vector so similarity ties and only
	// entity matches can separate the results.
	flat := mock.Vector("constant")
	provider.GetMockEmbedder().EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return flat, nil
	}
	provider.GetMockEmbedder().EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = flat
		}
		return out, nil
	}

	require.NoError(t, e.Ingest(ctx, "b.txt", "cities are old.", nil))
	require.NoError(t, e.Ingest(ctx, "a.txt", "Rome is old.", nil))

	answer, err := e.Query(ctx, "Rome", QueryOptions{Mode: ModeHybrid, Limit: 2, OnlyContext: true})
	require.NoError(t, err)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "a.txt", answer.Sources[0].Source)
	assert.Greater(t, answer.Sources[0].Score, answer.Sources[1].Score)
}
