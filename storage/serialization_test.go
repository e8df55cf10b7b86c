package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Blessan-Alex/MalRag/core"
)

func TestChunkSerialization(t *testing.T) {
	chunk := &core.Chunk{
		ID:        core.IDFromContent("hello"),
		Source:    "a.pdf",
		Position:  3,
		Text:      "hello",
		Vector:    []float32{0.5, 0.25},
		Entities:  []core.Entity{{Name: "Kerala", Type: "location"}},
		IndexedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	got, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)
	assert.Equal(t, chunk, got)
}

func TestDocumentSerialization_TruncatesToMicroseconds(t *testing.T) {
	recorded := time.Date(2025, 3, 1, 10, 30, 0, 123456789, time.UTC)
	doc := &core.Document{
		Filename:        "notes.md",
		FirstRecordedAt: recorded,
		RecordedAt:      recorded.Add(time.Hour),
		Count:           2,
	}

	got, err := UnmarshalDocument(MarshalDocument(doc))
	require.NoError(t, err)
	assert.Equal(t, "notes.md", got.Filename)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, recorded.Truncate(time.Microsecond), got.FirstRecordedAt)
	assert.Equal(t, time.UTC, got.RecordedAt.Location())
}

func TestIDSerialization(t *testing.T) {
	id := core.IDFromContent("chunk text")
	got, err := UnmarshalID(MarshalID(id))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestUnmarshal_Errors(t *testing.T) {
	_, err := UnmarshalChunk(nil)
	assert.ErrorIs(t, err, ErrTruncatedData)

	doc := MarshalDocument(&core.Document{Filename: "a-long-file-name.txt", Count: 1})
	_, err = UnmarshalDocument(doc[:3])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
