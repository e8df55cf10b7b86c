package badger

import (
	"encoding/binary"

	"github.com/Blessan-Alex/MalRag/core"
)

// Key prefixes for different data types
const (
	chunkPrefix    = "chunk:"
	documentPrefix = "doc:"
)

// makeChunkKey generates a key for a chunk by ID.
// Format: prefix + 8 byte BigEndian ID
func makeChunkKey(id core.ID) []byte {
	buf := make([]byte, len(chunkPrefix)+8)
	offset := copy(buf, chunkPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeDocumentKey generates a key for a document entry by filename.
func makeDocumentKey(filename string) []byte {
	return []byte(documentPrefix + filename)
}
