package badger

import (
	"fmt"
)

// Key prefixes for different data types
const (
	chunkPrefix      = "chunk"
	documentPrefix   = "docrec"
	checkpointPrefix = "chkpt"
)

// makeChunkKey generates a key for a chunk.
// Format: chunk:collection:chunkID
func makeChunkKey(collection, chunkID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", chunkPrefix, collection, chunkID))
}

// makeCollectionPrefix generates the prefix shared by all chunks of a collection.
func makeCollectionPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, collection))
}

// makeDocumentChunksPrefix generates the prefix shared by all chunks of one
// document. Document IDs cannot contain ':', so the prefix never matches
// chunks of another document.
func makeDocumentChunksPrefix(collection, documentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", chunkPrefix, collection, documentID))
}

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentPrefix, id))
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processor, collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", checkpointPrefix, processor, collection))
}
