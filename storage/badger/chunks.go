// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
	"github.com/poiesic/lexis/vector"
)

// ChunkStore implements storage.VectorStore for BadgerDB. Vector queries
// scan every chunk of the collection and rank by exact cosine distance,
// which is adequate for corpora of a few hundred thousand chunks.
type ChunkStore struct {
	backend  *Backend
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ storage.VectorStore = (*ChunkStore)(nil)

// ChunkStoreOption configures a ChunkStore.
type ChunkStoreOption func(*ChunkStore) error

// WithEmbedder sets the embedder used for text queries. Without one, text
// queries are answered by lexical term overlap.
func WithEmbedder(embedder ai.Embedder) ChunkStoreOption {
	return func(s *ChunkStore) error {
		s.embedder = embedder
		return nil
	}
}

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) ChunkStoreOption {
	return func(s *ChunkStore) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewChunkStore creates a ChunkStore on an open backend. The backend is
// owned by the caller.
func NewChunkStore(backend *Backend, opts ...ChunkStoreOption) (*ChunkStore, error) {
	s := &ChunkStore{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "chunk_store")
	return s, nil
}

// Close is a no-op; the backend is closed by its owner.
func (s *ChunkStore) Close() error {
	return nil
}

// Upsert inserts or replaces chunks by ID.
func (s *ChunkStore) Upsert(ctx context.Context, collection string, chunks ...*core.Chunk) error {
	if err := storage.ValidateCollection(collection); err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := tx.Set(makeChunkKey(collection, chunk.ID), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Query ranks the chunks of a collection against the request.
func (s *ChunkStore) Query(ctx context.Context, collection string, req storage.QueryRequest) ([]storage.Hit, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	queryVector := req.Vector
	if len(queryVector) == 0 && s.embedder != nil {
		v, err := s.embedder.EmbedText(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		queryVector = v
	}

	var score func(c *core.Chunk) (float64, bool)
	if len(queryVector) > 0 {
		score = func(c *core.Chunk) (float64, bool) {
			if len(c.Embedding) != len(queryVector) {
				return 0, false
			}
			return vector.CosineDistance(queryVector, c.Embedding), true
		}
	} else {
		terms := storage.QueryTerms(req.Text)
		score = func(c *core.Chunk) (float64, bool) {
			return storage.LexicalDistance(terms, c.Text)
		}
	}

	var hits []storage.Hit
	skipped := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return scan(ctx, tx, makeCollectionPrefix(collection), nil, func(item *badger.Item) (bool, error) {
			chunk, err := readChunk(item)
			if err != nil {
				return false, err
			}
			if !req.Filter.Matches(chunk) {
				return true, nil
			}
			distance, ok := score(chunk)
			if !ok {
				if len(queryVector) > 0 {
					skipped++
				}
				return true, nil
			}
			hits = append(hits, storage.Hit{Chunk: chunk, Distance: distance})
			return true, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.logger.Debug("chunks without comparable embedding skipped", "collection", collection, "skipped", skipped)
	}

	slices.SortFunc(hits, func(a, b storage.Hit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Chunk.ID, b.Chunk.ID)
	})
	if len(hits) > req.TopK {
		hits = hits[:req.TopK]
	}
	return hits, nil
}

// GetByIDs returns the chunks that exist, in the order of ids.
func (s *ChunkStore) GetByIDs(ctx context.Context, collection string, ids ...string) ([]*core.Chunk, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}
	chunks := make([]*core.Chunk, 0, len(ids))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeChunkKey(collection, id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			chunk, err := readChunk(item)
			if err != nil {
				return err
			}
			chunks = append(chunks, chunk)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// Delete removes chunks by ID in one transaction. Missing IDs are ignored.
func (s *ChunkStore) Delete(ctx context.Context, collection string, ids ...string) (int, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	removed := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := makeChunkKey(collection, id)
			if _, err := tx.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// DeleteDocument removes every chunk of a document.
func (s *ChunkStore) DeleteDocument(ctx context.Context, collection, documentID string) (int, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return 0, err
	}
	if err := core.ValidateDocumentID(documentID); err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidDocument, err)
	}

	var keys [][]byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return scan(ctx, tx, makeDocumentChunksPrefix(collection, documentID), nil, func(item *badger.Item) (bool, error) {
			keys = append(keys, item.KeyCopy(nil))
			return true, nil
		})
	}, false)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	// WriteBatch splits large deletes across transactions.
	batch := s.backend.db.NewWriteBatch()
	defer batch.Cancel()
	for _, key := range keys {
		if err := batch.Delete(key); err != nil {
			return 0, storage.Unavailable(err)
		}
	}
	if err := batch.Flush(); err != nil {
		return 0, storage.Unavailable(err)
	}
	return len(keys), nil
}

// ListChunks pages through a collection in chunk ID order.
func (s *ChunkStore) ListChunks(ctx context.Context, collection, afterID string, limit int) ([]*core.Chunk, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}

	prefix := makeCollectionPrefix(collection)
	var seek, after []byte
	if afterID != "" {
		after = makeChunkKey(collection, afterID)
		seek = after
	}

	var chunks []*core.Chunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		return scan(ctx, tx, prefix, seek, func(item *badger.Item) (bool, error) {
			if after != nil && bytes.Equal(item.Key(), after) {
				return true, nil
			}
			chunk, err := readChunk(item)
			if err != nil {
				return false, err
			}
			chunks = append(chunks, chunk)
			return limit <= 0 || len(chunks) < limit, nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// Count returns the number of chunks in a collection.
func (s *ChunkStore) Count(ctx context.Context, collection string) (int, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return 0, err
	}
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	}, false)
	return count, err
}

func readChunk(item *badger.Item) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", item.Key(), err)
	}
	return chunk, nil
}
