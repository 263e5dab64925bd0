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


// Package pgvector implements the storage interfaces on PostgreSQL with the
// pgvector extension.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/lexis/ai"
	"github.com/poiesic/lexis/core"
	"github.com/poiesic/lexis/storage"
)

// DefaultTextSearchConfig is the PostgreSQL text search configuration used
// for lexical queries.
const DefaultTextSearchConfig = "german"

// Store implements storage.VectorStore, storage.DocumentRepository and
// storage.CheckpointRepository.
type Store struct {
	pool       *pgxpool.Pool
	embedder   ai.Embedder
	textConfig string
	logger     *slog.Logger
}

var (
	_ storage.VectorStore          = (*Store)(nil)
	_ storage.DocumentRepository   = (*Store)(nil)
	_ storage.CheckpointRepository = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store) error

// WithEmbedder sets the embedder used for text queries. Without one, text
// queries use PostgreSQL full text search.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(s *Store) error {
		s.embedder = embedder
		return nil
	}
}

// WithTextSearchConfig sets the text search configuration ("german", "simple", ...).
func WithTextSearchConfig(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return errors.New("text search config cannot be empty")
		}
		s.textConfig = name
		return nil
	}
}

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New connects to PostgreSQL and creates the schema if needed.
func New(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	s := &Store{
		textConfig: DefaultTextSearchConfig,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "pgvector_store")

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", storage.ErrStoreUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", storage.ErrStoreUnavailable, err)
	}
	s.pool = pool

	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS lexis_chunks (
	collection      TEXT NOT NULL,
	chunk_id        TEXT NOT NULL,
	segment_id      TEXT NOT NULL,
	document_id     TEXT NOT NULL,
	level           SMALLINT NOT NULL,
	section_type    INTEGER NOT NULL,
	start_char      INTEGER NOT NULL,
	end_char        INTEGER NOT NULL,
	text            TEXT NOT NULL,
	token_count     INTEGER NOT NULL,
	coherence_score DOUBLE PRECISION NOT NULL,
	legal_norms     TEXT[] NOT NULL DEFAULT '{}',
	keywords        TEXT[] NOT NULL DEFAULT '{}',
	embedding       vector,
	PRIMARY KEY (collection, chunk_id)
);

CREATE INDEX IF NOT EXISTS lexis_chunks_document_idx ON lexis_chunks (collection, document_id);

CREATE TABLE IF NOT EXISTS lexis_documents (
	id     TEXT PRIMARY KEY,
	record BYTEA NOT NULL
);

CREATE TABLE IF NOT EXISTS lexis_checkpoints (
	processor  TEXT NOT NULL,
	collection TEXT NOT NULL,
	record     BYTEA NOT NULL,
	PRIMARY KEY (processor, collection)
);
`

// EnsureSchema creates the extension, tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: schema: %w", storage.ErrStoreUnavailable, err)
	}
	return nil
}

const upsertChunk = `
INSERT INTO lexis_chunks (collection, chunk_id, segment_id, document_id, level, section_type,
	start_char, end_char, text, token_count, coherence_score, legal_norms, keywords, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (collection, chunk_id) DO UPDATE SET
	segment_id = EXCLUDED.segment_id,
	document_id = EXCLUDED.document_id,
	level = EXCLUDED.level,
	section_type = EXCLUDED.section_type,
	start_char = EXCLUDED.start_char,
	end_char = EXCLUDED.end_char,
	text = EXCLUDED.text,
	token_count = EXCLUDED.token_count,
	coherence_score = EXCLUDED.coherence_score,
	legal_norms = EXCLUDED.legal_norms,
	keywords = EXCLUDED.keywords,
	embedding = EXCLUDED.embedding`

// Upsert inserts or replaces chunks in one batch.
func (s *Store) Upsert(ctx context.Context, collection string, chunks ...*core.Chunk) error {
	if err := storage.ValidateCollection(collection); err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		var embedding *pgvector.Vector
		if len(c.Embedding) > 0 {
			v := pgvector.NewVector(c.Embedding)
			embedding = &v
		}
		batch.Queue(upsertChunk,
			collection, c.ID, c.SegmentID, c.DocumentID, int16(c.Level), int32(c.SectionType),
			int32(c.StartChar), int32(c.EndChar), c.Text, int32(c.TokenCount), c.CoherenceScore,
			nonNil(c.LegalNorms), nonNil(c.Keywords), embedding)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return storage.Unavailable(err)
	}
	return nil
}

const chunkColumns = `chunk_id, segment_id, document_id, level, section_type, start_char, end_char,
	text, token_count, coherence_score, legal_norms, keywords, embedding`

// filterClause matches rows against optional filter arrays $2..$4; NULL
// arrays match everything.
const filterClause = `collection = $1
	AND ($2::int[] IS NULL OR section_type = ANY($2))
	AND ($3::text[] IS NULL OR document_id = ANY($3))
	AND ($4::text[] IS NULL OR legal_norms && $4)`

// Query ranks chunks by cosine distance, or by full text rank for text
// queries without an embedder.
func (s *Store) Query(ctx context.Context, collection string, req storage.QueryRequest) ([]storage.Hit, error) {
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

	sections, documents, norms := filterArgs(req.Filter)
	var (
		rows pgx.Rows
		err  error
	)
	if len(queryVector) > 0 {
		rows, err = s.pool.Query(ctx, `
SELECT `+chunkColumns+`, embedding <=> $5 AS distance
FROM lexis_chunks
WHERE `+filterClause+`
	AND embedding IS NOT NULL AND vector_dims(embedding) = $6
ORDER BY distance, chunk_id
LIMIT $7`,
			collection, sections, documents, norms, pgvector.NewVector(queryVector), len(queryVector), req.TopK)
	} else {
		// ts_rank normalization 32 maps the rank into [0, 1).
		rows, err = s.pool.Query(ctx, `
SELECT `+chunkColumns+`, 1 - ts_rank(to_tsvector($5::regconfig, text), plainto_tsquery($5::regconfig, $6), 32) AS distance
FROM lexis_chunks
WHERE `+filterClause+`
	AND to_tsvector($5::regconfig, text) @@ plainto_tsquery($5::regconfig, $6)
ORDER BY distance, chunk_id
LIMIT $7`,
			collection, sections, documents, norms, s.textConfig, req.Text, req.TopK)
	}
	if err != nil {
		return nil, storage.Unavailable(err)
	}
	defer rows.Close()

	var hits []storage.Hit
	for rows.Next() {
		var distance float64
		chunk, err := scanChunk(rows, &distance)
		if err != nil {
			return nil, err
		}
		hits = append(hits, storage.Hit{Chunk: chunk, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable(err)
	}
	return hits, nil
}

// GetByIDs returns the chunks that exist, in the order of ids.
func (s *Store) GetByIDs(ctx context.Context, collection string, ids ...string) ([]*core.Chunk, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*core.Chunk{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+chunkColumns+` FROM lexis_chunks WHERE collection = $1 AND chunk_id = ANY($2)`,
		collection, ids)
	if err != nil {
		return nil, storage.Unavailable(err)
	}
	defer rows.Close()

	byID := make(map[string]*core.Chunk, len(ids))
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		byID[chunk.ID] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable(err)
	}

	chunks := make([]*core.Chunk, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// Delete removes chunks by ID.
func (s *Store) Delete(ctx context.Context, collection string, ids ...string) (int, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM lexis_chunks WHERE collection = $1 AND chunk_id = ANY($2)`, collection, ids)
	if err != nil {
		return 0, storage.Unavailable(err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteDocument removes every chunk of a document.
func (s *Store) DeleteDocument(ctx context.Context, collection, documentID string) (int, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return 0, err
	}
	if err := core.ValidateDocumentID(documentID); err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrInvalidDocument, err)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM lexis_chunks WHERE collection = $1 AND document_id = $2`, collection, documentID)
	if err != nil {
		return 0, storage.Unavailable(err)
	}
	return int(tag.RowsAffected()), nil
}

// ListChunks pages through a collection in chunk ID order.
func (s *Store) ListChunks(ctx context.Context, collection, afterID string, limit int) ([]*core.Chunk, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return nil, err
	}
	var rowLimit *int
	if limit > 0 {
		rowLimit = &limit
	}
	// COLLATE "C" keeps the order byte-wise, matching Go string comparison.
	rows, err := s.pool.Query(ctx, `
SELECT `+chunkColumns+` FROM lexis_chunks
WHERE collection = $1 AND chunk_id COLLATE "C" > $2
ORDER BY chunk_id COLLATE "C"
LIMIT $3`, collection, afterID, rowLimit)
	if err != nil {
		return nil, storage.Unavailable(err)
	}
	defer rows.Close()

	var chunks []*core.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable(err)
	}
	return chunks, nil
}

// Count returns the number of chunks in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := storage.ValidateCollection(collection); err != nil {
		return 0, err
	}
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM lexis_chunks WHERE collection = $1`, collection).Scan(&count); err != nil {
		return 0, storage.Unavailable(err)
	}
	return int(count), nil
}

// SaveDocument inserts or replaces a document record.
func (s *Store) SaveDocument(ctx context.Context, record *core.DocumentRecord) error {
	if record == nil {
		return core.ErrInvalidDocument
	}
	if err := core.ValidateDocumentID(record.ID); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidDocument, err)
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO lexis_documents (id, record) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record`,
		record.ID, storage.MarshalDocumentRecord(record))
	return storage.Unavailable(err)
}

// GetDocument retrieves a document record by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*core.DocumentRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT record FROM lexis_documents WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, storage.Unavailable(err)
	}
	return storage.UnmarshalDocumentRecord(data)
}

// ListDocuments returns all document records in ID order.
func (s *Store) ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT record FROM lexis_documents ORDER BY id COLLATE "C"`)
	if err != nil {
		return nil, storage.Unavailable(err)
	}
	defer rows.Close()

	var records []*core.DocumentRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storage.Unavailable(err)
		}
		record, err := storage.UnmarshalDocumentRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable(err)
	}
	return records, nil
}

// scanChunk reads the chunk columns of the current row. Extra destinations
// receive the columns following them.
func scanChunk(rows pgx.Rows, extra ...any) (*core.Chunk, error) {
	var (
		c                           core.Chunk
		level                       int16
		section, start, end, tokens int32
		embedding                   *pgvector.Vector
	)
	dest := []any{
		&c.ID, &c.SegmentID, &c.DocumentID, &level, &section, &start, &end,
		&c.Text, &tokens, &c.CoherenceScore, &c.LegalNorms, &c.Keywords, &embedding,
	}
	if err := rows.Scan(append(dest, extra...)...); err != nil {
		return nil, storage.Unavailable(err)
	}
	c.Level = core.Level(level)
	c.SectionType = core.SectionType(section)
	c.StartChar = int(start)
	c.EndChar = int(end)
	c.TokenCount = int(tokens)
	if len(c.LegalNorms) == 0 {
		c.LegalNorms = nil
	}
	if len(c.Keywords) == 0 {
		c.Keywords = nil
	}
	if embedding != nil {
		c.Embedding = embedding.Slice()
	}
	return &c, nil
}

// filterArgs converts a filter into nullable array parameters.
func filterArgs(f *core.Filter) (sections []int32, documents, norms []string) {
	if f.IsEmpty() {
		return nil, nil, nil
	}
	for _, st := range f.SectionTypes {
		sections = append(sections, int32(st))
	}
	if len(f.DocumentIDs) > 0 {
		documents = f.DocumentIDs
	}
	if len(f.LegalNorms) > 0 {
		norms = f.LegalNorms
	}
	return sections, documents, norms
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
