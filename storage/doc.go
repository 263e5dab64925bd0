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


// Package storage provides the storage abstraction layer for lexis.
//
// This package defines the interfaces that decouple persistence from the
// ingestion and retrieval pipelines. Two backends implement them:
//
//	badger.NewStores(backend)      // embedded BadgerDB, brute-force cosine search
//	pgvector.New(ctx, dsn, opts...) // PostgreSQL with the pgvector extension
//
// # Collections
//
// Chunks live in named collections so that a corpus can be re-embedded into
// a fresh collection while the old one keeps serving queries. Collection
// names must be non-empty and may not contain ':'.
//
// # Distances
//
// VectorStore.Query reports cosine distance (1 - cosine similarity). Callers
// convert distance to a similarity score; stores never rescale.
//
// # Error Handling
//
// Backend failures are wrapped with ErrStoreUnavailable so callers can
// degrade gracefully:
//
//	hits, err := store.Query(ctx, "opinions", req)
//	if errors.Is(err, storage.ErrStoreUnavailable) {
//		// Serve partial results
//	}
//
// Missing documents return ErrNotFound. Missing chunk IDs passed to
// GetByIDs are skipped.
//
// # Serialization
//
// Records are stored in MUS binary format via the codecs in package core.
package storage
