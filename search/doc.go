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


// Package search dispatches queries to retrieval strategies, fuses their
// candidates and ranks the result.
//
// Three strategies run against a storage.VectorStore:
//   - Semantic: the expanded query is embedded and the nearest chunks are
//     retrieved; store distance d becomes similarity 1/(1+d).
//   - Keyword: each of the top query keywords is issued as a text query and
//     the returned chunks are scored by keyword frequency.
//   - Hybrid: both run concurrently and their scores are fused.
//
// Every strategy call has its own timeout. When one strategy of a hybrid
// search fails, the other one still answers and the response is marked
// Degraded. Only validation errors are returned to callers; a canceled
// context yields no response.
//
// Example:
//
//	searcher, err := search.NewSearcher(store, embedder, search.WithCollection("opinions"))
//	resp, err := searcher.Search(ctx, &core.SearchRequest{Text: "Schadensersatz § 280 BGB", Limit: 10})
package search
