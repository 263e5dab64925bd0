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

// Package ai provides abstractions for the AI services used by lexis.
//
// The core components depend on the Embedder and TokenCounter interfaces
// rather than on a concrete provider. Embedders are injected into every
// component at construction time; there is no package-level model.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embedding APIs (Ollama, vLLM, OpenAI)
//   - ai/mock: deterministic test doubles
//   - ai/tiktoken: exact token counts with BPE encodings
//
// # Decorators
//
// Provider embedders are wrapped by Decorate:
//
//   - RetryingEmbedder: bounded retries with exponential backoff and a
//     timeout per attempt
//   - ThrottledEmbedder: batching and a bound on in-flight requests
//   - CachingEmbedder: an in-memory cache keyed by text
//
// # Failing Closed
//
// Embedders never return silent zero vectors. CheckEmbeddings rejects
// empty, all-zero and mis-sized vectors and mismatched counts; all such
// failures wrap ErrEmbeddingProvider.
package ai
