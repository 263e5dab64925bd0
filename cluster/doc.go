// Package cluster groups the sentences of a segment into semantically
// coherent chunks (Level-2 retrieval units).
//
// Sentences are embedded in one batch and grouped greedily in document
// order: every sentence not yet consumed seeds a group, and later sentences
// join it while their similarity to the seed exceeds the threshold and the
// group stays within the maximum chunk size. Groups below the minimum size
// are dropped; only when no group survives is the whole segment packed into
// consecutive chunks.
//
// When sentence embeddings are unavailable the segment is chunked with a
// word-based sliding window instead, so ingestion never stops on a provider
// outage. Such chunks carry a coherence score of zero.
package cluster
