// Package reembed re-embeds the stored chunks of a collection with the
// current embedding model.
//
// Chunks are read in chunk ID order, embedded in batches with retry and
// exponential backoff, normalized to unit length and written back. Progress
// is reported to a writer and, when a checkpoint repository is configured,
// persisted after every batch so an interrupted run resumes where it stopped.
package reembed
