// Package ingestion turns legal opinions into persisted, searchable chunks.
//
// The Pipeline runs every document of a batch on a worker pool:
//   - validate the document and compare its fingerprint with the stored record
//   - segment it into typed sections
//   - cluster the sections into embedded chunks, in parallel per segment
//   - replace any previously stored chunks of the document
//   - save the document record
//
// A failing document is recorded in the Report and never aborts the batch.
// Documents whose fingerprint is unchanged are skipped.
package ingestion
