// Package query enriches natural-language legal queries.
//
// A Processor normalizes the query text and extracts statutory citations
// ("§ 280 Abs. 1 BGB", "Art. 14 GG"), tags concepts from a small legal
// taxonomy, ranks keywords by frequency, proposes expansion terms from
// related concepts and suggests a legal-norm filter when citations were
// found. Processing performs no I/O.
package query
