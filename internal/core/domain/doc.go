// Package domain defines the core entities of the knowledge-base retrieval pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawRecord: An untrusted record as read from a JSONL source
//   - ChunkRecord: A validated, retrievable unit of knowledge
//   - SourceText: Decoded document text handed to the chunker
//   - QueryResult: Ranked lookup output with reconciled metadata
//   - ReindexRun: One execution of the rebuild pipeline
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
