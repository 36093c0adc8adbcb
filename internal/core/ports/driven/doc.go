// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Converts text to fixed-dimension vectors
//   - VectorIndex / IndexBuilder: Exact cosine search over normalised vectors
//   - IndexStore: Persists the index/metadata pair and reloads it as a unit
//   - RecordReader / RecordWriter: JSONL record files
//   - ConfigStore: Application configuration
//   - RunStore: Reindex run history
//
// # Optional Interfaces
//
//   - ProgressReporter: Bulk embedding progress. Nil disables reporting.
//   - SourceWatcher: Change notifications for the reindex source.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
