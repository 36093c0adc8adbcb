// Package file provides filesystem implementations of the record and index ports.
//
// Adapters:
//   - RecordStore: JSONL record reader and writer
//   - IndexStore: binary vector index plus JSONL metadata sidecar
//
// Every file is written to a temporary sibling and renamed into place so a
// reader never observes a half-written file.
package file
