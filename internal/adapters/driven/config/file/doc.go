// Package file provides the TOML-backed configuration store.
//
// Keys use dot notation in memory ("embedding.provider") and become
// TOML tables on disk:
//
//	[embedding]
//	provider = "ollama"
package file
