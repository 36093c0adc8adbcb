// Package memory provides in-memory implementations of driven ports.
// They back tests and runs where no history directory is configured;
// nothing survives the process.
package memory
