// Package normalisers provides implementations of the Normaliser interface
// for local text formats. Each normaliser knows how to extract text from
// files with specific extensions.
//
// Normalisers are registered with a Registry at startup.
package normalisers
