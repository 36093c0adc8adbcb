package driven

import "context"

// Normaliser turns the bytes of a local text file into plain text.
// Normalisers handle text formats only; binary and markup extraction
// happen upstream.
type Normaliser interface {
	// SupportedExtensions returns lower-case file extensions, with the dot.
	SupportedExtensions() []string

	// Priority breaks ties when two normalisers claim an extension.
	// Higher wins.
	Priority() int

	// Normalise extracts the title and body text of a file.
	Normalise(ctx context.Context, uri string, content []byte) (*NormaliseResult, error)
}

// NormaliseResult is the decoded text of one file.
type NormaliseResult struct {
	// Title is derived from the content or file name.
	Title string

	// Text is the body. Whitespace is not collapsed here; the chunker does that.
	Text string
}
