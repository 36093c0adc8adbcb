package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoQueryService indicates that no query service was provided.
	ErrNoQueryService = errors.New("query service is required")
)
