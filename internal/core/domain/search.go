package domain

// DefaultTopK is the number of results returned when a query does not say.
const DefaultTopK = 5

// QueryOptions configures a single lookup.
type QueryOptions struct {
	// TopK is the maximum number of results. Zero or negative uses the default.
	TopK int
}

// SearchHit is one ranked match with its reconciled metadata.
type SearchHit struct {
	// Record is the metadata co-indexed with the matched vector row.
	Record ChunkRecord

	// Row is the vector index row that matched.
	Row int

	// Score is the unclamped cosine similarity in [-1, 1].
	Score float64
}

// QueryResult is the ranked outcome of a query.
// An empty Sources slice is a valid result, not an error.
type QueryResult struct {
	// Answer is the best match, nil when nothing matched.
	Answer *SearchHit

	// Sources are the matches in descending score order.
	Sources []SearchHit
}
