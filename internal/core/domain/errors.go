package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown embedding provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrIndexUnavailable indicates the persisted index or metadata is missing.
	// Queries cannot be served until a reindex has produced both files.
	ErrIndexUnavailable = errors.New("index not available")

	// ErrInconsistentIndex indicates the index and metadata disagree on row count.
	// The service refuses to become ready rather than serve misaligned results.
	ErrInconsistentIndex = errors.New("index and metadata are inconsistent")

	// ErrDimensionMismatch indicates vectors of differing dimensionality.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding provider failed or is unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrReindexInProgress indicates another reindex currently holds the rebuild slot.
	ErrReindexInProgress = errors.New("reindex in progress")

	// ErrNoValidRecords indicates a reindex source produced zero acceptable records.
	ErrNoValidRecords = errors.New("no valid records")
)

// ErrorKind is the stable, machine-readable classification of an error.
// It is what API surfaces report to clients.
type ErrorKind string

// Error kinds.
const (
	KindInvalidInput         ErrorKind = "invalid_input"
	KindNotFound             ErrorKind = "not_found"
	KindIndexUnavailable     ErrorKind = "index_unavailable"
	KindConsistencyViolation ErrorKind = "consistency_violation"
	KindDimensionMismatch    ErrorKind = "dimension_mismatch"
	KindProviderUnavailable  ErrorKind = "provider_unavailable"
	KindReindexInProgress    ErrorKind = "reindex_in_progress"
	KindNoValidRecords       ErrorKind = "no_valid_records"
	KindInternal             ErrorKind = "internal"
)

// KindOf classifies err by the first domain sentinel it wraps.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedType):
		return KindInvalidInput
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrIndexUnavailable):
		return KindIndexUnavailable
	case errors.Is(err, ErrInconsistentIndex):
		return KindConsistencyViolation
	case errors.Is(err, ErrDimensionMismatch):
		return KindDimensionMismatch
	case errors.Is(err, ErrEmbeddingUnavailable):
		return KindProviderUnavailable
	case errors.Is(err, ErrReindexInProgress):
		return KindReindexInProgress
	case errors.Is(err, ErrNoValidRecords):
		return KindNoValidRecords
	default:
		return KindInternal
	}
}
