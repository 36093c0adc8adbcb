package driven

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// RecordReader loads raw records from a source location.
type RecordReader interface {
	// ReadRecords returns every record at path in file order.
	// Lines that are not JSON objects are skipped and counted in skipped.
	ReadRecords(ctx context.Context, path string) (records []domain.RawRecord, skipped int, err error)
}

// RecordWriter persists records to a destination.
type RecordWriter interface {
	// WriteRecords replaces the contents of path with records.
	WriteRecords(ctx context.Context, path string, records []domain.RawRecord) error
}
