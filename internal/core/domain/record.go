package domain

import "time"

// DateLayout is the calendar-date wire format for date_fetched.
const DateLayout = "2006-01-02"

// SourceText is decoded document text ready for chunking.
// Producing it (fetching, markup stripping) is an upstream concern.
type SourceText struct {
	// Text is the document body. The chunker normalises whitespace itself.
	Text string

	// SourceID identifies the originating document, typically a URL.
	SourceID string

	// Region is free-form provenance metadata.
	Region string

	// Title is the optional human-readable title.
	Title string

	// DateFetched is when the content was retrieved. Zero means unknown.
	DateFetched time.Time
}

// RawRecord is an untrusted record as read from a JSONL file.
// Every field is kept as text; the validator decides what it means.
type RawRecord struct {
	ID          string
	SourceURL   string
	Region      string
	Title       string
	Text        string
	DateFetched string
}

// ChunkRecord is a validated, retrievable unit of knowledge.
// Once accepted it is never mutated; the index references it by row.
type ChunkRecord struct {
	// ID is derived from (SourceID, offset) and unique within one index build.
	ID string

	// SourceID identifies the originating document (a URI).
	SourceID string

	// Region is optional provenance metadata.
	Region string

	// Title is the optional document title.
	Title string

	// Text is normalised content that meets the minimum length.
	Text string

	// DateFetched is a calendar date at UTC midnight.
	DateFetched time.Time
}

// Raw converts the record back to its wire shape.
func (r ChunkRecord) Raw() RawRecord {
	date := ""
	if !r.DateFetched.IsZero() {
		date = r.DateFetched.Format(DateLayout)
	}
	return RawRecord{
		ID:          r.ID,
		SourceURL:   r.SourceID,
		Region:      r.Region,
		Title:       r.Title,
		Text:        r.Text,
		DateFetched: date,
	}
}

// RejectReason explains why the validator refused a record.
type RejectReason string

// Rejection reasons.
const (
	RejectMissingID     RejectReason = "missing_id"
	RejectInvalidSource RejectReason = "invalid_source"
	RejectTextTooShort  RejectReason = "text_too_short"
	RejectDuplicateID   RejectReason = "duplicate_id"

	// RejectMalformed counts input lines that were not JSON objects.
	RejectMalformed RejectReason = "malformed"
)

// ValidationReport aggregates per-record outcomes for a batch.
type ValidationReport struct {
	// Accepted holds the valid records in input order.
	Accepted []ChunkRecord

	// Rejected counts refusals by reason.
	Rejected map[RejectReason]int

	// Total is the number of records inspected.
	Total int
}

// RejectedCount returns the total number of rejected records.
func (r *ValidationReport) RejectedCount() int {
	n := 0
	for _, c := range r.Rejected {
		n += c
	}
	return n
}
