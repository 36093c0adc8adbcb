// Package validator enforces the minimal record schema before records reach the index.
package validator

import (
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/logger"
)

// MinTextChars is the minimum normalised text length of an accepted record.
const MinTextChars = 30

// Outcome is the result of validating a single record: either Record is
// set, or Reason says why it was refused.
type Outcome struct {
	Record *domain.ChunkRecord
	Reason domain.RejectReason
}

// Accepted reports whether the record passed validation.
func (o Outcome) Accepted() bool {
	return o.Record != nil
}

// Validator checks raw records. The zero value is not usable; call New.
type Validator struct {
	minText int
	now     func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the clock used for defaulted dates.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithMinText overrides the minimum text length.
func WithMinText(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.minText = n
		}
	}
}

// New creates a validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		minText: MinTextChars,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate normalises raw and checks the required fields.
// A missing or malformed date defaults to today (UTC) instead of failing.
func (v *Validator) Validate(raw domain.RawRecord) Outcome {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return Outcome{Reason: domain.RejectMissingID}
	}

	source := strings.TrimSpace(raw.SourceURL)
	if !isURI(source) {
		return Outcome{Reason: domain.RejectInvalidSource}
	}

	text := domain.NormalizeText(raw.Text)
	if domain.CharLen(text) < v.minText {
		return Outcome{Reason: domain.RejectTextTooShort}
	}

	return Outcome{Record: &domain.ChunkRecord{
		ID:          id,
		SourceID:    source,
		Region:      domain.NormalizeText(raw.Region),
		Title:       strings.TrimSpace(raw.Title),
		Text:        text,
		DateFetched: v.parseDate(raw.DateFetched),
	}}
}

// ValidateAll validates a batch. Ids must be unique within the batch;
// later duplicates are rejected. A bad record never aborts the batch.
func (v *Validator) ValidateAll(raws []domain.RawRecord) *domain.ValidationReport {
	report := &domain.ValidationReport{
		Accepted: make([]domain.ChunkRecord, 0, len(raws)),
		Rejected: make(map[domain.RejectReason]int),
		Total:    len(raws),
	}
	seen := make(map[string]struct{}, len(raws))

	for i := range raws {
		out := v.Validate(raws[i])
		if out.Accepted() {
			if _, dup := seen[out.Record.ID]; dup {
				out = Outcome{Reason: domain.RejectDuplicateID}
			} else {
				seen[out.Record.ID] = struct{}{}
			}
		}

		if !out.Accepted() {
			report.Rejected[out.Reason]++
			logger.Debug("validator: rejected record %d (id=%q): %s", i, raws[i].ID, out.Reason)
			continue
		}
		report.Accepted = append(report.Accepted, *out.Record)
	}

	if n := report.RejectedCount(); n > 0 {
		logger.Info("validator: accepted %d of %d records, rejected %d", len(report.Accepted), report.Total, n)
	}
	return report
}

func (v *Validator) parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return truncateDay(t.UTC())
	}
	return truncateDay(v.now().UTC())
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isURI reports whether s parses as an absolute URI.
func isURI(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != "" || u.Path != ""
}
