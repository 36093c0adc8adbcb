package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/logger"
)

// Ensure RecordStore implements the interfaces.
var (
	_ driven.RecordReader = (*RecordStore)(nil)
	_ driven.RecordWriter = (*RecordStore)(nil)
)

// maxLineBytes bounds a single JSONL line.
const maxLineBytes = 16 << 20

// recordLine is the JSONL wire shape of a raw or clean record.
type recordLine struct {
	ID          string `json:"id"`
	SourceURL   string `json:"source_url"`
	Region      string `json:"region"`
	Title       string `json:"title,omitempty"`
	Text        string `json:"text"`
	DateFetched string `json:"date_fetched,omitempty"`
}

// RecordStore reads and writes record JSONL files.
type RecordStore struct{}

// NewRecordStore creates a record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// ReadRecords returns every record in path. Blank lines are ignored;
// lines that do not decode as a record object are skipped and counted.
func (s *RecordStore) ReadRecords(ctx context.Context, path string) ([]domain.RawRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: record file %s", domain.ErrNotFound, path)
		}
		return nil, 0, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	var (
		records []domain.RawRecord
		skipped int
		lineNo  int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lineNo++
		if lineNo%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec recordLine
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			logger.Debug("records: skipping line %d of %s: %v", lineNo, path, err)
			continue
		}
		records = append(records, domain.RawRecord(rec))
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read records %s: %w", path, err)
	}

	if skipped > 0 {
		logger.Warn("records: skipped %d malformed lines in %s", skipped, path)
	}
	return records, skipped, nil
}

// WriteRecords replaces path with one JSON object per record.
func (s *RecordStore) WriteRecords(ctx context.Context, path string, records []domain.RawRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(recordLine(records[i])); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return writeFileAtomic(path, buf.Bytes(), 0644)
}
