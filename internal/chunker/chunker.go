// Package chunker splits document text into fixed-size windows with stable ids.
package chunker

import (
	"crypto/sha1" //nolint:gosec // ids only need to be stable, not secret
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/logger"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 0

// MinContentChars is the smallest trimmed window that becomes a chunk.
// Shorter windows are dropped, including a document's only window.
const MinContentChars = 50

// idLength is the number of hex characters kept from the id hash.
const idLength = 12

// Chunker splits normalised text into contiguous character windows.
type Chunker struct {
	chunkSize  int
	overlap    int
	minContent int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinContent overrides the minimum trimmed window length.
func WithMinContent(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minContent = n
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		minContent: MinContentChars,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured window size.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits src into records. Calling it twice with the same input
// yields the same ids in the same order.
func (c *Chunker) Chunk(src domain.SourceText) []domain.ChunkRecord {
	text := domain.NormalizeText(src.Text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)
	step := c.chunkSize - c.overlap

	chunks := make([]domain.ChunkRecord, 0, total/step+1)

	for start := 0; start < total; start += step {
		end := start + c.chunkSize
		if end > total {
			end = total
		}

		window := strings.TrimSpace(string(runes[start:end]))
		if n := utf8.RuneCountInString(window); n < c.minContent {
			if n > 0 {
				logger.Info("chunker: dropping %d-char fragment at offset %d of %s", n, start, src.SourceID)
			}
			if end == total {
				break
			}
			continue
		}

		chunks = append(chunks, domain.ChunkRecord{
			ID:          ChunkID(src.SourceID, start),
			SourceID:    src.SourceID,
			Region:      domain.NormalizeText(src.Region),
			Title:       src.Title,
			Text:        window,
			DateFetched: src.DateFetched,
		})

		if end == total {
			break
		}
	}

	return chunks
}

// ChunkID derives the stable identifier for the window of sourceID
// starting at the given character offset.
func ChunkID(sourceID string, offset int) string {
	sum := sha1.Sum([]byte(sourceID + strconv.Itoa(offset))) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:idLength]
}
