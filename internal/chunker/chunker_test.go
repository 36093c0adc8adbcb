package chunker

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/logger"
)

func source(text string) domain.SourceText {
	return domain.SourceText{
		Text:     text,
		SourceID: "https://example.org/faq",
		Region:   "  Antioquia ",
		Title:    "FAQ",
	}
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.ChunkSize())
		}
		if c.Overlap() != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.Overlap())
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		c := New(WithChunkSize(500))
		if c.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", c.ChunkSize())
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.Overlap() != 25 {
			t.Errorf("expected overlap reduced to 25, got %d", c.Overlap())
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.ChunkSize())
		}
		if c.Overlap() != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", c.Overlap())
		}
	})
}

func TestChunk_EmptyContent(t *testing.T) {
	c := New()
	if chunks := c.Chunk(source("   \n\t ")); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for blank content, got %d", len(chunks))
	}
}

func TestChunk_SplitsIntoWindows(t *testing.T) {
	text := strings.Repeat("a", 250)
	c := New(WithChunkSize(100))

	chunks := c.Chunk(source(text))

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []int{100, 100, 50} {
		if got := utf8.RuneCountInString(chunks[i].Text); got != want {
			t.Errorf("chunk %d: expected %d chars, got %d", i, want, got)
		}
	}
}

func TestChunk_DropsUndersizedTail(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLevel(logger.LevelInfo)
	defer func() {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logger.LevelWarn)
	}()

	text := strings.Repeat("b", 230)
	c := New(WithChunkSize(100))

	chunks := c.Chunk(source(text))

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks (30-char tail dropped), got %d", len(chunks))
	}
	if !strings.Contains(buf.String(), "dropping 30-char fragment at offset 200") {
		t.Errorf("expected drop to be logged, got %q", buf.String())
	}
}

func TestChunk_DropsOnlyWindowWhenTooShort(t *testing.T) {
	c := New()
	if chunks := c.Chunk(source("short page")); len(chunks) != 0 {
		t.Errorf("expected short single window to be dropped, got %d chunks", len(chunks))
	}
}

func TestChunk_NoChunkBelowThreshold(t *testing.T) {
	text := strings.Repeat("word ", 400)
	for _, size := range []int{60, 75, 128, 333} {
		for _, chunk := range New(WithChunkSize(size), WithOverlap(10)).Chunk(source(text)) {
			if n := utf8.RuneCountInString(strings.TrimSpace(chunk.Text)); n < MinContentChars {
				t.Errorf("size %d: chunk %s has %d chars", size, chunk.ID, n)
			}
		}
	}
}

func TestChunk_IdempotentIDs(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	c := New(WithChunkSize(120))

	first := c.Chunk(source(text))
	second := c.Chunk(source(text))

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	seen := make(map[string]bool, len(first))
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d: id %s != %s", i, first[i].ID, second[i].ID)
		}
		if len(first[i].ID) != 12 {
			t.Errorf("chunk %d: expected 12-char id, got %q", i, first[i].ID)
		}
		if seen[first[i].ID] {
			t.Errorf("duplicate id %s", first[i].ID)
		}
		seen[first[i].ID] = true
	}
}

func TestChunk_IDsDependOnOffsetAndSource(t *testing.T) {
	if ChunkID("https://a.example", 0) == ChunkID("https://a.example", 1500) {
		t.Error("ids for different offsets collide")
	}
	if ChunkID("https://a.example", 0) == ChunkID("https://b.example", 0) {
		t.Error("ids for different sources collide")
	}
}

func TestChunk_OverlapStartsEarlier(t *testing.T) {
	text := strings.Repeat("0123456789", 30)
	c := New(WithChunkSize(100), WithOverlap(20))

	chunks := c.Chunk(source(text))

	// windows start at 0, 80, 160, 240; the last one reaches the end
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	if chunks[1].ID != ChunkID("https://example.org/faq", 80) {
		t.Errorf("second chunk should start at offset 80")
	}
	if !strings.HasSuffix(chunks[0].Text, chunks[1].Text[:20]) {
		t.Errorf("expected 20 overlapping characters")
	}
}

func TestChunk_NormalisesAndCopiesMetadata(t *testing.T) {
	text := "  Line one   of a page\n\nwith\tspacing " + strings.Repeat("x", 60)
	chunks := New().Chunk(source(text))

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	got := chunks[0]
	if strings.Contains(got.Text, "  ") || strings.ContainsAny(got.Text, "\n\t") {
		t.Errorf("text not normalised: %q", got.Text)
	}
	if got.Region != "Antioquia" {
		t.Errorf("expected region normalised, got %q", got.Region)
	}
	if got.Title != "FAQ" || got.SourceID != "https://example.org/faq" {
		t.Errorf("metadata not copied: %+v", got)
	}
}

func TestChunk_CountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("ñ", 120)
	chunks := New(WithChunkSize(60)).Chunk(source(text))

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if utf8.RuneCountInString(chunks[0].Text) != 60 {
		t.Errorf("expected 60 runes, got %d", utf8.RuneCountInString(chunks[0].Text))
	}
}
