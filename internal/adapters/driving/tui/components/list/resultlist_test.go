package list

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

func hits(n int) []domain.SearchHit {
	out := make([]domain.SearchHit, n)
	for i := range out {
		out[i] = domain.SearchHit{
			Record: domain.ChunkRecord{
				ID:       string(rune('a' + i)),
				SourceID: "https://example.org/doc",
				Title:    "Document " + string(rune('A'+i)),
				Text:     "passage text " + string(rune('a'+i)),
			},
			Row:   i,
			Score: 0.9 - float64(i)/10,
		}
	}
	return out
}

func TestNewHitList(t *testing.T) {
	l := NewHitList(nil)

	require.NotNil(t, l)
	assert.Equal(t, 0, l.Count())
	assert.Nil(t, l.SelectedHit())
	assert.Contains(t, l.View(), "No results")
}

func TestHitList_SetHitsResetsState(t *testing.T) {
	l := NewHitList(nil)
	l.SetHits(hits(3))
	l.MoveDown()
	l.ToggleExpanded()

	l.SetHits(hits(2))

	assert.Equal(t, 0, l.Selected())
	assert.False(t, l.Expanded())
	assert.Equal(t, 2, l.Count())
}

func TestHitList_Navigation(t *testing.T) {
	l := NewHitList(nil)
	l.SetHits(hits(3))

	l.MoveUp()
	assert.Equal(t, 0, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 2, l.Selected())

	l.MoveDown()
	assert.Equal(t, 2, l.Selected())

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.Equal(t, 1, l.Selected())
	assert.Equal(t, "b", l.SelectedHit().Record.ID)
}

func TestHitList_SetSelectedIgnoresOutOfRange(t *testing.T) {
	l := NewHitList(nil)
	l.SetHits(hits(2))

	l.SetSelected(5)
	assert.Equal(t, 0, l.Selected())

	l.SetSelected(1)
	assert.Equal(t, 1, l.Selected())
}

func TestHitList_ViewShowsTitlesAndScores(t *testing.T) {
	l := NewHitList(nil)
	l.SetDimensions(100, 40)
	l.SetHits(hits(2))

	out := l.View()

	assert.Contains(t, out, "Sources (2)")
	assert.Contains(t, out, "Document A")
	assert.Contains(t, out, "0.900")
	assert.Contains(t, out, "0.800")
}

func TestHitList_UntitledFallsBackToID(t *testing.T) {
	l := NewHitList(nil)
	l.SetDimensions(100, 40)
	l.SetHits([]domain.SearchHit{{Record: domain.ChunkRecord{ID: "chunk-17", SourceID: "file:///x"}}})

	assert.Contains(t, l.View(), "chunk-17")
}

func TestHitList_ScrollsToSelection(t *testing.T) {
	l := NewHitList(nil)
	l.SetDimensions(100, 10) // two hits visible
	l.SetHits(hits(5))

	for range 4 {
		l.MoveDown()
	}
	out := l.View()

	assert.Contains(t, out, "Document E")
	assert.NotContains(t, out, "Document A")
}

func TestHitList_ExpandedShowsPassage(t *testing.T) {
	long := strings.Repeat("word ", 60)
	l := NewHitList(nil)
	l.SetDimensions(100, 40)
	l.SetHits([]domain.SearchHit{{Record: domain.ChunkRecord{ID: "a", SourceID: "u", Text: long + "END"}}})

	assert.NotContains(t, l.View(), "END")

	l.ToggleExpanded()
	assert.Contains(t, l.View(), "END")
}

func TestProvenance(t *testing.T) {
	rec := domain.ChunkRecord{SourceID: "https://example.org"}
	assert.Equal(t, "https://example.org", Provenance(rec))

	rec.Region = "CO"
	rec.DateFetched = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "https://example.org | CO | 2025-01-15", Provenance(rec))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
	assert.Equal(t, "a b", clip("a\nb", 10))
}
