// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// linesPerHit is the height of a collapsed entry: title, provenance and preview.
const linesPerHit = 3

// HitList displays ranked hits in a navigable list.
type HitList struct {
	hits     []domain.SearchHit
	selected int
	expanded bool
	styles   *styles.Styles
	width    int
	height   int
}

// NewHitList creates a new hit list component.
func NewHitList(s *styles.Styles) *HitList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &HitList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (r *HitList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *HitList) Update(msg tea.Msg) (*HitList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the list.
func (r *HitList) View() string {
	if len(r.hits) == 0 {
		return r.styles.Muted.Render("No results")
	}

	lines := make([]string, 0, len(r.hits)+2)
	lines = append(lines, r.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(r.hits))), "")

	visible := (r.height - 4) / linesPerHit
	if visible < 1 {
		visible = 1
	}
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := min(start+visible, len(r.hits))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderHit(i, &r.hits[i]))
	}

	if r.expanded {
		if hit := r.SelectedHit(); hit != nil {
			lines = append(lines, "", r.styles.Passage.Width(max(r.width-4, 20)).Render(hit.Record.Text))
		}
	}

	return strings.Join(lines, "\n")
}

func (r *HitList) renderHit(index int, hit *domain.SearchHit) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := hit.Record.Title
	if title == "" {
		title = hit.Record.ID
	}
	maxTitle := max(r.width-20, 10)
	title = clip(title, maxTitle)

	score := fmt.Sprintf("%.3f", hit.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxTitle, title, score))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxTitle, title)) +
			r.styles.Score(hit.Score).Render(score)
	}

	provenance := r.styles.Subtitle.Render("    " + clip(Provenance(hit.Record), max(r.width-6, 20)))
	preview := r.styles.Muted.Render("    " + clip(hit.Record.Text, max(r.width-6, 20)))

	return titleLine + "\n" + provenance + "\n" + preview
}

// Provenance joins the source URI, region and date of a record.
func Provenance(rec domain.ChunkRecord) string {
	parts := []string{rec.SourceID}
	if rec.Region != "" {
		parts = append(parts, rec.Region)
	}
	if !rec.DateFetched.IsZero() {
		parts = append(parts, rec.DateFetched.Format(domain.DateLayout))
	}
	return strings.Join(parts, " | ")
}

func clip(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// SetHits replaces the hits and resets selection.
func (r *HitList) SetHits(hits []domain.SearchHit) {
	r.hits = hits
	r.selected = 0
	r.expanded = false
}

// Hits returns the current hits.
func (r *HitList) Hits() []domain.SearchHit {
	return r.hits
}

// Selected returns the index of the selected hit.
func (r *HitList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *HitList) SetSelected(index int) {
	if index >= 0 && index < len(r.hits) {
		r.selected = index
	}
}

// SelectedHit returns the currently selected hit, or nil if none.
func (r *HitList) SelectedHit() *domain.SearchHit {
	if r.selected < 0 || r.selected >= len(r.hits) {
		return nil
	}
	return &r.hits[r.selected]
}

// ToggleExpanded shows or hides the full passage of the selected hit.
func (r *HitList) ToggleExpanded() {
	r.expanded = !r.expanded
}

// Expanded reports whether the selected passage is shown in full.
func (r *HitList) Expanded() bool {
	return r.expanded
}

// MoveUp moves selection up.
func (r *HitList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *HitList) MoveDown() {
	if r.selected < len(r.hits)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *HitList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of hits.
func (r *HitList) Count() int {
	return len(r.hits)
}
