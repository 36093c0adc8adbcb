// Package menu provides the start screen of the TUI.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/styles"
)

// Entry is one selectable destination.
type Entry struct {
	Label string
	Hint  string
	View  messages.ViewType

	// Quit ends the program instead of switching views.
	Quit bool
}

// DefaultEntries lists the destinations in display order.
func DefaultEntries() []Entry {
	return []Entry{
		{Label: "Ask", Hint: "question the knowledge base", View: messages.ViewSearch},
		{Label: "Index status", Hint: "health, history and reindex", View: messages.ViewStatus},
		{Label: "Help", Hint: "keyboard shortcuts", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View is the start screen.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	entries []Entry
	cursor  int
	ready   bool
}

// NewView creates the start screen.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keymap: km, entries: DefaultEntries()}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor or activates an entry. Digits jump straight to
// the matching entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.ready = true

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			v.cursor = (v.cursor + len(v.entries) - 1) % len(v.entries)
		case key.Matches(msg, v.keymap.Down):
			v.cursor = (v.cursor + 1) % len(v.entries)
		case key.Matches(msg, v.keymap.Select):
			return v, v.activate(v.cursor)
		case key.Matches(msg, v.keymap.Quit):
			return v, tea.Quit
		default:
			if s := msg.String(); len(s) == 1 && s[0] >= '1' && int(s[0]-'0') <= len(v.entries) {
				v.cursor = int(s[0] - '1')
				return v, v.activate(v.cursor)
			}
		}
	}
	return v, nil
}

func (v *View) activate(i int) tea.Cmd {
	e := v.entries[i]
	if e.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: e.View}
	}
}

// View renders the entries with the cursor marked.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("kbquery"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Knowledge base retrieval"))
	b.WriteString("\n\n")

	for i, e := range v.entries {
		marker, label := "  ", v.styles.Normal.Render(e.Label)
		if i == v.cursor {
			marker, label = "> ", v.styles.Subtitle.Render(e.Label)
		}
		line := fmt.Sprintf("%s%d. %s", marker, i+1, label)
		if e.Hint != "" {
			line += "  " + v.styles.Muted.Render(e.Hint)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] move  [enter] open  [1-4] jump  [q] quit"))
	return b.String()
}

// SetDimensions marks the view ready. The menu has no size-dependent layout.
func (v *View) SetDimensions(_, _ int) {
	v.ready = true
}

// Selected returns the cursor index.
func (v *View) Selected() int {
	return v.cursor
}
