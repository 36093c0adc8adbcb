// Package search provides the question and answer view for the TUI.
package search

import (
	"context"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
)

// View is the search view: question input, ranked sources and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.HitList
	statusbar *status.Bar

	queryService driving.QueryService
	copyText     func(string) error
	ctx          context.Context

	answer     *domain.SearchHit
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a question, false = navigating results
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, queryService driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQuestionInput(s),
		list:         list.NewHitList(s),
		statusbar:    status.NewBar(s, km),
		queryService: queryService,
		copyText:     clipboard.WriteAll,
		ctx:          context.Background(),
		width:        80,
		height:       24,
		focusInput:   true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithClipboard replaces the clipboard writer.
func (v *View) WithClipboard(fn func(string) error) *View {
	v.copyText = fn
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.PassageCopied:
		if msg.Err != nil {
			v.statusbar.SetMessage("Copy: " + msg.Err.Error())
		} else {
			v.statusbar.SetMessage("Copied passage to clipboard")
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := v.input.Value()
			if question == "" {
				return v, nil
			}
			v.statusbar.SetState(status.StateSearching)
			v.statusbar.SetMessage("")
			return v, v.performSearch(question)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Up):
		v.list.MoveUp()
	case key.Matches(msg, v.keymap.Down):
		v.list.MoveDown()
	case key.Matches(msg, v.keymap.Expand):
		v.list.ToggleExpanded()
	case key.Matches(msg, v.keymap.Copy):
		return v, v.copySelected()
	case key.Matches(msg, v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		v.statusbar.SetBindings(v.keymap.ShortHelp()...)
		return v, v.input.Focus()
	}
	return v, nil
}

func (v *View) performSearch(question string) tea.Cmd {
	return func() tea.Msg {
		if v.queryService == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		result, err := v.queryService.Query(v.ctx, question, domain.QueryOptions{})
		return messages.SearchCompleted{Result: result, Err: err}
	}
}

func (v *View) copySelected() tea.Cmd {
	hit := v.list.SelectedHit()
	if hit == nil {
		return nil
	}
	text := hit.Record.Text
	return func() tea.Msg {
		return messages.PassageCopied{Err: v.copyText(text)}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	v.answer = nil
	var hits []domain.SearchHit
	if msg.Result != nil {
		v.answer = msg.Result.Answer
		hits = msg.Result.Sources
	}
	v.list.SetHits(hits)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(len(hits))

	if len(hits) > 0 {
		v.focusInput = false
		v.input.Blur()
		v.statusbar.SetBindings(v.keymap.ResultsHelp()...)
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("kbquery"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.answer != nil {
		answer := v.answer.Record.Title
		if answer == "" {
			answer = v.answer.Record.SourceID
		}
		sections = append(sections, v.styles.Subtitle.Render("Answer: ")+v.styles.Normal.Render(answer), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-12)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current question.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the question text.
func (v *View) SetQuery(question string) {
	v.input.SetValue(question)
}

// Hits returns the current ranked sources.
func (v *View) Hits() []domain.SearchHit {
	return v.list.Hits()
}

// Answer returns the best hit of the last query.
func (v *View) Answer() *domain.SearchHit {
	return v.answer
}

// SelectedIndex returns the index of the selected hit.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Expanded reports whether the selected passage is shown in full.
func (v *View) Expanded() bool {
	return v.list.Expanded()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}

// Reset returns the view to input mode with no results.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetHits(nil)
	v.answer = nil
	v.err = nil
	v.statusbar.Clear()
	v.statusbar.SetBindings(v.keymap.ShortHelp()...)
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
