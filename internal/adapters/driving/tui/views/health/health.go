// Package health provides the index status and reindex history view.
package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/kbquery/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
)

// historyLimit is the number of runs listed.
const historyLimit = 10

// ErrNoQueryService indicates that no query service was provided.
var ErrNoQueryService = errors.New("query service is required")

// View shows health and recent reindex runs, and can trigger a rebuild.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	queryService driving.QueryService
	ctx          context.Context

	health     *domain.HealthStatus
	runs       []domain.ReindexRun
	reindexing bool
	err        error
	width      int
	height     int
	ready      bool
}

// NewView creates a new health view.
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
		statusbar:    status.NewBar(s, km, km.StatusHelp()...),
		queryService: queryService,
		ctx:          context.Background(),
		width:        80,
		height:       24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads health and history.
func (v *View) Init() tea.Cmd {
	return v.load()
}

// Update handles messages for the health view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyEsc:
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case key.Matches(msg, v.keymap.Refresh):
			return v, v.load()
		case key.Matches(msg, v.keymap.Reindex):
			if v.reindexing {
				return v, nil
			}
			v.reindexing = true
			v.statusbar.SetState(status.StateReindexing)
			return v, v.reindex()
		}
		return v, nil

	case messages.StatusLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.health = msg.Health
		v.runs = msg.Runs
		if !v.reindexing {
			v.statusbar.SetState(status.StateReady)
		}
		return v, nil

	case messages.ReindexCompleted:
		v.reindexing = false
		if msg.Err != nil {
			v.setError(msg.Err)
		} else {
			v.err = nil
			v.statusbar.SetState(status.StateReady)
			v.statusbar.SetMessage(fmt.Sprintf("Indexed %d rows", msg.Run.Rows))
		}
		return v, v.load()
	}

	return v, nil
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		if v.queryService == nil {
			return messages.StatusLoaded{Err: ErrNoQueryService}
		}
		h, err := v.queryService.Health(v.ctx)
		if err != nil {
			return messages.StatusLoaded{Err: err}
		}
		runs, err := v.queryService.Runs(v.ctx, historyLimit)
		return messages.StatusLoaded{Health: h, Runs: runs, Err: err}
	}
}

func (v *View) reindex() tea.Cmd {
	return func() tea.Msg {
		if v.queryService == nil {
			return messages.ReindexCompleted{Err: ErrNoQueryService}
		}
		run, err := v.queryService.Reindex(v.ctx, "")
		return messages.ReindexCompleted{Run: run, Err: err}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the health view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{v.styles.Title.Render("Index status"), ""}

	if v.health != nil {
		sections = append(sections, v.renderHealth(), "")
	} else if v.err == nil {
		sections = append(sections, v.styles.Muted.Render("Loading..."), "")
	}

	sections = append(sections, v.styles.Subtitle.Render("Recent reindex runs"), v.renderRuns(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderHealth() string {
	h := v.health
	row := func(label, value string, style lipgloss.Style) string {
		return v.styles.Muted.Render(fmt.Sprintf("  %-10s", label)) + style.Render(value)
	}
	flag := func(ok bool, yes, no string) (string, lipgloss.Style) {
		if ok {
			return yes, v.styles.Success
		}
		return no, v.styles.Warning
	}

	lines := make([]string, 0, 5)
	val, st := flag(h.IndexPresent, "present", "missing")
	lines = append(lines, row("Index", val, st))
	val, st = flag(h.MetadataPresent, "present", "missing")
	lines = append(lines, row("Metadata", val, st))
	val, st = flag(h.Ready, fmt.Sprintf("%d rows x %d dims", h.Rows, h.Dimension), "not loaded")
	lines = append(lines, row("Resident", val, st))
	lines = append(lines, row("Provider", h.ProviderID, v.styles.Normal))
	return strings.Join(lines, "\n")
}

func (v *View) renderRuns() string {
	if len(v.runs) == 0 {
		return v.styles.Muted.Render("  No runs recorded")
	}

	lines := make([]string, 0, len(v.runs))
	for _, run := range v.runs {
		style := v.styles.Normal
		switch run.Status {
		case domain.RunSucceeded:
			style = v.styles.Success
		case domain.RunFailed:
			style = v.styles.Error
		case domain.RunNoRecords, domain.RunRunning:
			style = v.styles.Warning
		}
		lines = append(lines, fmt.Sprintf("  %s  %s  %s",
			v.styles.Muted.Render(run.StartedAt.Format(time.DateTime)),
			style.Render(fmt.Sprintf("%-16s", run.Status)),
			v.styles.Normal.Render(fmt.Sprintf("%d rows, %d rejected", run.Rows, run.Rejected)),
		))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}

// Health returns the last loaded health status.
func (v *View) Health() *domain.HealthStatus {
	return v.health
}

// Runs returns the last loaded runs.
func (v *View) Runs() []domain.ReindexRun {
	return v.runs
}

// Reindexing reports whether a rebuild is in flight.
func (v *View) Reindexing() bool {
	return v.reindexing
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}
