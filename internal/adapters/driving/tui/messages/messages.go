// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// QueryChanged is sent when the question input changes.
type QueryChanged struct {
	Query string
}

// SearchRequested is a command to run a query.
type SearchRequested struct {
	Query   string
	Options domain.QueryOptions
}

// SearchCompleted carries a query result back to the model.
type SearchCompleted struct {
	Result *domain.QueryResult
	Err    error
}

// ResultSelected is sent when a hit is selected.
type ResultSelected struct {
	Index int
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the question input and results view.
	ViewSearch
	// ViewStatus shows index health and reindex history.
	ViewStatus
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewStatus:
		return "status"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// StatusLoaded carries health and recent runs.
type StatusLoaded struct {
	Health *domain.HealthStatus
	Runs   []domain.ReindexRun
	Err    error
}

// ReindexStarted signals a rebuild was kicked off from the TUI.
type ReindexStarted struct{}

// ReindexCompleted carries the outcome of a rebuild.
type ReindexCompleted struct {
	Run *domain.ReindexRun
	Err error
}

// PassageCopied signals the clipboard write finished.
type PassageCopied struct {
	Err error
}
