// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/shinyobjectz/beans/internal/core/domain"
)

// FindingsLoaded carries the most recent findings shown before any search.
type FindingsLoaded struct {
	Findings []domain.FindingPreview
	Err      error
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query    string
	Findings []domain.FindingPreview
	Err      error
}

// FindingSelected is sent when a finding in the list is opened.
type FindingSelected struct {
	ID string
}

// FindingLoaded carries a complete finding for the detail view.
type FindingLoaded struct {
	Finding *domain.Finding
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSearch is the search input and results view.
	ViewSearch ViewType = iota
	// ViewDetail shows a single finding.
	ViewDetail
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewDetail:
		return "detail"
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
