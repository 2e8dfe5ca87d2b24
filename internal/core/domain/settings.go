package domain

import "path/filepath"

// Default settings values.
const (
	// DefaultStateDir is the project-local directory holding beans state.
	DefaultStateDir = ".beans"

	// DefaultDatabaseName is the research database file inside DefaultStateDir.
	DefaultDatabaseName = "research.db"

	// DefaultListLimit caps list and search results when no limit is given.
	DefaultListLimit = 20

	// DefaultPreviewLength bounds preview content for list and work item views.
	DefaultPreviewLength = 100

	// DefaultSearchPreviewLength bounds preview content for search results.
	DefaultSearchPreviewLength = 200
)

// Settings is the explicit configuration handed to the store and services.
type Settings struct {
	// DatabasePath is the research database file.
	DatabasePath string

	// ListLimit is the default number of results for list and search.
	ListLimit int

	// PreviewLength bounds preview content for list and work item views.
	PreviewLength int

	// SearchPreviewLength bounds preview content for search results.
	SearchPreviewLength int

	// ClampRelevance forces relevance into [0, 1] on insert.
	ClampRelevance bool
}

// DefaultSettings returns settings rooted at the given state directory.
func DefaultSettings(stateDir string) Settings {
	if stateDir == "" {
		stateDir = DefaultStateDir
	}
	return Settings{
		DatabasePath:        filepath.Join(stateDir, DefaultDatabaseName),
		ListLimit:           DefaultListLimit,
		PreviewLength:       DefaultPreviewLength,
		SearchPreviewLength: DefaultSearchPreviewLength,
		ClampRelevance:      true,
	}
}

// Normalise replaces non-positive limits with their defaults.
func (s Settings) Normalise() Settings {
	if s.ListLimit <= 0 {
		s.ListLimit = DefaultListLimit
	}
	if s.PreviewLength <= 0 {
		s.PreviewLength = DefaultPreviewLength
	}
	if s.SearchPreviewLength <= 0 {
		s.SearchPreviewLength = DefaultSearchPreviewLength
	}
	return s
}
