package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoResearchService indicates that no research service was provided.
	ErrNoResearchService = errors.New("research service is required")
)
