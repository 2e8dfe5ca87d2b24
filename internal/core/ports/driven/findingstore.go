package driven

import (
	"context"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

// FindingStore persists research findings and answers queries over them.
// Backed by SQLite with an FTS5 index, or by the in-memory inverted index.
//
// Findings are insert-only: the store never updates or deletes them.
type FindingStore interface {
	// Insert validates and stores a finding, assigning CreatedAt when zero.
	// Returns domain.ErrInvalidSource or domain.ErrInvalidInput before any
	// write, domain.ErrDuplicateFinding when (work_item_id, url, title)
	// already exists, and domain.ErrAlreadyExists when the id is taken.
	Insert(ctx context.Context, finding domain.Finding) (string, error)

	// Get retrieves a finding by ID. Returns nil, nil if not found.
	Get(ctx context.Context, id string) (*domain.Finding, error)

	// List returns findings matching the filter, most recent first.
	List(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.Finding, error)

	// Search returns findings matching the query, best match first.
	// An empty query or a query the index cannot evaluate yields no results.
	Search(ctx context.Context, query domain.SearchQuery, limit int) ([]domain.Finding, error)

	// ForWorkItem returns the findings linked to a work item ordered by
	// stored relevance, ties in insertion order.
	ForWorkItem(ctx context.Context, workItemID string) ([]domain.Finding, error)

	// All returns every finding, oldest first.
	All(ctx context.Context) ([]domain.Finding, error)

	// Stats summarises the stored findings.
	Stats(ctx context.Context) (*domain.ResearchStats, error)

	// CheckIntegrity verifies that the search index agrees with primary storage.
	CheckIntegrity(ctx context.Context) error

	// RebuildIndex regenerates the search index from primary storage.
	RebuildIndex(ctx context.Context) error
}
