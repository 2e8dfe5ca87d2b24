package driving

import (
	"context"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

// ResearchService records and retrieves research findings.
type ResearchService interface {
	// Add stores a new finding and returns its ID.
	// An ID is generated when the finding has none.
	Add(ctx context.Context, finding domain.Finding) (string, error)

	// List returns previews of findings matching the filter, most recent first.
	// A non-positive limit uses the configured default.
	List(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.FindingPreview, error)

	// Search runs a full-text query and returns previews ranked by match quality.
	Search(ctx context.Context, text string, limit int) ([]domain.FindingPreview, error)

	// ForWorkItem returns previews for a work item, most relevant first.
	ForWorkItem(ctx context.Context, workItemID string) ([]domain.FindingPreview, error)

	// Show returns the full finding. Returns nil, nil if not found.
	Show(ctx context.Context, id string) (*domain.Finding, error)

	// Export returns every finding, oldest first.
	Export(ctx context.Context) ([]domain.Finding, error)

	// Stats summarises the stored findings.
	Stats(ctx context.Context) (*domain.ResearchStats, error)

	// Doctor checks the search index against primary storage.
	// When repair is set, an inconsistent index is rebuilt and checked again.
	Doctor(ctx context.Context, repair bool) error

	// Settings returns the effective settings.
	Settings() domain.Settings
}
