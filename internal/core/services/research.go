package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/ports/driven"
	"github.com/shinyobjectz/beans/internal/core/ports/driving"
	"github.com/shinyobjectz/beans/internal/logger"
)

// Ensure ResearchService implements the interface.
var _ driving.ResearchService = (*ResearchService)(nil)

// IDGenerator produces identifiers for findings added without one.
type IDGenerator func() string

// NewV7 generates time-sortable UUIDv7 identifiers.
func NewV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ResearchService records findings and answers list, search and
// work item queries, projecting results into previews.
type ResearchService struct {
	store    driven.FindingStore
	settings domain.Settings
	newID    IDGenerator
}

// NewResearchService creates a new research service.
// Non-positive limits in settings fall back to their defaults.
func NewResearchService(store driven.FindingStore, settings domain.Settings) *ResearchService {
	return &ResearchService{
		store:    store,
		settings: settings.Normalise(),
		newID:    NewV7,
	}
}

// SetIDGenerator replaces the generator used for findings without an ID.
func (s *ResearchService) SetIDGenerator(gen IDGenerator) {
	s.newID = gen
}

// Settings returns the effective settings.
func (s *ResearchService) Settings() domain.Settings {
	return s.settings
}

// Add stores a new finding and returns its ID.
func (s *ResearchService) Add(ctx context.Context, finding domain.Finding) (string, error) {
	logger.Section("Research Add")

	finding.ID = strings.TrimSpace(finding.ID)
	finding.WorkItemID = strings.TrimSpace(finding.WorkItemID)
	finding.URL = strings.TrimSpace(finding.URL)
	finding.Title = strings.TrimSpace(finding.Title)
	finding.Query = strings.TrimSpace(finding.Query)

	if finding.ID == "" {
		finding.ID = s.newID()
		logger.Debug("Assigned id %s", finding.ID)
	}
	if finding.Metadata == nil {
		finding.Metadata = map[string]any{}
	}

	relevance, err := s.relevance(finding.Relevance)
	if err != nil {
		return "", err
	}
	if relevance != finding.Relevance {
		logger.Warn("Relevance %v clamped to %v", finding.Relevance, relevance)
	}
	finding.Relevance = relevance

	if err := finding.Validate(); err != nil {
		logger.Debug("Rejected finding: %v", err)
		return "", err
	}

	id, err := s.store.Insert(ctx, finding)
	if err != nil {
		return "", err
	}
	logger.Info("Stored finding %s (source=%s, work item=%q)", id, finding.Source, finding.WorkItemID)
	return id, nil
}

func (s *ResearchService) relevance(r float64) (float64, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("%w: relevance must be a finite number", domain.ErrInvalidInput)
	}
	if !s.settings.ClampRelevance {
		return r, nil
	}
	return math.Min(1, math.Max(0, r)), nil
}

// List returns previews of findings matching the filter, most recent first.
func (s *ResearchService) List(
	ctx context.Context, filter domain.ListFilter, limit int,
) ([]domain.FindingPreview, error) {
	logger.Section("Research List")

	filter.WorkItemID = strings.TrimSpace(filter.WorkItemID)
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	limit = s.limit(limit)
	logger.Debug("Filter: work item=%q source=%q limit=%d", filter.WorkItemID, filter.Source, limit)

	findings, err := s.store.List(ctx, filter, limit)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d findings", len(findings))
	return previews(findings, s.settings.PreviewLength), nil
}

// Search runs a full-text query and returns previews ranked by match quality.
// Empty or unusable query text yields an empty result.
func (s *ResearchService) Search(ctx context.Context, text string, limit int) ([]domain.FindingPreview, error) {
	logger.Section("Research Search")
	defer logger.Timed("search")()

	query := domain.ParseSearchQuery(text)
	logger.Debug("Query: %q parsed as %q", text, query.String())
	if query.IsEmpty() {
		logger.Debug("No positive terms, returning no results")
		return []domain.FindingPreview{}, nil
	}

	limit = s.limit(limit)
	logger.Debug("Limit: %d", limit)

	findings, err := s.store.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d findings", len(findings))
	return previews(findings, s.settings.SearchPreviewLength), nil
}

// ForWorkItem returns previews for a work item, most relevant first.
func (s *ResearchService) ForWorkItem(ctx context.Context, workItemID string) ([]domain.FindingPreview, error) {
	logger.Section("Research For Work Item")

	workItemID = strings.TrimSpace(workItemID)
	if workItemID == "" {
		return nil, fmt.Errorf("%w: work item id is required", domain.ErrInvalidInput)
	}

	findings, err := s.store.ForWorkItem(ctx, workItemID)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d findings for %s", len(findings), workItemID)
	return previews(findings, s.settings.PreviewLength), nil
}

// Show returns the full finding. Returns nil, nil if not found.
func (s *ResearchService) Show(ctx context.Context, id string) (*domain.Finding, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// Export returns every finding, oldest first.
func (s *ResearchService) Export(ctx context.Context) ([]domain.Finding, error) {
	logger.Section("Research Export")
	findings, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("Exporting %d findings", len(findings))
	return findings, nil
}

// Stats summarises the stored findings.
func (s *ResearchService) Stats(ctx context.Context) (*domain.ResearchStats, error) {
	return s.store.Stats(ctx)
}

// Doctor checks the search index against primary storage.
// When repair is set, an inconsistent index is rebuilt and checked again.
func (s *ResearchService) Doctor(ctx context.Context, repair bool) error {
	logger.Section("Research Doctor")
	err := s.store.CheckIntegrity(ctx)
	if err == nil {
		logger.Info("Index is consistent")
		return nil
	}
	if !repair {
		return fmt.Errorf("checking research index: %w", err)
	}

	logger.Warn("Index check failed, rebuilding: %v", err)
	if err := s.store.RebuildIndex(ctx); err != nil {
		return err
	}
	if err := s.store.CheckIntegrity(ctx); err != nil {
		return fmt.Errorf("checking rebuilt research index: %w", err)
	}
	return nil
}

func (s *ResearchService) limit(limit int) int {
	if limit <= 0 {
		return s.settings.ListLimit
	}
	return limit
}

func previews(findings []domain.Finding, length int) []domain.FindingPreview {
	out := make([]domain.FindingPreview, len(findings))
	for i := range findings {
		out[i] = findings[i].Preview(length)
	}
	return out
}
