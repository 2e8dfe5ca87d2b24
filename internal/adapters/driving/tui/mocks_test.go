package tui

import (
	"context"

	"github.com/shinyobjectz/beans/internal/core/domain"
)

// MockResearchService implements driving.ResearchService for testing.
type MockResearchService struct {
	ListFunc   func(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.FindingPreview, error)
	SearchFunc func(ctx context.Context, text string, limit int) ([]domain.FindingPreview, error)
	ShowFunc   func(ctx context.Context, id string) (*domain.Finding, error)
}

func (m *MockResearchService) Add(_ context.Context, f domain.Finding) (string, error) {
	return f.ID, nil
}

func (m *MockResearchService) List(
	ctx context.Context, filter domain.ListFilter, limit int,
) ([]domain.FindingPreview, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, limit)
	}
	return nil, nil
}

func (m *MockResearchService) Search(ctx context.Context, text string, limit int) ([]domain.FindingPreview, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, text, limit)
	}
	return nil, nil
}

func (m *MockResearchService) ForWorkItem(_ context.Context, _ string) ([]domain.FindingPreview, error) {
	return nil, nil
}

func (m *MockResearchService) Show(ctx context.Context, id string) (*domain.Finding, error) {
	if m.ShowFunc != nil {
		return m.ShowFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockResearchService) Export(_ context.Context) ([]domain.Finding, error) {
	return nil, nil
}

func (m *MockResearchService) Stats(_ context.Context) (*domain.ResearchStats, error) {
	return &domain.ResearchStats{}, nil
}

func (m *MockResearchService) Doctor(_ context.Context, _ bool) error {
	return nil
}

func (m *MockResearchService) Settings() domain.Settings {
	return domain.DefaultSettings(domain.DefaultStateDir)
}
