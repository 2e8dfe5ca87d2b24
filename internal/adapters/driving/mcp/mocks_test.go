package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shinyobjectz/beans/internal/adapters/driven/storage/memory"
	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/services"
)

// mockResearchService is a mock implementation of driving.ResearchService
// that fails every call with err.
type mockResearchService struct {
	err error
}

func (m *mockResearchService) Add(_ context.Context, _ domain.Finding) (string, error) {
	return "", m.err
}

func (m *mockResearchService) List(_ context.Context, _ domain.ListFilter, _ int) ([]domain.FindingPreview, error) {
	return nil, m.err
}

func (m *mockResearchService) Search(_ context.Context, _ string, _ int) ([]domain.FindingPreview, error) {
	return nil, m.err
}

func (m *mockResearchService) ForWorkItem(_ context.Context, _ string) ([]domain.FindingPreview, error) {
	return nil, m.err
}

func (m *mockResearchService) Show(_ context.Context, _ string) (*domain.Finding, error) {
	return nil, m.err
}

func (m *mockResearchService) Export(_ context.Context) ([]domain.Finding, error) {
	return nil, m.err
}

func (m *mockResearchService) Stats(_ context.Context) (*domain.ResearchStats, error) {
	return nil, m.err
}

func (m *mockResearchService) Doctor(_ context.Context, _ bool) error {
	return m.err
}

func (m *mockResearchService) Settings() domain.Settings {
	return domain.DefaultSettings("")
}

// newTestServer returns a server backed by an in-memory store holding the
// rate limiting finding f1.
func newTestServer(t *testing.T) (*Server, *services.ResearchService) {
	t.Helper()

	svc := services.NewResearchService(memory.NewFindingStore(), domain.DefaultSettings(""))
	_, err := svc.Add(context.Background(), domain.Finding{
		ID:         "f1",
		WorkItemID: "issue-1",
		Query:      "rate limiting strategies",
		Source:     domain.SourceWeb,
		Title:      "Rate limiting",
		Content:    "Token bucket algorithms smooth bursts of traffic.",
		URL:        "http://example.com/a",
		Relevance:  0.8,
	})
	require.NoError(t, err)

	server, err := NewServer(&Ports{Research: svc})
	require.NoError(t, err)
	return server, svc
}
