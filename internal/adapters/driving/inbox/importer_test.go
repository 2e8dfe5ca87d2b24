package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinyobjectz/beans/internal/adapters/driven/storage/memory"
	"github.com/shinyobjectz/beans/internal/core/domain"
	"github.com/shinyobjectz/beans/internal/core/services"
)

func newTestImporter(t *testing.T) (*Importer, *services.ResearchService) {
	t.Helper()
	svc := services.NewResearchService(memory.NewFindingStore(), domain.DefaultSettings(""))
	return NewImporter(svc), svc
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestImporter_ImportFiles(t *testing.T) {
	im, svc := newTestImporter(t)
	ctx := context.Background()
	dir := t.TempDir()

	a := writeFile(t, dir, "a.json", `[
		{"id": "f1", "work_item_id": "issue-1", "source": "web", "title": "Rate limiting",
		 "content": "Token bucket algorithms...", "url": "http://example.com/a", "relevance": 0.8},
		{"id": "f2", "work_item_id": "issue-1", "source": "web", "title": "Rate limiting",
		 "content": "duplicate triple", "url": "http://example.com/a"},
		{"source": "rss", "title": "Bad", "content": "bad source"},
		{"source": "web", "title": "", "content": "no title"}
	]`)
	b := writeFile(t, dir, "b.yaml", "source: codebase\ntitle: Pool\ncontent: pgx\n")
	c := writeFile(t, dir, "c.json", `{"broken": `)

	report, err := im.ImportFiles(ctx, []string{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Files)
	assert.Len(t, report.Inserted, 2)
	assert.Equal(t, "f1", report.Inserted[0])
	assert.Equal(t, 1, report.Duplicates)
	require.Len(t, report.Rejected, 3)

	assert.Equal(t, 2, report.Rejected[0].Index)
	assert.True(t, errors.Is(report.Rejected[0].Err, domain.ErrInvalidSource))
	assert.Equal(t, 3, report.Rejected[1].Index)
	assert.True(t, errors.Is(report.Rejected[1].Err, domain.ErrInvalidInput))
	assert.Equal(t, -1, report.Rejected[2].Index)
	assert.Equal(t, c, report.Rejected[2].Path)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
}

func TestImporter_Idempotent(t *testing.T) {
	im, _ := newTestImporter(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "a.yml", "source: web\ntitle: T\ncontent: C\n")

	first, err := im.ImportFiles(ctx, []string{path})
	require.NoError(t, err)
	assert.Len(t, first.Inserted, 1)

	second, err := im.ImportFiles(ctx, []string{path})
	require.NoError(t, err)
	assert.Empty(t, second.Inserted)
	assert.Equal(t, 1, second.Duplicates)
}

func TestImporter_CancelledContext(t *testing.T) {
	im, _ := newTestImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeFile(t, t.TempDir(), "a.yml", "source: web\ntitle: T\ncontent: C\n")
	_, err := im.ImportFiles(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRejection_String(t *testing.T) {
	assert.Equal(t, "a.json: boom", Rejection{Path: "a.json", Index: -1, Err: errors.New("boom")}.String())
	assert.Equal(t, "a.json[2]: boom", Rejection{Path: "a.json", Index: 2, Err: errors.New("boom")}.String())
}
